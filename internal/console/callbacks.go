package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"

	"moderation-console/internal/locales"
	"moderation-console/internal/review"
)

// errorMessageID maps a screen error to the localised text shown to the moderator.
func errorMessageID(err error) string {
	var failed *review.OperationFailed
	switch {
	case errors.As(err, &failed):
		return failed.MessageID
	case errors.Is(err, review.ErrMutationInFlight):
		return "MsgMutationInFlight"
	case errors.Is(err, review.ErrNotReady):
		return "MsgNotReady"
	case errors.Is(err, review.ErrItemNotFound):
		return "MsgItemNotFound"
	case errors.Is(err, review.ErrLoadInProgress):
		return "MsgLoadInProgress"
	case errors.Is(err, review.ErrNotAuthenticated):
		return "MsgNotAuthenticated"
	case errors.Is(err, errModeratorRequired):
		return "MsgModeratorsOnly"
	default:
		return "MsgErrorGeneral"
	}
}

func (c *Console) answer(ctx context.Context, queryID string, loc *i18n.Localizer, msgID string, alert bool) error {
	params := &telego.AnswerCallbackQueryParams{CallbackQueryID: queryID, ShowAlert: alert}
	if msgID != "" {
		params.Text = locales.GetMessage(loc, msgID, nil, nil)
	}
	if err := c.bot.AnswerCallbackQuery(ctx, params); err != nil {
		return fmt.Errorf("failed to answer callback query %s: %w", queryID, err)
	}
	return nil
}

func (c *Console) handleCallback(ctx context.Context, query telego.CallbackQuery) error {
	loc := locales.NewLocalizer(query.From.LanguageCode)
	data, err := parseCallbackData(query.Data)
	if err != nil || query.Message == nil {
		return c.answer(ctx, query.ID, loc, "MsgScreenExpired", true)
	}
	msg, ok := query.Message.(*telego.Message)
	if !ok || msg == nil {
		return c.answer(ctx, query.ID, loc, "MsgScreenExpired", true)
	}

	chatID := msg.Chat.ID
	st := c.chat(chatID)
	st.mu.Lock()
	s, messageID := st.screen, st.messageID
	st.mu.Unlock()
	if s == nil || s.Name() != data.Screen || messageID != msg.MessageID {
		return c.answer(ctx, query.ID, loc, "MsgScreenExpired", true)
	}

	var (
		actionErr error
		doneMsg   string
	)
	switch data.Action {
	case actionToggle:
		actionErr = s.Toggle(ctx, data.Arg)
		c.metrics.RecordMutation(s.Name(), review.OpToggle, actionErr)
		doneMsg = "MsgFlagUpdated"
	case actionDelete:
		actionErr = s.Delete(ctx, data.Arg)
		c.metrics.RecordMutation(s.Name(), review.OpDelete, actionErr)
		doneMsg = "MsgDeleted"
	case actionReload:
		actionErr = s.Reload(ctx)
	case actionPage:
		page, err := strconv.Atoi(data.Arg)
		if err != nil {
			return c.answer(ctx, query.ID, loc, "MsgScreenExpired", true)
		}
		st.mu.Lock()
		st.page = page
		st.mu.Unlock()
	case actionAdd:
		if err := c.answer(ctx, query.ID, loc, "", false); err != nil {
			return err
		}
		return c.startForm(ctx, chatID, loc)
	default:
		return c.answer(ctx, query.ID, loc, "MsgScreenExpired", true)
	}

	if actionErr != nil {
		var failed *review.OperationFailed
		if errors.As(actionErr, &failed) {
			sentry.CaptureException(actionErr)
		}
		log.Warn().Err(actionErr).Str("screen", s.Name()).Str("action", data.Action).Str("id", data.Arg).Msg("Screen action failed")
		if err := c.answer(ctx, query.ID, loc, errorMessageID(actionErr), true); err != nil {
			return err
		}
		if data.Action != actionReload || s.State() != review.StateLoadFailed {
			return nil
		}
		return c.render(ctx, chatID, st, loc)
	}

	if err := c.answer(ctx, query.ID, loc, doneMsg, false); err != nil {
		return err
	}
	return c.render(ctx, chatID, st, loc)
}
