package console

import (
	"context"
	"errors"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"

	"moderation-console/internal/auth"
	"moderation-console/internal/locales"
	"moderation-console/internal/models"
	"moderation-console/internal/review"
)

const formScreen = "addproject"

// projectForm is a pending /addproject submission. Its gate stays attached
// until the form is submitted or cancelled.
type projectForm struct {
	ctrl *review.Controller[models.Project]
}

func (f *projectForm) close() {
	f.ctrl.Unmount()
}

// commandName extracts "login" from "/login@SomeBot extra".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "/")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}

func (c *Console) handleMessage(ctx context.Context, message telego.Message) error {
	chatID := message.Chat.ID
	loc := locales.NewLocalizer(message.From.LanguageCode)
	text := strings.TrimSpace(message.Text)

	if strings.HasPrefix(text, "/") {
		return c.handleCommand(ctx, message, loc)
	}

	st := c.chat(chatID)
	st.mu.Lock()
	form := st.form
	st.mu.Unlock()
	if form != nil && text != "" {
		return c.submitForm(ctx, chatID, loc, st, form, text)
	}
	if c.debug {
		log.Debug().Int64("chat_id", chatID).Msg("Ignoring text outside of a form")
	}
	return nil
}

func (c *Console) handleCommand(ctx context.Context, message telego.Message, loc *i18n.Localizer) error {
	chatID := message.Chat.ID
	command := commandName(message.Text)
	if c.debug {
		log.Debug().Str("command", command).Int64("user_id", message.From.ID).Msg("Executing command")
	}

	switch command {
	case "start":
		return c.reply(ctx, chatID, loc, "MsgStart", nil)
	case "help":
		return c.reply(ctx, chatID, loc, "MsgHelp", nil)
	case "login":
		// Sessions belong to a chat, so a group session would let every member moderate.
		if message.Chat.Type != telego.ChatTypePrivate {
			return c.reply(ctx, chatID, loc, "MsgLoginPrivateOnly", nil)
		}
		return c.login(ctx, chatID, message.From, loc)
	case "logout":
		c.sessions.SignOut(chatID)
		return c.reply(ctx, chatID, loc, "MsgLogoutSuccess", nil)
	case ScreenProjects, ScreenRegistrations, ScreenQuestions:
		if c.hub.Current(chatID) == nil {
			return c.reply(ctx, chatID, loc, "MsgModeratorsOnly", nil)
		}
		return c.openScreen(ctx, chatID, loc, command)
	case ScreenShowcase:
		return c.openScreen(ctx, chatID, loc, ScreenShowcase)
	case "addproject":
		return c.startForm(ctx, chatID, loc)
	case "cancel":
		return c.cancelForm(ctx, chatID, loc)
	default:
		return c.reply(ctx, chatID, loc, "MsgUnknownCommand", nil)
	}
}

func (c *Console) login(ctx context.Context, chatID int64, from *telego.User, loc *i18n.Localizer) error {
	_, err := c.sessions.SignIn(ctx, chatID, from.ID, from.Username)
	switch {
	case errors.Is(err, auth.ErrNotModerator):
		return c.reply(ctx, chatID, loc, "MsgLoginDenied", nil)
	case err != nil:
		if replyErr := c.reply(ctx, chatID, loc, "MsgLoginError", nil); replyErr != nil {
			log.Error().Err(replyErr).Int64("chat_id", chatID).Msg("Failed to report login error")
		}
		return err
	default:
		return c.reply(ctx, chatID, loc, "MsgLoginSuccess", nil)
	}
}

// startForm opens an add-project form for a signed-in chat.
func (c *Console) startForm(ctx context.Context, chatID int64, loc *i18n.Localizer) error {
	gate := auth.NewGate(c.hub, chatID)
	gate.Attach()
	if !gate.IsAuthenticated() {
		gate.Detach()
		return c.reply(ctx, chatID, loc, "MsgNotAuthenticated", nil)
	}
	form := &projectForm{ctrl: review.NewController[models.Project](formScreen, c.projects, review.WithGate(gate))}

	st := c.chat(chatID)
	st.mu.Lock()
	previous := st.form
	st.form = form
	st.mu.Unlock()
	if previous != nil {
		previous.close()
	}
	return c.reply(ctx, chatID, loc, "MsgAddProjectPrompt", nil)
}

func (c *Console) clearForm(st *chatState, form *projectForm) {
	st.mu.Lock()
	if st.form == form {
		st.form = nil
	}
	st.mu.Unlock()
	form.close()
}

func (c *Console) cancelForm(ctx context.Context, chatID int64, loc *i18n.Localizer) error {
	st := c.chat(chatID)
	st.mu.Lock()
	form := st.form
	st.mu.Unlock()
	if form != nil {
		c.clearForm(st, form)
	}
	return c.reply(ctx, chatID, loc, "MsgAddProjectCancelled", nil)
}

// submitForm creates the project and, on success, shows the approved listing.
// A parse or store failure keeps the form open so the moderator can resend.
func (c *Console) submitForm(ctx context.Context, chatID int64, loc *i18n.Localizer, st *chatState, form *projectForm, text string) error {
	project, err := ParseProjectForm(text)
	if err != nil {
		return c.reply(ctx, chatID, loc, "MsgAddProjectInvalid", map[string]interface{}{"Reason": err.Error()})
	}

	id, err := form.ctrl.Create(ctx, project)
	c.metrics.RecordMutation(formScreen, review.OpCreate, err)
	var failed *review.OperationFailed
	switch {
	case errors.Is(err, review.ErrNotAuthenticated):
		c.clearForm(st, form)
		return c.reply(ctx, chatID, loc, "MsgNotAuthenticated", nil)
	case errors.As(err, &failed):
		if replyErr := c.reply(ctx, chatID, loc, failed.MessageID, nil); replyErr != nil {
			log.Error().Err(replyErr).Int64("chat_id", chatID).Msg("Failed to report create failure")
		}
		return err
	case err != nil:
		return err
	}

	c.clearForm(st, form)
	log.Info().Str("id", id).Int64("chat_id", chatID).Msg("Project submitted")
	if err := c.reply(ctx, chatID, loc, "MsgProjectCreated", nil); err != nil {
		return err
	}
	return c.openScreen(ctx, chatID, loc, ScreenShowcase)
}
