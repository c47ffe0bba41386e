// Package console is the Telegram front end of the moderation engine: each chat
// mounts one review screen at a time and acts on it through inline buttons.
package console

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"

	"moderation-console/internal/auth"
	"moderation-console/internal/locales"
	"moderation-console/internal/metrics"
	"moderation-console/internal/models"
	"moderation-console/internal/review"
	telegoapi "moderation-console/pkg/telegoapi"
)

const updateTimeout = 30 * time.Second

var errModeratorRequired = errors.New("moderator session required")

// SessionManager signs moderators in and out of a chat.
type SessionManager interface {
	SignIn(ctx context.Context, chatID, userID int64, username string) (*auth.Session, error)
	SignOut(chatID int64)
}

// Deps holds the dependencies required by the Console.
type Deps struct {
	Bot           telegoapi.BotAPI
	Updates       <-chan telego.Update
	Projects      review.ItemRepository[models.Project]
	Registrations review.ItemRepository[models.Registration]
	Questions     review.ItemRepository[models.Question]
	Hub           *auth.SessionHub
	Sessions      SessionManager
	Metrics       *metrics.Manager
	RateLimit     int
	Debug         bool
}

// chatState is what one chat currently has open.
type chatState struct {
	mu        sync.Mutex
	screen    screen
	messageID int
	page      int
	form      *projectForm
}

// Console routes Telegram updates to review screens.
type Console struct {
	bot           telegoapi.BotAPI
	updates       <-chan telego.Update
	projects      review.ItemRepository[models.Project]
	registrations review.ItemRepository[models.Registration]
	questions     review.ItemRepository[models.Question]
	hub           *auth.SessionHub
	sessions      SessionManager
	metrics       *metrics.Manager
	ratelimiter   ratelimit.Limiter
	debug         bool

	mu    sync.Mutex
	chats map[int64]*chatState
}

// New creates a Console from its dependencies.
func New(deps Deps) (*Console, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("bot instance cannot be nil")
	}
	if deps.Projects == nil || deps.Registrations == nil || deps.Questions == nil {
		return nil, fmt.Errorf("repositories cannot be nil")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("session hub cannot be nil")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}
	if deps.Metrics == nil {
		return nil, fmt.Errorf("metrics manager cannot be nil")
	}
	limit := deps.RateLimit
	if limit <= 0 {
		limit = 20
	}
	return &Console{
		bot:           deps.Bot,
		updates:       deps.Updates,
		projects:      deps.Projects,
		registrations: deps.Registrations,
		questions:     deps.Questions,
		hub:           deps.Hub,
		sessions:      deps.Sessions,
		metrics:       deps.Metrics,
		ratelimiter:   ratelimit.New(limit),
		debug:         deps.Debug,
		chats:         make(map[int64]*chatState),
	}, nil
}

func (c *Console) chat(chatID int64) *chatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.chats[chatID]
	if !ok {
		st = &chatState{}
		c.chats[chatID] = st
	}
	return st
}

// RegisterCommands publishes the command menu.
func (c *Console) RegisterCommands(ctx context.Context) error {
	commands := []telego.BotCommand{
		{Command: "projects", Description: "Review project listings"},
		{Command: "registrations", Description: "Review internship registrations"},
		{Command: "questions", Description: "Review support questions"},
		{Command: "showcase", Description: "Approved projects"},
		{Command: "addproject", Description: "Submit a project"},
		{Command: "login", Description: "Sign in as moderator"},
		{Command: "logout", Description: "Sign out"},
		{Command: "help", Description: "Show help"},
	}
	if err := c.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

// Start processes updates until ctx is done or the channel closes,
// then waits for in-flight handlers and unmounts every open screen.
func (c *Console) Start(ctx context.Context) {
	if c.updates == nil {
		log.Error().Msg("Updates channel is nil, console not started")
		return
	}
	log.Info().Msg("Listening for updates...")

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		c.closeAll()
		log.Info().Msg("All update processing finished")
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context done, stopping update processing...")
			return
		case update, ok := <-c.updates:
			if !ok {
				log.Info().Msg("Updates channel closed")
				return
			}
			wg.Add(1)
			go func(up telego.Update) {
				defer wg.Done()
				c.ProcessUpdate(ctx, up)
			}(update)
		}
	}
}

func (c *Console) closeAll() {
	c.mu.Lock()
	chats := make([]*chatState, 0, len(c.chats))
	for _, st := range c.chats {
		chats = append(chats, st)
	}
	c.mu.Unlock()

	for _, st := range chats {
		st.mu.Lock()
		if st.screen != nil {
			st.screen.Unmount()
			st.screen = nil
		}
		if st.form != nil {
			st.form.close()
			st.form = nil
		}
		st.mu.Unlock()
	}
}

// ProcessUpdate routes one update to the message or callback handlers.
func (c *Console) ProcessUpdate(ctx context.Context, update telego.Update) {
	c.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Recovered panic while processing update")
			sentry.CurrentHub().Recover(r)
			sentry.Flush(2 * time.Second)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := *update.Message
		if message.From == nil {
			log.Debug().Int("message_id", message.MessageID).Int64("chat_id", message.Chat.ID).Msg("Ignoring message without sender")
			return
		}
		err := c.handleMessage(processingCtx, message)
		c.metrics.RecordUpdate("message", err)
		if err != nil {
			log.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("Message handler error")
			sentry.CaptureException(err)
		}
	case update.CallbackQuery != nil:
		err := c.handleCallback(processingCtx, *update.CallbackQuery)
		c.metrics.RecordUpdate("callback", err)
		if err != nil {
			log.Error().Err(err).Str("query_id", update.CallbackQuery.ID).Msg("Callback handler error")
			sentry.CaptureException(err)
		}
	default:
		if c.debug {
			log.Debug().Int("update_id", update.UpdateID).Msg("Ignoring unhandled update type")
		}
	}
}

func (c *Console) send(ctx context.Context, chatID int64, text string, markup *telego.InlineKeyboardMarkup) (*telego.Message, error) {
	params := &telego.SendMessageParams{ChatID: telego.ChatID{ID: chatID}, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	msg, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return msg, nil
}

func (c *Console) reply(ctx context.Context, chatID int64, loc *i18n.Localizer, msgID string, data map[string]interface{}) error {
	_, err := c.send(ctx, chatID, locales.GetMessage(loc, msgID, data, nil), nil)
	return err
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// render edits the chat's screen message to the screen's current state.
func (c *Console) render(ctx context.Context, chatID int64, st *chatState, loc *i18n.Localizer) error {
	st.mu.Lock()
	s, messageID, page := st.screen, st.messageID, st.page
	st.mu.Unlock()
	if s == nil || messageID == 0 {
		return nil
	}

	text, markup := s.Render(loc, page)
	_, err := c.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      telego.ChatID{ID: chatID},
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil && !isNotModified(err) {
		return fmt.Errorf("failed to render screen %s: %w", s.Name(), err)
	}
	return nil
}

// openScreen replaces the chat's screen with a freshly mounted one.
func (c *Console) openScreen(ctx context.Context, chatID int64, loc *i18n.Localizer, name string) error {
	s, ok := c.newScreen(name, chatID)
	if !ok {
		return fmt.Errorf("unknown screen %q", name)
	}

	msg, err := c.send(ctx, chatID, locales.GetMessage(loc, "MsgLoading", nil, nil), nil)
	if err != nil {
		return err
	}

	st := c.chat(chatID)
	st.mu.Lock()
	previous := st.screen
	st.screen, st.messageID, st.page = s, msg.MessageID, 0
	st.mu.Unlock()
	if previous != nil {
		previous.Unmount()
	}

	return c.mountScreen(ctx, chatID, loc, st, s)
}

// mountScreen loads s and renders it. If another screen replaced s while it was
// mounting, s is unmounted again so its gate listener is released.
func (c *Console) mountScreen(ctx context.Context, chatID int64, loc *i18n.Localizer, st *chatState, s screen) error {
	if err := s.Mount(ctx); err != nil {
		log.Warn().Err(err).Str("screen", s.Name()).Int64("chat_id", chatID).Msg("Screen mounted without items")
	}

	st.mu.Lock()
	current := st.screen == s
	st.mu.Unlock()
	if !current {
		s.Unmount()
		return nil
	}
	return c.render(ctx, chatID, st, loc)
}
