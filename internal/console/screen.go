package console

import (
	"context"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"moderation-console/internal/auth"
	"moderation-console/internal/locales"
	"moderation-console/internal/models"
	"moderation-console/internal/review"
)

// Screen names, also used as callback and metrics labels.
const (
	ScreenProjects      = "projects"
	ScreenRegistrations = "registrations"
	ScreenQuestions     = "questions"
	ScreenShowcase      = "showcase"
)

const pageSize = 5

// screen is one mounted listing in a chat.
type screen interface {
	Name() string
	Mount(ctx context.Context) error
	Reload(ctx context.Context) error
	Toggle(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Unmount()
	State() review.State
	Render(loc *i18n.Localizer, page int) (string, *telego.InlineKeyboardMarkup)
}

// screenView binds a review controller to its rendering.
type screenView[T models.Reviewable[T]] struct {
	name          string
	titleID       string
	ctrl          *review.Controller[T]
	gate          *auth.Gate
	view          itemView[T]
	moderatorOnly bool
	offerCreate   bool
}

func (s *screenView[T]) Name() string                     { return s.name }
func (s *screenView[T]) Mount(ctx context.Context) error  { return s.ctrl.Mount(ctx) }
func (s *screenView[T]) Reload(ctx context.Context) error { return s.ctrl.Reload(ctx) }
func (s *screenView[T]) Unmount()                         { s.ctrl.Unmount() }
func (s *screenView[T]) State() review.State              { return s.ctrl.State() }

// canModerate re-checks the session at press time: a moderator who signed out
// keeps the old message but can no longer act on it. The public listing never moderates.
func (s *screenView[T]) canModerate() bool {
	return s.moderatorOnly && s.gate.IsAuthenticated()
}

func (s *screenView[T]) Toggle(ctx context.Context, id string) error {
	if !s.canModerate() {
		return errModeratorRequired
	}
	_, err := s.ctrl.ToggleFlag(ctx, id)
	return err
}

func (s *screenView[T]) Delete(ctx context.Context, id string) error {
	if !s.canModerate() {
		return errModeratorRequired
	}
	return s.ctrl.Delete(ctx, id)
}

func (s *screenView[T]) button(loc *i18n.Localizer, labelID, action, arg string) telego.InlineKeyboardButton {
	return tu.InlineKeyboardButton(locales.GetMessage(loc, labelID, nil, nil)).
		WithCallbackData(callbackData{Screen: s.name, Action: action, Arg: arg}.String())
}

func (s *screenView[T]) Render(loc *i18n.Localizer, page int) (string, *telego.InlineKeyboardMarkup) {
	switch s.ctrl.State() {
	case review.StateLoadFailed:
		return locales.GetMessage(loc, review.MsgLoadFailed, nil, nil),
			tu.InlineKeyboard(tu.InlineKeyboardRow(s.button(loc, "BtnReload", actionReload, "")))
	case review.StateReady:
	default:
		return locales.GetMessage(loc, "MsgLoading", nil, nil), nil
	}

	items := s.ctrl.Snapshot()
	pages := (len(items) + pageSize - 1) / pageSize
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}

	count := len(items)
	var b strings.Builder
	b.WriteString(locales.GetMessage(loc, "MsgScreenHeader", map[string]interface{}{
		"Title": locales.GetMessage(loc, s.titleID, nil, nil),
		"Count": count,
	}, &count))
	if count == 0 {
		b.WriteString("\n\n" + locales.GetMessage(loc, "MsgEmptyList", nil, nil))
	}

	var rows [][]telego.InlineKeyboardButton
	start := page * pageSize
	end := min(start+pageSize, count)
	for i := start; i < end && count > 0; i++ {
		item := items[i]
		n := strconv.Itoa(i + 1)
		b.WriteString("\n\n" + n + ". " + s.view.describe(loc, item))
		if !s.moderatorOnly {
			continue
		}
		toggle := s.button(loc, s.view.toggleLabel(item), actionToggle, item.ID())
		toggle.Text = n + ". " + toggle.Text
		rows = append(rows, tu.InlineKeyboardRow(toggle, s.button(loc, "BtnDelete", actionDelete, item.ID())))
	}

	var nav []telego.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tu.InlineKeyboardButton("‹").
			WithCallbackData(callbackData{Screen: s.name, Action: actionPage, Arg: strconv.Itoa(page - 1)}.String()))
	}
	nav = append(nav, s.button(loc, "BtnReload", actionReload, ""))
	if page < pages-1 {
		nav = append(nav, tu.InlineKeyboardButton("›").
			WithCallbackData(callbackData{Screen: s.name, Action: actionPage, Arg: strconv.Itoa(page + 1)}.String()))
	}
	rows = append(rows, nav)

	if s.offerCreate && s.ctrl.CanCreate() {
		rows = append(rows, tu.InlineKeyboardRow(s.button(loc, "BtnAddProject", actionAdd, "")))
	}
	return b.String(), tu.InlineKeyboard(rows...)
}

// newScreen builds a fresh screen for chatID. Every mount gets its own gate and tracker.
func (c *Console) newScreen(name string, chatID int64) (screen, bool) {
	gate := auth.NewGate(c.hub, chatID)
	switch name {
	case ScreenProjects:
		return &screenView[models.Project]{
			name: name, titleID: "TitleProjects", gate: gate, view: projectView, moderatorOnly: true,
			ctrl: review.NewController[models.Project](name, c.projects, review.WithGate(gate)),
		}, true
	case ScreenRegistrations:
		return &screenView[models.Registration]{
			name: name, titleID: "TitleRegistrations", gate: gate, view: registrationView, moderatorOnly: true,
			ctrl: review.NewController[models.Registration](name, c.registrations, review.WithGate(gate)),
		}, true
	case ScreenQuestions:
		return &screenView[models.Question]{
			name: name, titleID: "TitleQuestions", gate: gate, view: questionView, moderatorOnly: true,
			ctrl: review.NewController[models.Question](name, c.questions, review.WithGate(gate)),
		}, true
	case ScreenShowcase:
		return &screenView[models.Project]{
			name: name, titleID: "TitleShowcase", gate: gate, view: projectView, offerCreate: true,
			ctrl: review.NewController[models.Project](name, c.projects,
				review.WithGate(gate), review.WithLoadMode(review.LoadApproved)),
		}, true
	default:
		return nil, false
	}
}
