package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotModerator is returned when a user who is not a channel admin tries to sign in.
var ErrNotModerator = errors.New("user is not a moderator")

// Authenticator signs moderators in and out of a chat through the session hub.
type Authenticator struct {
	hub     *SessionHub
	checker AdminCheckerInterface
	now     func() time.Time
}

// NewAuthenticator creates an authenticator publishing to hub.
func NewAuthenticator(hub *SessionHub, checker AdminCheckerInterface) *Authenticator {
	return &Authenticator{hub: hub, checker: checker, now: time.Now}
}

// SignIn verifies the user and publishes a session for the chat.
func (a *Authenticator) SignIn(ctx context.Context, chatID, userID int64, username string) (*Session, error) {
	ok, err := a.checker.IsAdmin(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify moderator %d: %w", userID, err)
	}
	if !ok {
		log.Warn().Int64("user_id", userID).Int64("chat_id", chatID).Msg("Sign-in refused")
		return nil, ErrNotModerator
	}
	s := &Session{UserID: userID, Username: username, SignedInAt: a.now()}
	a.hub.Publish(chatID, s)
	log.Info().Int64("user_id", userID).Int64("chat_id", chatID).Msg("Moderator signed in")
	return s, nil
}

// SignOut clears the chat's session.
func (a *Authenticator) SignOut(chatID int64) {
	a.hub.Publish(chatID, nil)
	log.Info().Int64("chat_id", chatID).Msg("Moderator signed out")
}

// Current returns the chat's session, or nil.
func (a *Authenticator) Current(chatID int64) *Session {
	return a.hub.Current(chatID)
}
