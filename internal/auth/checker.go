package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mymmrac/telego"
	tgapi "github.com/mymmrac/telego/telegoapi"
	"github.com/rs/zerolog/log"

	telegoapi "moderation-console/pkg/telegoapi"
)

// ErrMembershipLookup wraps every failure to read a user's status in the admin channel.
var ErrMembershipLookup = errors.New("admin channel membership lookup failed")

// AdminCheckerInterface decides whether a Telegram user may moderate.
type AdminCheckerInterface interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AdminChecker grants moderation rights to the owners and administrators of one channel.
type AdminChecker struct {
	bot     telegoapi.BotAPI
	channel telego.ChatID
}

// NewAdminChecker binds the checker to the admin channel.
func NewAdminChecker(bot telegoapi.BotAPI, channelID int64) (*AdminChecker, error) {
	switch {
	case bot == nil:
		return nil, errors.New("admin checker: bot is required")
	case channelID == 0:
		return nil, errors.New("admin checker: channel ID is required")
	}
	return &AdminChecker{bot: bot, channel: telego.ChatID{ID: channelID}}, nil
}

// IsAdmin reports whether the user is creator or administrator of the admin channel.
// Users Telegram does not know in the channel are not admins and yield no error.
func (ac *AdminChecker) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	member, err := ac.bot.GetChatMember(ctx, &telego.GetChatMemberParams{ChatID: ac.channel, UserID: userID})
	switch {
	case err == nil:
	case isUserNotFound(err):
		log.Debug().Int64("user_id", userID).Msg("User is not a member of the admin channel")
		return false, nil
	default:
		log.Error().Err(err).
			Int64("user_id", userID).
			Int64("channel_id", ac.channel.ID).
			Msg("Failed to check chat member")
		return false, fmt.Errorf("%w: %w", ErrMembershipLookup, err)
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator:
		return true, nil
	default:
		return false, nil
	}
}

// isUserNotFound matches the Bad Request the Bot API returns for users outside the chat.
func isUserNotFound(err error) bool {
	var apiErr *tgapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Description), "user not found")
}
