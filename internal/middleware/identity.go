package middleware

import (
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	errorText  = "Something went wrong. Please try again later."
	signInText = "👋 Welcome to MyGigs Africa!\n\nSign in on the website and tap \"Become a Freelancer\" to open this bot with your account."
)

// IdentityChecker is the part of the identity service the middleware needs
type IdentityChecker interface {
	EnsureUserExists(userID int64) error
	IsLinked(userID int64) (bool, error)
}

// IdentityMiddleware lets only users with a linked account past, except for /start
func IdentityMiddleware(identity IdentityChecker, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return nil
			}
			userID := c.Sender().ID

			// /start carries the deep link that does the linking
			if c.Callback() == nil && isStartCommand(c.Text()) {
				return next(c)
			}

			// Ensure user exists
			if err := identity.EnsureUserExists(userID); err != nil {
				logger.Error("Failed to ensure user exists in middleware", zap.Error(err))
				return reply(c, errorText)
			}

			linked, err := identity.IsLinked(userID)
			if err != nil {
				logger.Error("Failed to check identity link in middleware", zap.Error(err))
				return reply(c, errorText)
			}

			if !linked {
				logger.Debug("Blocked unlinked user", zap.Int64("user_id", userID))
				return reply(c, signInText)
			}

			// User is linked, continue
			return next(c)
		}
	}
}

func isStartCommand(text string) bool {
	return text == "/start" || strings.HasPrefix(text, "/start ") || strings.HasPrefix(text, "/start@")
}

func reply(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}
