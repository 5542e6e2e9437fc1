package handler

import (
	"errors"
	"strings"

	"gigsbot/internal/repository"
	"gigsbot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command, optionally carrying the account
// reference from the website deep link
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	// Ensure user exists in database
	if err := h.identityService.EnsureUserExists(userID); err != nil {
		h.logger.Error("Failed to ensure user exists", zap.Error(err))
		return c.Send(errorText)
	}

	var payload string
	if c.Callback() == nil && c.Message() != nil {
		payload = strings.TrimSpace(c.Message().Payload)
	}

	if payload != "" {
		moved, err := h.identityService.Link(userID, payload)
		switch {
		case err == nil && moved:
			h.logger.Warn("Account link moved from another Telegram user", zap.Int64("user_id", userID))
		case err == nil:
			h.logger.Info("User linked", zap.Int64("user_id", userID))
		case errors.Is(err, service.ErrInvalidExternalID):
			return c.Send("That sign-in link is not valid. Please open the bot again from the website.")
		case errors.Is(err, repository.ErrExternalIDTaken):
			h.logger.Warn("Concurrent link of the same account", zap.Int64("user_id", userID))
			return c.Send("This account is being connected right now. Please open the link again.")
		default:
			h.logger.Error("Failed to link user", zap.Error(err))
			return c.Send(errorText)
		}
	}

	linked, err := h.identityService.IsLinked(userID)
	if err != nil {
		h.logger.Error("Failed to check identity link", zap.Error(err))
		return c.Send(errorText)
	}

	h.ResetState(userID)
	if !linked {
		return c.Send(signInText)
	}

	// Show main menu
	return h.editOrSend(c, mainMenuText, mainMenuMarkup())
}
