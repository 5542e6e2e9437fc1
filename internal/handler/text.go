package handler

import (
	"strings"

	"gigsbot/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	state := h.GetState(userID)
	s := h.getSession(userID)

	switch state.State {
	case domain.StateAwaitingPhone:
		if s == nil {
			h.ResetState(userID)
			return c.Send(expiredText, mainMenuMarkup())
		}
		return h.handlePhoneInput(c, s, text)

	case domain.StateAwaitingReferral:
		if s == nil {
			h.ResetState(userID)
			return c.Send(expiredText, mainMenuMarkup())
		}
		return h.handleReferralInput(c, s, text)
	}

	return c.Send("Tap the button below to get started.", mainMenuMarkup())
}
