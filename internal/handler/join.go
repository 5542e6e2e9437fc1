package handler

import (
	"context"
	"errors"
	"strings"

	"gigsbot/internal/domain"
	"gigsbot/internal/payment"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const expiredText = "This payment has expired. Tap \"Become a Freelancer\" to start again."

// handleJoin opens a new payment session
func (h *Handler) handleJoin(c tele.Context) error {
	userID := c.Sender().ID

	externalID, err := h.identityService.ExternalID(userID)
	if err != nil {
		h.logger.Error("Failed to load identity", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(errorText)
	}
	if externalID == "" {
		return c.Send(signInText)
	}

	clientName := strings.TrimSpace(c.Sender().FirstName + " " + c.Sender().LastName)
	s := h.startSession(userID, c.Chat(), externalID, clientName)

	h.SetState(userID, &domain.StateData{State: domain.StateAwaitingPhone})
	s.orch.Open()

	h.logger.Info("Payment session started", zap.Int64("user_id", userID))

	if c.Callback() != nil {
		return c.Respond()
	}
	return nil
}

// handlePhoneInput stores the number the user typed
func (h *Handler) handlePhoneInput(c tele.Context, s *session, text string) error {
	if s.orch.Snapshot().Step == domain.StepInput {
		s.view.detach()
	}

	_, err := s.orch.SetPhone(text)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, payment.ErrInvalidTransition):
		return c.Send("A payment is already in progress. Please wait for it to finish.")
	case errors.Is(err, payment.ErrClosed):
		h.ResetState(c.Sender().ID)
		return c.Send(expiredText, mainMenuMarkup())
	default:
		h.logger.Error("Failed to set phone", zap.Error(err))
		return c.Send(errorText)
	}
}

// handlePay requests the M-Pesa push
func (h *Handler) handlePay(c tele.Context) error {
	userID := c.Sender().ID

	s := h.getSession(userID)
	if s == nil {
		return c.Respond(&tele.CallbackResponse{Text: expiredText, ShowAlert: true})
	}

	// Answer first: the push request can outlive the callback deadline
	if err := c.Respond(&tele.CallbackResponse{Text: "Sending M-Pesa prompt..."}); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}

	err := s.orch.Submit(context.Background())
	var verr *domain.ValidationError
	switch {
	case err == nil, errors.As(err, &verr), errors.Is(err, payment.ErrInvalidTransition):
		// reported through the session view
		return nil
	case errors.Is(err, payment.ErrClosed):
		return c.Send(expiredText, mainMenuMarkup())
	default:
		h.logger.Error("Failed to submit payment", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(errorText)
	}
}

// handleRetry returns a failed payment to phone entry
func (h *Handler) handleRetry(c tele.Context) error {
	userID := c.Sender().ID

	s := h.getSession(userID)
	if s == nil {
		return c.Respond(&tele.CallbackResponse{Text: expiredText, ShowAlert: true})
	}

	if err := s.orch.Retry(); err != nil {
		h.logger.Debug("Retry refused", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: expiredText, ShowAlert: true})
	}

	h.SetState(userID, &domain.StateData{State: domain.StateAwaitingPhone})
	return c.Respond()
}

// handleCancel cancels current operation and resets state
func (h *Handler) handleCancel(c tele.Context) error {
	userID := c.Sender().ID

	s := h.getSession(userID)
	if s != nil && s.orch.IsOpen() {
		// the close navigation brings the main menu back
		s.orch.Cancel()
		if c.Callback() != nil {
			return c.Respond()
		}
		return nil
	}

	if s != nil {
		h.endSession(s)
	}
	h.ResetState(userID)
	return h.editOrSend(c, mainMenuText, mainMenuMarkup())
}

// onNavigate runs on the session queue when the payment session hands off
func (h *Handler) onNavigate(s *session, n domain.Navigation) {
	h.logger.Info("Payment session finished",
		zap.Int64("user_id", s.userID),
		zap.String("navigation", n.String()),
	)

	switch n {
	case domain.NavigateProfileCreation:
		h.SetState(s.userID, &domain.StateData{State: domain.StateAwaitingReferral})
		if _, err := h.sender.Send(s.view.chat, referralPromptText, referralPromptMarkup()); err != nil {
			h.logger.Error("Failed to send referral prompt", zap.Error(err))
		}
	case domain.NavigateClose:
		h.ResetState(s.userID)
		h.endSession(s)
		if _, err := h.sender.Send(s.view.chat, mainMenuText, mainMenuMarkup()); err != nil {
			h.logger.Error("Failed to send main menu", zap.Error(err))
		}
	}
}
