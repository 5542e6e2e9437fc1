package handler

import (
	"context"
	"errors"
	"fmt"

	"gigsbot/internal/domain"
	"gigsbot/internal/referral"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const referralPromptText = "🎉 Welcome aboard!\n\n" +
	"Were you referred by a " + domain.PlatformName + " sales agent? " +
	"Send their referral code, or tap \"I don't have a code\"."

func referralPromptMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnSkipReferral))
	return markup
}

// handleReferralInput verifies a typed referral code
func (h *Handler) handleReferralInput(c tele.Context, s *session, text string) error {
	state, err := s.flow.Submit(context.Background(), text)
	if err != nil {
		h.logger.Debug("Referral code not accepted",
			zap.Int64("user_id", s.userID),
			zap.String("code", state.Code),
			zap.Error(err),
		)
	}

	msg, markup := referralMessage(state, err)
	return c.Send(msg, withMarkup(markup)...)
}

// handleSkipReferral takes the organic path
func (h *Handler) handleSkipReferral(c tele.Context) error {
	s := h.getSession(c.Sender().ID)
	if s == nil {
		return c.Respond(&tele.CallbackResponse{Text: expiredText, ShowAlert: true})
	}

	state, err := s.flow.Skip(context.Background())
	msg, markup := referralMessage(state, err)
	return h.editOrSend(c, msg, markup)
}

// handleContinue finishes onboarding with the profile link
func (h *Handler) handleContinue(c tele.Context) error {
	userID := c.Sender().ID

	s := h.getSession(userID)
	if s == nil {
		return c.Respond(&tele.CallbackResponse{Text: expiredText, ShowAlert: true})
	}

	nav, err := s.flow.Proceed(context.Background())
	switch {
	case errors.Is(err, referral.ErrNotVerified):
		return c.Respond(&tele.CallbackResponse{
			Text:      "Send a referral code or tap \"I don't have a code\" first.",
			ShowAlert: true,
		})
	case err != nil:
		return c.Respond()
	}

	if nav != domain.NavigateProfileCreation {
		return c.Respond()
	}

	h.logger.Info("Onboarding completed",
		zap.Int64("user_id", userID),
		zap.String("referral_code", s.flow.State().Code),
	)
	h.ResetState(userID)
	h.endSession(s)

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL("📝 Create my profile", h.profileURL)))
	return h.editOrSend(c, "✅ You're all set!\n\nCreate your freelancer profile to start receiving gigs.", markup)
}

// referralMessage describes the outcome of a referral submission
func referralMessage(state domain.ReferralVerification, err error) (string, *tele.ReplyMarkup) {
	markup := &tele.ReplyMarkup{}

	var verr *domain.ValidationError
	var rerr *referral.RejectionError
	switch {
	case err == nil, errors.Is(err, referral.ErrAlreadyVerified):
		markup.Inline(markup.Row(btnContinue))
		if state.IsCompanyCode {
			return fmt.Sprintf("🎉 Welcome to %s!\n\nYou are joining directly. Tap Continue to create your profile.", domain.PlatformName), markup
		}
		return fmt.Sprintf("✅ Referral Applied!\n\nThanks for being referred by %s", state.SalesPersonName), markup

	case errors.As(err, &verr):
		markup.Inline(markup.Row(btnSkipReferral))
		return "✏️ Enter Code\n\n" + verr.Message, markup

	case errors.As(err, &rerr):
		markup.Inline(markup.Row(btnSkipReferral))
		return fmt.Sprintf("❌ Invalid Code\n\n%s\n\nSend another code or tap \"I don't have a code\".", rerr.Message), markup

	case errors.Is(err, referral.ErrInProgress):
		return "⏳ Checking your code...", nil

	default:
		markup.Inline(markup.Row(btnSkipReferral))
		return "⚠️ Verification Error\n\nCould not verify the code. Please try again.", markup
	}
}
