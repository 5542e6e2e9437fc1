package handler

import (
	"fmt"
	"strings"

	"gigsbot/internal/domain"
	"gigsbot/internal/payment"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// progressEvery is how many countdown seconds pass between progress redraws
const progressEvery = 5

const progressBarWidth = 10

// sender is the part of *tele.Bot the chat view needs
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// chatView renders one payment session into a single status message.
// Rendering happens on the session queue, never under the orchestrator lock.
type chatView struct {
	payment.NopListener

	sender      sender
	chat        tele.Recipient
	countryCode string
	queue       *queue
	navigate    func(domain.Navigation)
	logger      *zap.Logger

	// touched only by queue jobs
	status *tele.Message
}

func newChatView(s sender, chat tele.Recipient, countryCode string, q *queue, navigate func(domain.Navigation), logger *zap.Logger) *chatView {
	return &chatView{
		sender:      s,
		chat:        chat,
		countryCode: countryCode,
		queue:       q,
		navigate:    navigate,
		logger:      logger,
	}
}

func (v *chatView) OnUpdate(s domain.PaymentSession) {
	v.queue.push(func() { v.render(s) })
}

func (v *chatView) OnTick(s domain.PaymentSession) {
	if s.CountdownSeconds%progressEvery != 0 {
		return
	}
	v.queue.push(func() { v.render(s) })
}

func (v *chatView) OnNotice(n payment.Notice) {
	v.queue.push(func() {
		if _, err := v.sender.Send(v.chat, noticeText(n)); err != nil {
			v.logger.Warn("Failed to send notice", zap.String("title", n.Title), zap.Error(err))
		}
	})
}

func (v *chatView) OnNavigate(n domain.Navigation) {
	v.queue.push(func() {
		if n == domain.NavigateClose {
			v.show("Payment cancelled.", nil)
		}
		if v.navigate != nil {
			v.navigate(n)
		}
	})
}

// detach makes the next render send a fresh status message below the
// user's latest input instead of editing the old one
func (v *chatView) detach() {
	v.queue.push(func() { v.status = nil })
}

func (v *chatView) render(s domain.PaymentSession) {
	text, markup := renderPayment(s, v.countryCode)
	v.show(text, markup)
}

func (v *chatView) show(text string, markup *tele.ReplyMarkup) {
	opts := withMarkup(markup)

	if v.status != nil {
		msg, err := v.sender.Edit(v.status, text, opts...)
		if err == nil {
			v.status = msg
			return
		}
		if isNotModified(err) {
			return
		}
		v.logger.Warn("Failed to edit status message, sending new", zap.Error(err))
	}

	msg, err := v.sender.Send(v.chat, text, opts...)
	if err != nil {
		v.logger.Error("Failed to send status message", zap.Error(err))
		return
	}
	v.status = msg
}

// renderPayment builds the status message for a session snapshot
func renderPayment(s domain.PaymentSession, countryCode string) (string, *tele.ReplyMarkup) {
	markup := &tele.ReplyMarkup{}
	amount := "KES " + s.Amount.String()
	phone := fmt.Sprintf("+%s %s", countryCode, domain.FormatPhoneDisplay(s.PhoneNumber))

	switch s.Step {
	case domain.StepProcessing:
		var b strings.Builder
		b.WriteString("⏳ Waiting for payment confirmation\n\n")
		fmt.Fprintf(&b, "Check your phone %s and enter your M-Pesa PIN to pay %s.\n\n", phone, amount)
		fmt.Fprintf(&b, "%s %d%%\n", progressBar(s.ProgressPercent), s.ProgressPercent)
		fmt.Fprintf(&b, "Time left: %s", formatCountdown(s.CountdownSeconds))
		markup.Inline(markup.Row(btnCancel))
		return b.String(), markup

	case domain.StepSuccess:
		return fmt.Sprintf("✅ Payment received!\n\n%s paid from %s. Setting up your account...", amount, phone), nil

	case domain.StepFailed:
		msg := s.FailureMessage
		if msg == "" {
			msg = "The payment could not be completed."
		}
		markup.Inline(markup.Row(btnRetry, btnCancel))
		return fmt.Sprintf("❌ Payment failed\n\n%s", msg), markup

	default:
		var b strings.Builder
		b.WriteString("💳 Become a Freelancer\n\n")
		fmt.Fprintf(&b, "Subscription fee: %s\n\n", amount)
		switch {
		case s.PhoneNumber == "":
			b.WriteString("Send the M-Pesa number to pay with, e.g. 712 345 678.")
			markup.Inline(markup.Row(btnCancel))
		case domain.ValidatePhone(s.PhoneNumber) != nil:
			fmt.Fprintf(&b, "Number: %s\n\n⚠️ Please enter a valid M-Pesa number", phone)
			markup.Inline(markup.Row(btnCancel))
		default:
			fmt.Fprintf(&b, "Number: %s\n\nTap Pay to receive the M-Pesa prompt, or send another number.", phone)
			markup.Inline(markup.Row(btnPay), markup.Row(btnCancel))
		}
		return b.String(), markup
	}
}

func progressBar(percent int) string {
	percent = max(0, min(100, percent))
	filled := percent * progressBarWidth / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled) + "]"
}

func formatCountdown(seconds int) string {
	seconds = max(0, seconds)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func noticeText(n payment.Notice) string {
	icon := "✅"
	if n.Level == payment.NoticeError {
		icon = "❌"
	}
	if n.Message == "" {
		return icon + " " + n.Title
	}
	return fmt.Sprintf("%s %s\n%s", icon, n.Title, n.Message)
}
