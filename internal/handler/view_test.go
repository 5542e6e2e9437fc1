package handler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gigsbot/internal/domain"
	"gigsbot/internal/gateway"
	"gigsbot/internal/payment"
	"gigsbot/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

type fakeSender struct {
	mu      sync.Mutex
	nextID  int
	sent    []string
	edits   []string
	editErr error
}

func (s *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.sent = append(s.sent, what.(string))
	return &tele.Message{ID: s.nextID}, nil
}

func (s *fakeSender) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editErr != nil {
		return nil, s.editErr
	}
	s.edits = append(s.edits, what.(string))
	return msg.(*tele.Message), nil
}

func (s *fakeSender) counts() (sent, edits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent), len(s.edits)
}

func (s *fakeSender) lastEdit() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.edits) == 0 {
		return ""
	}
	return s.edits[len(s.edits)-1]
}

func (s *fakeSender) sentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestRenderPayment(t *testing.T) {
	amount := decimal.NewFromInt(250)

	tests := []struct {
		name        string
		session     domain.PaymentSession
		contains    []string
		buttons     []string
		withoutKeys bool
	}{
		{
			name:     "empty input",
			session:  domain.PaymentSession{Amount: amount, Step: domain.StepInput},
			contains: []string{"Become a Freelancer", "KES 250", "e.g. 712 345 678"},
			buttons:  []string{btnCancel.Unique},
		},
		{
			name:     "partial number",
			session:  domain.PaymentSession{Amount: amount, Step: domain.StepInput, PhoneNumber: "71234"},
			contains: []string{"+254 712 34", "Please enter a valid M-Pesa number"},
			buttons:  []string{btnCancel.Unique},
		},
		{
			name:     "complete number",
			session:  domain.PaymentSession{Amount: amount, Step: domain.StepInput, PhoneNumber: "712345678"},
			contains: []string{"+254 712 345 678", "Tap Pay"},
			buttons:  []string{btnPay.Unique, btnCancel.Unique},
		},
		{
			name: "processing",
			session: domain.PaymentSession{
				Amount:           amount,
				Step:             domain.StepProcessing,
				PhoneNumber:      "712345678",
				ProgressPercent:  50,
				CountdownSeconds: 30,
			},
			contains: []string{"Waiting for payment confirmation", "[█████░░░░░] 50%", "Time left: 0:30"},
			buttons:  []string{btnCancel.Unique},
		},
		{
			name:        "success",
			session:     domain.PaymentSession{Amount: amount, Step: domain.StepSuccess, PhoneNumber: "712345678"},
			contains:    []string{"Payment received", "KES 250"},
			withoutKeys: true,
		},
		{
			name:     "failed",
			session:  domain.PaymentSession{Amount: amount, Step: domain.StepFailed, FailureMessage: "Insufficient permissions"},
			contains: []string{"Payment failed", "Insufficient permissions"},
			buttons:  []string{btnRetry.Unique, btnCancel.Unique},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, markup := renderPayment(tt.session, "254")

			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}

			if tt.withoutKeys {
				assert.Nil(t, markup)
				return
			}
			require.NotNil(t, markup)

			var uniques []string
			for _, row := range markup.InlineKeyboard {
				for _, btn := range row {
					uniques = append(uniques, btn.Unique)
				}
			}
			assert.Equal(t, tt.buttons, uniques)
		})
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[░░░░░░░░░░]", progressBar(0))
	assert.Equal(t, "[███░░░░░░░]", progressBar(35))
	assert.Equal(t, "[██████████]", progressBar(100))
	assert.Equal(t, "[██████████]", progressBar(140))
	assert.Equal(t, "[░░░░░░░░░░]", progressBar(-5))
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "1:00", formatCountdown(60))
	assert.Equal(t, "0:09", formatCountdown(9))
	assert.Equal(t, "0:00", formatCountdown(-1))
}

func TestNoticeText(t *testing.T) {
	assert.Equal(t, "✅ STK Push Sent\nEnter your M-Pesa PIN on your phone.",
		noticeText(payment.Notice{Level: payment.NoticeInfo, Title: "STK Push Sent", Message: "Enter your M-Pesa PIN on your phone."}))
	assert.Equal(t, "❌ Payment Error",
		noticeText(payment.Notice{Level: payment.NoticeError, Title: "Payment Error"}))
}

func TestChatView_FollowsPaymentSession(t *testing.T) {
	sender := &fakeSender{}
	clock := testutil.NewFakeClock()
	gw := new(testutil.MockPaymentGateway)
	q := newQueue()
	defer q.stop()

	navigations := make(chan domain.Navigation, 1)
	view := newChatView(sender, tele.ChatID(42), "254", q, func(n domain.Navigation) {
		navigations <- n
	}, testutil.NewTestLogger())

	orch := payment.New(gw, "user_2abc", view, payment.Options{
		Amount: decimal.NewFromInt(250),
		Clock:  clock,
		Logger: testutil.NewTestLogger(),
	})

	req := gateway.NewInitiateRequest("254712345678", decimal.NewFromInt(250), "user_2abc")
	gw.On("InitiatePush", req).Return(gateway.InitiateAccepted{TrackingID: "abc123"}, nil)
	gw.On("PaymentStatus", "abc123").Return(domain.PaymentPending, nil).Once()
	gw.On("PaymentStatus", "abc123").Return(domain.PaymentSuccess, nil).Once()

	orch.Open()
	waitFor(t, func() bool { sent, _ := sender.counts(); return sent == 1 })

	_, err := orch.SetPhone("0712345678")
	require.NoError(t, err)
	waitFor(t, func() bool { _, edits := sender.counts(); return edits == 1 })
	assert.Contains(t, sender.lastEdit(), "+254 712 345 678")

	require.NoError(t, orch.Submit(context.Background()))
	waitFor(t, func() bool { sent, _ := sender.counts(); return sent == 2 })
	assert.Contains(t, sender.sentTexts()[1], "STK Push Sent")

	_, editsBefore := sender.counts()
	clock.Advance(4 * time.Second)
	clock.Advance(time.Second)
	waitFor(t, func() bool { _, edits := sender.counts(); return edits == editsBefore+1 })
	assert.Contains(t, sender.lastEdit(), "Time left: 0:55")

	clock.Advance(time.Second)
	waitFor(t, func() bool { return strings.Contains(sender.lastEdit(), "Payment received") })

	clock.Advance(2500 * time.Millisecond)
	select {
	case n := <-navigations:
		assert.Equal(t, domain.NavigateProfileCreation, n)
	case <-time.After(time.Second):
		t.Fatal("no navigation")
	}
}

func TestChatView_Detach(t *testing.T) {
	sender := &fakeSender{}
	q := newQueue()
	defer q.stop()

	view := newChatView(sender, tele.ChatID(42), "254", q, nil, testutil.NewTestLogger())
	s := domain.PaymentSession{Amount: decimal.NewFromInt(250), Step: domain.StepInput}

	view.OnUpdate(s)
	view.OnUpdate(s)
	view.detach()
	view.OnUpdate(s)

	waitFor(t, func() bool {
		sent, edits := sender.counts()
		return sent == 2 && edits == 1
	})
}

func TestChatView_SendsNewMessageWhenEditFails(t *testing.T) {
	sender := &fakeSender{editErr: errors.New("telegram: Bad Request: message to edit not found (400)")}
	q := newQueue()
	defer q.stop()

	view := newChatView(sender, tele.ChatID(42), "254", q, nil, testutil.NewTestLogger())
	s := domain.PaymentSession{Amount: decimal.NewFromInt(250), Step: domain.StepInput}

	view.OnUpdate(s)
	view.OnUpdate(s)

	waitFor(t, func() bool { sent, _ := sender.counts(); return sent == 2 })
}

func TestChatView_IgnoresUnmodifiedEdits(t *testing.T) {
	sender := &fakeSender{}
	q := newQueue()
	defer q.stop()

	view := newChatView(sender, tele.ChatID(42), "254", q, nil, testutil.NewTestLogger())
	s := domain.PaymentSession{Amount: decimal.NewFromInt(250), Step: domain.StepInput}

	view.OnUpdate(s)
	waitFor(t, func() bool { sent, _ := sender.counts(); return sent == 1 })

	sender.mu.Lock()
	sender.editErr = errors.New("telegram: Bad Request: message is not modified (400)")
	sender.mu.Unlock()

	view.OnUpdate(s)
	view.OnNotice(payment.Notice{Title: "done"})

	waitFor(t, func() bool { sent, _ := sender.counts(); return sent == 2 })
	assert.Equal(t, "✅ done", sender.sentTexts()[1])
}

func TestChatView_TicksThrottled(t *testing.T) {
	sender := &fakeSender{}
	q := newQueue()
	defer q.stop()

	view := newChatView(sender, tele.ChatID(42), "254", q, nil, testutil.NewTestLogger())
	for countdown := 59; countdown >= 50; countdown-- {
		view.OnTick(domain.PaymentSession{Step: domain.StepProcessing, CountdownSeconds: countdown})
	}

	// 55 sends the first status message, 50 edits it
	waitFor(t, func() bool {
		sent, edits := sender.counts()
		return sent == 1 && edits == 1
	})
}
