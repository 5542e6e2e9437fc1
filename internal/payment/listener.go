package payment

import "gigsbot/internal/domain"

// NoticeLevel is the severity of a user-facing notice
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a short user-facing notification
type Notice struct {
	Level   NoticeLevel
	Title   string
	Message string
}

// Listener receives orchestrator output. Methods are called with the
// orchestrator lock held, in order, and must not call back into the
// Orchestrator.
type Listener interface {
	// OnUpdate is called when the step or the entered data changes
	OnUpdate(s domain.PaymentSession)
	// OnTick is called on every progress tick while processing
	OnTick(s domain.PaymentSession)
	OnNotice(n Notice)
	OnNavigate(n domain.Navigation)
	// OnClose is called once when an open session is closed or reopened,
	// with the state it had at that moment
	OnClose(s domain.PaymentSession)
}

// Listeners fans out to several listeners in order
type Listeners []Listener

func (ls Listeners) OnUpdate(s domain.PaymentSession) {
	for _, l := range ls {
		l.OnUpdate(s)
	}
}

func (ls Listeners) OnTick(s domain.PaymentSession) {
	for _, l := range ls {
		l.OnTick(s)
	}
}

func (ls Listeners) OnNotice(n Notice) {
	for _, l := range ls {
		l.OnNotice(n)
	}
}

func (ls Listeners) OnNavigate(n domain.Navigation) {
	for _, l := range ls {
		l.OnNavigate(n)
	}
}

func (ls Listeners) OnClose(s domain.PaymentSession) {
	for _, l := range ls {
		l.OnClose(s)
	}
}

// NopListener ignores everything. Embed it to implement only some methods.
type NopListener struct{}

func (NopListener) OnUpdate(domain.PaymentSession) {}
func (NopListener) OnTick(domain.PaymentSession)   {}
func (NopListener) OnNotice(Notice)                {}
func (NopListener) OnNavigate(domain.Navigation)   {}
func (NopListener) OnClose(domain.PaymentSession)  {}
