package domain

// Navigation is the handoff signal sent to the surrounding application
type Navigation int

const (
	NavigateNone Navigation = iota
	NavigateProfileCreation
	NavigateClose
)

func (n Navigation) String() string {
	switch n {
	case NavigateProfileCreation:
		return "profile_creation"
	case NavigateClose:
		return "close"
	default:
		return "none"
	}
}
