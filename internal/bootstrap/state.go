package bootstrap

// State is the acquisition lifecycle of one dependency.
type State int

const (
	StateUninitialized State = iota
	StateAcquiring
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAcquiring:
		return "acquiring"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settled reports whether the state is terminal.
func (s State) Settled() bool {
	return s == StateReady || s == StateFailed
}
