package app

// State tracks the AI session configuration handshake for one call.
// Transitions are monotonic; StateReady is terminal until StateClosed.
type State int

const (
	StateConnecting State = iota
	StateAwaitingCreated
	StateAwaitingUpdated
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingCreated:
		return "awaiting_created"
	case StateAwaitingUpdated:
		return "awaiting_updated"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
