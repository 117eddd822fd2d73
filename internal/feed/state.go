package feed

import "bookflow/models"

// State is the explicit connection state. Transitions happen only through
// the named transition methods on Connection so tests can assert on state
// directly instead of inferring it from side effects.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Status maps the internal state onto the observable connection status.
func (s State) Status() models.ConnStatus {
	switch s {
	case StateConnecting:
		return models.StatusConnecting
	case StateConnected:
		return models.StatusConnected
	case StateError:
		return models.StatusError
	}
	return models.StatusDisconnected
}
