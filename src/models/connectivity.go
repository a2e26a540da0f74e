package models

// ConnectivityState is the tri-state backend reachability signal.
type ConnectivityState int

const (
	ConnectivityUnknown ConnectivityState = iota
	ConnectivityConnected
	ConnectivityDisconnected
)

func (s ConnectivityState) String() string {
	switch s {
	case ConnectivityConnected:
		return "connected"
	case ConnectivityDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
