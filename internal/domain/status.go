package domain

type RemoteID string

type Status int

const (
	StatusIdle Status = iota
	StatusStarting
	StatusRunning
	StatusPaused
	StatusStopping
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusStopping:
		return "stopping"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Active reports whether the session holds a remote id.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusPaused
}
