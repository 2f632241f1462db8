package stream

// State of a Reader loop.
type State int

const (
	// Idle means no loop has been started yet.
	Idle State = iota
	// Reading means a loop is running and at most one read is pending.
	Reading
	// Done means the source reported the end of the stream.
	Done
	// Failed means the loop stopped on a timeout or a transport error. The
	// source was canceled before the state was entered.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}
