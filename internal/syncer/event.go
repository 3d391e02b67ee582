package syncer

// EventKind identifies a progress notification.
type EventKind int

const (
	EventKnown EventKind = iota + 1
	EventMissing
	EventAttempt
	EventRetrieved
	EventFallback
	EventAttemptFailed
	EventCovered
	EventFailed
)

// Event is a progress notification emitted while a run is in flight.
type Event struct {
	Kind    EventKind
	File    string
	Archive string
	URL     string
	Source  Source
	Attempt int
	Bytes   int64
	Err     error
	// Count carries the size of the known or missing set.
	Count int
	Names []string
}

// Observer receives progress notifications synchronously.
type Observer func(Event)
