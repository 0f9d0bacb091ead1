package discovery

import "time"

// EventType names a scan lifecycle event
type EventType string

const (
	EventScanStarted   EventType = "scan_started"
	EventTableScanned  EventType = "table_scanned"
	EventScanCompleted EventType = "scan_completed"
	EventScanFailed    EventType = "scan_failed"
)

// Event describes progress of one scan. Fields that do not apply to the
// event type are left zero.
type Event struct {
	Type      EventType     `json:"type"`
	ScanID    string        `json:"scan_id"`
	ClientID  string        `json:"client_id,omitempty"`
	Dialect   string        `json:"dialect,omitempty"`
	Table     string        `json:"table,omitempty"`
	Index     int           `json:"index,omitempty"`
	Total     int           `json:"total,omitempty"`
	Matches   int           `json:"matches,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Notifier receives scan events. Implementations must not block for long;
// they are called on the scanning goroutines.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Event)

// Notify calls f(event)
func (f NotifierFunc) Notify(event Event) {
	f(event)
}
