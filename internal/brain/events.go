package brain

import (
	"sync"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// EventStatus is the lifecycle point a stage event reports
type EventStatus string

const (
	EventStarted   EventStatus = "started"
	EventCompleted EventStatus = "completed"
	EventFailed    EventStatus = "failed"
	EventFinished  EventStatus = "finished" // whole run done
)

// Event is published for every stage transition of a run
type Event struct {
	RunID   string                    `json:"run_id"`
	Stage   contracts.Stage           `json:"stage,omitempty"`
	Status  EventStatus               `json:"status"`
	Message string                    `json:"message,omitempty"`
	Result  *contracts.PipelineResult `json:"result,omitempty"`
	Time    time.Time                 `json:"time"`
}

// EventSink receives run events; implementations must not block for long
type EventSink interface {
	Publish(Event)
}

// EventLog is an in-memory EventSink keeping the most recent events
type EventLog struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewEventLog keeps at most limit events
func NewEventLog(limit int) *EventLog {
	return &EventLog{limit: limit}
}

// Publish appends e, dropping the oldest event when full
func (l *EventLog) Publish(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, e)
	if l.limit > 0 && len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
}

// Events returns a copy of the retained events
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// MultiSink fans events out to several sinks
type MultiSink []EventSink

// Publish forwards e to every non-nil sink
func (m MultiSink) Publish(e Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(e)
		}
	}
}
