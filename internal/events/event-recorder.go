// Recorder prints provisioning progress for the operator running the tool.

package recorder

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
)

const (
	EventTypeNormal  = "Normal"
	EventTypeWarning = "Warning"
)

type Recorder interface {
	Normal(reason, message string)
	Warning(reason, message string)
}

// New returns a Recorder writing one line per event to out and mirroring it to log.
func New(out io.Writer, log logr.Logger) Recorder {
	return &rec{out: out, log: log}
}

type rec struct {
	mu  sync.Mutex
	out io.Writer
	log logr.Logger
}

func (r *rec) Normal(reason, message string) {
	r.event(EventTypeNormal, reason, message)
}

func (r *rec) Warning(reason, message string) {
	r.event(EventTypeWarning, reason, message)
}

func (r *rec) event(eventType, reason, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if eventType == EventTypeWarning {
		fmt.Fprintf(r.out, "WARNING %s: %s\n", reason, message)
	} else {
		fmt.Fprintf(r.out, "%s\n", message)
	}
	r.log.V(1).Info(message, "type", eventType, "reason", reason)
}

// Event is a recorded event, kept by Memory.
type Event struct {
	Type    string
	Reason  string
	Message string
}

// Memory is a Recorder that keeps events in order.
type Memory struct {
	mu     sync.Mutex
	Events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Normal(reason, message string) {
	m.add(EventTypeNormal, reason, message)
}

func (m *Memory) Warning(reason, message string) {
	m.add(EventTypeWarning, reason, message)
}

func (m *Memory) add(eventType, reason, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, Event{Type: eventType, Reason: reason, Message: message})
}

// Reasons returns the recorded reasons in order.
func (m *Memory) Reasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	reasons := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		reasons = append(reasons, e.Reason)
	}
	return reasons
}
