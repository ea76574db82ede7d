package output

import (
	"fmt"
	"io"
	"time"
)

type EventType string

const (
	EventProgress EventType = "progress"
	EventSuccess  EventType = "success"
	EventError    EventType = "error"
	EventDone     EventType = "done"
)

// Event is one handler invocation.
type Event struct {
	Type   EventType     `json:"type"`
	At     time.Duration `json:"-"`
	Loaded float64       `json:"loaded,omitempty"`
	Total  float64       `json:"total,omitempty"`
}

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeStopped Outcome = "stopped"
)

// Result is everything known about a finished request.
type Result struct {
	ID          string
	Method      string
	URL         string
	Outcome     Outcome
	Duration    time.Duration
	Body        string
	Parsed      any
	IsJSON      bool
	SelectPath  string
	Selected    string
	SchemaError error
	Events      []Event
}

// Formatter renders a request's lifecycle.
type Formatter interface {
	FormatHeader(version string)
	FormatStart(method, url string)
	FormatEvent(ev Event)
	FormatResult(res *Result)
	FormatError(err error)
}

// New returns the formatter called name.
func New(name string, w io.Writer, noColor bool) (Formatter, error) {
	switch name {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}
