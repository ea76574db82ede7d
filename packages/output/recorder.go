package output

import (
	"sync"
	"time"

	"github.com/abdul-hamid-achik/formreq/packages/request"
)

// Recorder collects the events of one request and streams them to a Formatter.
type Recorder struct {
	formatter Formatter

	mu      sync.Mutex
	start   time.Time
	events  []Event
	outcome Outcome
	raw     string
	parsed  any
	isJSON  bool
}

// NewRecorder returns a Recorder. formatter may be nil.
func NewRecorder(formatter Formatter) *Recorder {
	return &Recorder{
		formatter: formatter,
		start:     time.Now(),
		outcome:   OutcomePending,
	}
}

func (r *Recorder) record(ev Event) {
	r.mu.Lock()
	ev.At = time.Since(r.start)
	r.events = append(r.events, ev)
	r.mu.Unlock()

	if r.formatter != nil {
		r.formatter.FormatEvent(ev)
	}
}

// Handlers returns request handlers that feed this Recorder.
func (r *Recorder) Handlers() request.Handlers {
	return request.Handlers{
		OnProgress: func(loaded, total float64) {
			r.record(Event{Type: EventProgress, Loaded: loaded, Total: total})
		},
		OnSuccess: func(raw string, parsed any) {
			r.mu.Lock()
			r.outcome = OutcomeSuccess
			r.raw = raw
			r.parsed = parsed
			r.isJSON = parsed != nil || raw == "null"
			r.mu.Unlock()
			r.record(Event{Type: EventSuccess})
		},
		OnError: func() {
			r.mu.Lock()
			r.outcome = OutcomeError
			r.mu.Unlock()
			r.record(Event{Type: EventError})
		},
		OnDone: func() {
			r.record(Event{Type: EventDone})
		},
	}
}

// MarkStopped records that the request was stopped before it finished.
func (r *Recorder) MarkStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome == OutcomePending {
		r.outcome = OutcomeStopped
	}
}

func (r *Recorder) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Result summarises req as seen by this Recorder.
func (r *Recorder) Result(req *request.Request) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return &Result{
		ID:       req.ID(),
		Method:   req.Method().String(),
		URL:      req.URL(),
		Outcome:  r.outcome,
		Duration: time.Since(r.start),
		Body:     r.raw,
		Parsed:   r.parsed,
		IsJSON:   r.isJSON,
		Events:   events,
	}
}
