package output

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	ID          string      `json:"id"`
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	Outcome     Outcome     `json:"outcome"`
	Duration    float64     `json:"duration"`
	Time        string      `json:"time"`
	Body        string      `json:"body,omitempty"`
	Parsed      any         `json:"parsed,omitempty"`
	Selected    *JSONSelect `json:"selected,omitempty"`
	SchemaError string      `json:"schemaError,omitempty"`
	Events      []JSONEvent `json:"events"`
	Error       string      `json:"error,omitempty"`
}

// JSONSelect is the value picked out of the body with a path
type JSONSelect struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// JSONEvent is one lifecycle event
type JSONEvent struct {
	Type   EventType `json:"type"`
	At     float64   `json:"at"`
	Loaded float64   `json:"loaded,omitempty"`
	Total  float64   `json:"total,omitempty"`
}

// JSONFormatter writes one JSON document per request
type JSONFormatter struct {
	writer io.Writer
	err    error
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

func (f *JSONFormatter) FormatStart(method, url string) {}

func (f *JSONFormatter) FormatEvent(ev Event) {
	// Events are written with the result
}

func (f *JSONFormatter) FormatResult(res *Result) {
	out := JSONOutput{
		ID:       res.ID,
		Method:   res.Method,
		URL:      res.URL,
		Outcome:  res.Outcome,
		Duration: float64(res.Duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
		Body:     res.Body,
		Parsed:   res.Parsed,
		Events:   make([]JSONEvent, len(res.Events)),
	}
	for i, ev := range res.Events {
		out.Events[i] = JSONEvent{
			Type:   ev.Type,
			At:     float64(ev.At.Milliseconds()),
			Loaded: ev.Loaded,
			Total:  ev.Total,
		}
	}
	if res.SelectPath != "" {
		out.Selected = &JSONSelect{Path: res.SelectPath, Value: res.Selected}
	}
	if res.SchemaError != nil {
		out.SchemaError = res.SchemaError.Error()
	}
	if f.err != nil {
		out.Error = f.err.Error()
		f.err = nil
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(out)
}

// FormatError keeps err for the next result document, or writes it alone when there is none.
func (f *JSONFormatter) FormatError(err error) {
	f.err = err
}

// Flush writes a pending error that no result picked up
func (f *JSONFormatter) Flush() error {
	if f.err == nil {
		return nil
	}
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(map[string]string{"error": f.err.Error()})
	f.err = nil
	return err
}
