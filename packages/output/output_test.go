package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/formreq/packages/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Success(t *testing.T) {
	rec := NewRecorder(nil)
	h := rec.Handlers()

	h.OnProgress(0, 100)
	h.OnProgress(50, 100)
	h.OnSuccess(`{"a": 1}`, map[string]any{"a": float64(1)})
	h.OnDone()

	assert.Equal(t, OutcomeSuccess, rec.Outcome())
	events := rec.Events()
	require.Len(t, events, 4)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Equal(t, float64(50), events[1].Loaded)
	assert.Equal(t, EventSuccess, events[2].Type)
	assert.Equal(t, EventDone, events[3].Type)

	req := request.New("GET", "http://example.com", request.WithID("r1"))
	res := rec.Result(req)
	assert.Equal(t, "r1", res.ID)
	assert.Equal(t, "GET", res.Method)
	assert.Equal(t, `{"a": 1}`, res.Body)
	assert.True(t, res.IsJSON)
}

func TestRecorder_ErrorAndStopped(t *testing.T) {
	rec := NewRecorder(nil)
	h := rec.Handlers()
	h.OnError()
	h.OnDone()
	rec.MarkStopped()
	assert.Equal(t, OutcomeError, rec.Outcome())

	stopped := NewRecorder(nil)
	stopped.Handlers().OnProgress(0, 100)
	stopped.MarkStopped()
	assert.Equal(t, OutcomeStopped, stopped.Outcome())
}

func TestRecorder_NonJSONSuccess(t *testing.T) {
	rec := NewRecorder(nil)
	rec.Handlers().OnSuccess("hello", nil)

	res := rec.Result(request.New("POST", "http://example.com"))
	assert.False(t, res.IsJSON)
	assert.Nil(t, res.Parsed)
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	rec := NewRecorder(f)
	h := rec.Handlers()

	f.FormatStart("POST", "http://example.com/upload")
	h.OnProgress(0, 100)
	h.OnProgress(50, 100)
	h.OnSuccess(`{"id": 3}`, map[string]any{"id": float64(3)})
	h.OnDone()
	f.FormatResult(rec.Result(request.New("POST", "http://example.com/upload")))

	out := buf.String()
	assert.Contains(t, out, "POST http://example.com/upload")
	assert.Contains(t, out, "[....................]   0%")
	assert.Contains(t, out, "[##########..........]  50%")
	assert.Contains(t, out, "✓ success")
	assert.Contains(t, out, "Result: success")
	assert.Contains(t, out, `Body (json):`)
	assert.Contains(t, out, `{"id": 3}`)
}

func TestConsoleFormatter_SelectedAndSchema(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(&Result{
		Outcome:     OutcomeSuccess,
		Body:        `{"id": 3}`,
		SelectPath:  "id",
		Selected:    "3",
		SchemaError: errors.New("schema validation failed: id is required"),
	})

	out := buf.String()
	assert.Contains(t, out, "id = 3")
	assert.NotContains(t, out, "Body")
	assert.Contains(t, out, "Schema: schema validation failed")
}

func TestConsoleFormatter_ErrorAndStopped(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatEvent(Event{Type: EventError})
	f.FormatEvent(Event{Type: EventDone, At: 12 * time.Millisecond})
	f.FormatResult(&Result{Outcome: OutcomeError, Body: "should not print", ID: "abc"})
	f.FormatResult(&Result{Outcome: OutcomeStopped})
	f.FormatError(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "✗ error")
	assert.Contains(t, out, "done (12ms)")
	assert.Contains(t, out, "Result: error")
	assert.Contains(t, out, "Request: abc")
	assert.NotContains(t, out, "should not print")
	assert.Contains(t, out, "Result: stopped")
	assert.Contains(t, out, "Error: boom")
}

func TestConsoleFormatter_TruncatesBody(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithMaxBody(5))
	f.FormatResult(&Result{Outcome: OutcomeSuccess, Body: "abcdefghij"})
	assert.Contains(t, buf.String(), "abcde...")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatError(errors.New("late"))
	f.FormatResult(&Result{
		ID:         "r1",
		Method:     "GET",
		URL:        "http://example.com",
		Outcome:    OutcomeSuccess,
		Duration:   1500 * time.Millisecond,
		Body:       `{"n": 1}`,
		Parsed:     map[string]any{"n": float64(1)},
		SelectPath: "n",
		Selected:   "1",
		Events: []Event{
			{Type: EventProgress, Total: 100},
			{Type: EventSuccess, At: 10 * time.Millisecond},
			{Type: EventDone, At: 11 * time.Millisecond},
		},
	})

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "r1", out.ID)
	assert.Equal(t, OutcomeSuccess, out.Outcome)
	assert.Equal(t, float64(1500), out.Duration)
	assert.Equal(t, map[string]any{"n": float64(1)}, out.Parsed)
	require.NotNil(t, out.Selected)
	assert.Equal(t, "1", out.Selected.Value)
	require.Len(t, out.Events, 3)
	assert.Equal(t, EventSuccess, out.Events[1].Type)
	assert.Equal(t, float64(10), out.Events[1].At)
	assert.Equal(t, "late", out.Error)

	assert.NoError(t, f.Flush())
}

func TestJSONFormatter_FlushPendingError(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatError(errors.New("config broken"))
	require.NoError(t, f.Flush())

	var out map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "config broken", out["error"])
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("json", &buf, true)
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	f, err = New("", &buf, true)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleFormatter{}, f)

	_, err = New("xml", &buf, true)
	assert.Error(t, err)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[....................]", progressBar(0, 100))
	assert.Equal(t, "[####################]", progressBar(100, 100))
	assert.Equal(t, "[#####...............]", progressBar(25, 100))
	assert.Equal(t, "[....................]", progressBar(5, 0))
}
