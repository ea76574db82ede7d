package request

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/formreq/packages/files"
	"github.com/abdul-hamid-achik/formreq/packages/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPreDelay is the pause between Start and the request being issued
	DefaultPreDelay = time.Second
	// DefaultSuccessStatus is the only status code reported through OnSuccess
	DefaultSuccessStatus = http.StatusOK
	// ProgressTotal is the total passed to OnProgress
	ProgressTotal = 100.0
)

// Request is a single-use form request.
type Request struct {
	id            string
	method        Method
	url           string
	factory       transport.Factory
	resolver      files.Resolver
	baseLogger    logrus.FieldLogger
	log           logrus.FieldLogger
	preDelay      time.Duration
	successStatus int

	mu        sync.Mutex
	state     State
	stopped   bool
	finishing bool
	fields    Fields
	file      *FileField
	handlers  Handlers
	timer     *time.Timer
	tr        transport.Transport
	startedAt time.Time

	done     chan struct{}
	doneOnce sync.Once
}

// New builds a Request for method ("GET" or "POST") and url. The url is
// stored verbatim. Any other method yields a Request whose Start fails.
func New(method, url string, opts ...Option) *Request {
	r := &Request{
		method:        ParseMethod(method),
		url:           url,
		preDelay:      DefaultPreDelay,
		successStatus: DefaultSuccessStatus,
		state:         StateReady,
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.factory == nil {
		r.factory = transport.NewHTTPFactory()
	}
	if r.resolver == nil {
		r.resolver = files.NewRegistry()
	}
	if r.baseLogger == nil {
		r.baseLogger = logrus.StandardLogger()
	}
	r.log = r.baseLogger.WithFields(logrus.Fields{
		"request_id": r.id,
		"method":     r.method.String(),
		"url":        r.url,
	})

	return r
}

func (r *Request) ID() string     { return r.id }
func (r *Request) Method() Method { return r.method }
func (r *Request) URL() string    { return r.url }

// Fields returns a copy of the form fields in insertion order.
func (r *Request) Fields() Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(Fields, len(r.fields))
	copy(out, r.fields)
	return out
}

// File returns the attached file, or nil.
func (r *Request) File() *FileField {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	f := *r.file
	return &f
}

func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Request) IsInProgress() bool {
	return r.State() == StateInFlight
}

func (r *Request) IsFinished() bool {
	return r.State() == StateDone
}

// Done is closed once the Request is finished and its final handlers have returned.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the Request is finished or ctx ends.
func (r *Request) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueryString is the serialized form used for GET requests.
func (r *Request) QueryString() string {
	return r.Fields().QueryString()
}

// Body builds the multipart payload used for POST requests.
func (r *Request) Body() (*transport.Payload, error) {
	return BuildMultipartBody(r.Fields(), r.File())
}

// reject logs and returns a GuardError. Callers hold r.mu.
func (r *Request) reject(op string, err error) error {
	gerr := &GuardError{Op: op, State: r.state, Err: err}
	r.log.WithFields(logrus.Fields{"op": op, "state": r.state.String()}).Error(err.Error())
	return gerr
}

func (r *Request) AddField(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReady {
		return r.reject("AddField", ErrNotReady)
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
	return nil
}

// AttachFile attaches the first file selected in the file input inputID
// under fieldName. Only POST requests accept a file.
func (r *Request) AttachFile(fieldName, inputID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReady {
		return r.reject("AttachFile", ErrNotReady)
	}
	if r.method == MethodGet {
		return r.reject("AttachFile", ErrFileOnGet)
	}

	el, ok := r.resolver.Resolve(inputID)
	if !ok {
		return r.reject("AttachFile", ErrFileNotFound)
	}
	if !el.IsFileInput() {
		return r.reject("AttachFile", ErrNotFileInput)
	}
	selected := el.Files()
	if len(selected) == 0 {
		return r.reject("AttachFile", ErrNoFileSelected)
	}

	r.file = &FileField{Name: fieldName, File: selected[0]}
	return nil
}

func (r *Request) SetOnDone(fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReady {
		return r.reject("SetOnDone", ErrNotReady)
	}
	r.handlers.OnDone = fn
	return nil
}

func (r *Request) SetOnProgress(fn func(loaded, total float64)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReady {
		return r.reject("SetOnProgress", ErrNotReady)
	}
	r.handlers.OnProgress = fn
	return nil
}

func (r *Request) SetOnSuccess(fn func(raw string, parsed any)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReady {
		return r.reject("SetOnSuccess", ErrNotReady)
	}
	r.handlers.OnSuccess = fn
	return nil
}

func (r *Request) SetOnError(fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReady {
		return r.reject("SetOnError", ErrNotReady)
	}
	r.handlers.OnError = fn
	return nil
}

// Start reports progress (0, 100) right away and issues the request after
// the pre-delay.
func (r *Request) Start() error {
	r.mu.Lock()
	if r.state != StateReady {
		err := r.reject("Start", ErrNotReady)
		r.mu.Unlock()
		return err
	}
	if r.method == MethodNone {
		err := r.reject("Start", ErrNoMethod)
		r.mu.Unlock()
		return err
	}
	r.state, _ = r.state.next(eventStart)
	r.startedAt = time.Now()
	onProgress := r.handlers.OnProgress
	r.mu.Unlock()

	r.log.WithField("pre_delay", r.preDelay).Debug("request started")
	if onProgress != nil {
		onProgress(0, ProgressTotal)
	}

	r.mu.Lock()
	if r.state == StateInFlight {
		r.timer = time.AfterFunc(r.preDelay, r.issue)
	}
	r.mu.Unlock()
	return nil
}

// issue creates the transport, wires its signals and sends the request.
func (r *Request) issue() {
	r.mu.Lock()
	if r.state != StateInFlight || r.stopped || r.tr != nil {
		r.mu.Unlock()
		return
	}
	tr := r.factory.NewTransport()
	r.tr = tr
	r.timer = nil
	fields := make(Fields, len(r.fields))
	copy(fields, r.fields)
	var file *FileField
	if r.file != nil {
		f := *r.file
		file = &f
	}
	r.mu.Unlock()

	tr.OnReadyStateChange(func() { r.onReadyStateChange(tr) })
	tr.OnUploadProgress(r.onUploadProgress)

	target := r.url
	var body *transport.Payload
	switch r.method {
	case MethodGet:
		if len(fields) > 0 {
			target = r.url + "?" + fields.QueryString()
		}
	case MethodPost:
		payload, err := BuildMultipartBody(fields, file)
		if err != nil {
			r.fail(tr, err)
			return
		}
		body = payload
	}

	r.log.WithField("target", target).Debug("sending request")
	if err := tr.Open(r.method.String(), target); err != nil {
		r.fail(tr, err)
		return
	}

	// Stop between handing out the transport and here has already ended the
	// Request; nothing may reach the server after that.
	if r.isStopped() {
		return
	}
	if err := tr.Send(body); err != nil {
		r.fail(tr, err)
		return
	}

	if r.isStopped() && tr.ReadyState() != transport.Done {
		tr.Abort()
	}
}

func (r *Request) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// claim reserves the terminal sequence of an in-flight Request for
// transport tr and returns the handlers to run. It returns false when
// another path already took it.
func (r *Request) claim(tr transport.Transport) (Handlers, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tr != tr || r.state != StateInFlight || r.finishing {
		return Handlers{}, false
	}
	r.finishing = true
	return r.handlers, true
}

// complete moves the Request to Done once its terminal handlers have returned.
func (r *Request) complete() {
	r.mu.Lock()
	ev := eventComplete
	if r.stopped {
		ev = eventStop
	}
	if next, ok := r.state.next(ev); ok {
		r.state = next
	}
	r.mu.Unlock()
	r.finish()
}

func (r *Request) onReadyStateChange(tr transport.Transport) {
	if tr.ReadyState() != transport.Done {
		return
	}
	h, ok := r.claim(tr)
	if !ok {
		return
	}

	status := tr.Status()
	raw := tr.ResponseText()
	entry := r.log.WithFields(logrus.Fields{
		"status":   status,
		"duration": time.Since(r.startedAt),
	})

	if status != r.successStatus {
		if e, ok := tr.(interface{ Err() error }); ok && e.Err() != nil {
			entry = entry.WithError(e.Err())
		}
		if r.isStopped() {
			entry.Debug("request aborted")
		} else {
			entry.Warn("request failed")
		}
		if h.OnError != nil {
			h.OnError()
		}
	} else {
		parsed, err := parseBody(raw)
		if err != nil {
			entry.WithError(err).Debug("response body is not JSON")
		}
		entry.Debug("request succeeded")
		if h.OnSuccess != nil {
			h.OnSuccess(raw, parsed)
		}
	}

	if h.OnDone != nil {
		h.OnDone()
	}
	r.complete()
}

// fail ends the Request through the error sequence when it could not be
// issued at all, as if the transport had finished with status 0.
func (r *Request) fail(tr transport.Transport, err error) {
	h, ok := r.claim(tr)
	if !ok {
		return
	}
	r.log.WithError(err).Warn("request failed")
	if h.OnError != nil {
		h.OnError()
	}
	if h.OnDone != nil {
		h.OnDone()
	}
	r.complete()
}

func (r *Request) onUploadProgress(loaded, total int64) {
	if total <= 0 {
		return
	}
	r.mu.Lock()
	if r.state != StateInFlight || r.finishing || r.stopped {
		r.mu.Unlock()
		return
	}
	fn := r.handlers.OnProgress
	r.mu.Unlock()

	if fn != nil {
		fn(math.Round(float64(loaded)/float64(total)*100), ProgressTotal)
	}
}

// Stop cancels an in-flight Request. OnError is cleared first so the abort
// is not reported as a failure; the abort then ends the Request through
// OnDone. Stopped during the pre-delay, no handler runs at all.
func (r *Request) Stop() error {
	r.mu.Lock()
	if r.state != StateInFlight || r.finishing {
		err := r.reject("Stop", ErrNotInFlight)
		r.mu.Unlock()
		return err
	}
	r.handlers.OnError = nil
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	tr := r.tr
	if tr == nil {
		r.state, _ = r.state.next(eventStop)
		r.mu.Unlock()
		r.finish()
		r.log.Info("request stopped")
		return nil
	}
	r.mu.Unlock()

	r.log.Info("request stopped")
	if tr.ReadyState() != transport.Done {
		tr.Abort()
	}

	// Nothing ran the terminal sequence yet: the transport was never sent, so
	// the abort reported nothing, or it finished but its signal is still on
	// the way. Stop owns the sequence then.
	if h, ok := r.claim(tr); ok {
		if h.OnDone != nil {
			h.OnDone()
		}
		r.complete()
	}
	return nil
}

func (r *Request) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}

func parseBody(raw string) (any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// IsGuardError reports whether err is a rejection by a Request.
func IsGuardError(err error) bool {
	var gerr *GuardError
	return errors.As(err, &gerr)
}
