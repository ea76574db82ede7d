package request

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/formreq/packages/transport"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeTransport behaves like an XMLHttpRequest the test drives by hand.
type fakeTransport struct {
	mu        sync.Mutex
	state     transport.ReadyState
	method    string
	url       string
	body      []byte
	bodyType  string
	hasBody   bool
	status    int
	response  string
	aborted   int
	openErr   error
	afterOpen func()
	// silentAbort makes Abort report nothing, like an XHR that was never sent
	silentAbort bool
	onReady     func()
	onProgress  func(loaded, total int64)
	sent        chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(chan struct{})}
}

func (f *fakeTransport) Open(method, url string) error {
	f.mu.Lock()
	if f.openErr != nil {
		f.mu.Unlock()
		return f.openErr
	}
	f.method = method
	f.url = url
	f.state = transport.Opened
	fn := f.onReady
	after := f.afterOpen
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
	if after != nil {
		after()
	}
	return nil
}

func (f *fakeTransport) Send(body *transport.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if body != nil {
		data, err := io.ReadAll(body.Reader)
		if err != nil {
			return err
		}
		f.body = data
		f.bodyType = body.ContentType
		f.hasBody = true
	}
	close(f.sent)
	return nil
}

func (f *fakeTransport) Abort() {
	f.mu.Lock()
	f.aborted++
	if f.silentAbort || f.state == transport.Done || f.state == transport.Unsent {
		f.mu.Unlock()
		return
	}
	f.state = transport.Done
	f.status = 0
	fn := f.onReady
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
	f.mu.Lock()
	f.state = transport.Unsent
	f.mu.Unlock()
}

// respond finishes the exchange with status and body.
func (f *fakeTransport) respond(status int, body string) {
	f.mu.Lock()
	f.state = transport.Done
	f.status = status
	f.response = body
	fn := f.onReady
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *fakeTransport) progress(loaded, total int64) {
	f.mu.Lock()
	fn := f.onProgress
	f.mu.Unlock()
	if fn != nil {
		fn(loaded, total)
	}
}

func (f *fakeTransport) abortCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}

func (f *fakeTransport) ReadyState() transport.ReadyState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeTransport) Status() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeTransport) ResponseText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.response
}

func (f *fakeTransport) OnReadyStateChange(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onReady = fn
}

func (f *fakeTransport) OnUploadProgress(fn func(loaded, total int64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onProgress = fn
}

type fakeFactory struct {
	created     chan *fakeTransport
	openErr     error
	afterOpen   func()
	silentAbort bool
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{created: make(chan *fakeTransport, 4)}
}

func (f *fakeFactory) NewTransport() transport.Transport {
	tr := newFakeTransport()
	tr.openErr = f.openErr
	tr.afterOpen = f.afterOpen
	tr.silentAbort = f.silentAbort
	f.created <- tr
	return tr
}

// awaitCreated waits for the Request to create its transport.
func (f *fakeFactory) awaitCreated(t *testing.T) *fakeTransport {
	t.Helper()
	select {
	case tr := <-f.created:
		return tr
	case <-time.After(2 * time.Second):
		t.Fatal("no transport was created")
	}
	return nil
}

func (f *fakeTransport) wasSent() bool {
	select {
	case <-f.sent:
		return true
	default:
		return false
	}
}

// awaitSent waits for the Request to create its transport and send it.
func (f *fakeFactory) awaitSent(t *testing.T) *fakeTransport {
	t.Helper()
	var tr *fakeTransport
	select {
	case tr = <-f.created:
	case <-time.After(2 * time.Second):
		t.Fatal("no transport was created")
	}
	select {
	case <-tr.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("transport was never sent")
	}
	return tr
}

// recorder collects handler invocations in order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	progress [][2]float64
	raw      string
	parsed   any
}

func (rec *recorder) add(ev string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.events = append(rec.events, ev)
}

func (rec *recorder) handlers() Handlers {
	return Handlers{
		OnDone: func() { rec.add("done") },
		OnProgress: func(loaded, total float64) {
			rec.mu.Lock()
			rec.progress = append(rec.progress, [2]float64{loaded, total})
			rec.mu.Unlock()
			rec.add("progress")
		},
		OnSuccess: func(raw string, parsed any) {
			rec.mu.Lock()
			rec.raw = raw
			rec.parsed = parsed
			rec.mu.Unlock()
			rec.add("success")
		},
		OnError: func() { rec.add("error") },
	}
}

func (rec *recorder) snapshot() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]string, len(rec.events))
	copy(out, rec.events)
	return out
}

type fixture struct {
	req     *Request
	factory *fakeFactory
	rec     *recorder
	hook    *test.Hook
}

func newFixture(t *testing.T, method, url string, opts ...Option) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	fx := &fixture{factory: newFakeFactory(), rec: &recorder{}, hook: hook}
	base := []Option{
		WithTransportFactory(fx.factory),
		WithLogger(logger),
		WithPreDelay(0),
		WithHandlers(fx.rec.handlers()),
	}
	fx.req = New(method, url, append(base, opts...)...)
	return fx
}

func (fx *fixture) wait(t *testing.T) {
	t.Helper()
	select {
	case <-fx.req.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("request never finished")
	}
}

func (fx *fixture) hasLog(level logrus.Level, msgPart string) bool {
	for _, e := range fx.hook.AllEntries() {
		if e.Level == level && strings.Contains(e.Message, msgPart) {
			return true
		}
	}
	return false
}

func newNullLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}
