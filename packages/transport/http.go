package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
	// DefaultProgressInterval is the minimum gap between two upload progress signals
	DefaultProgressInterval = 50 * time.Millisecond
)

var (
	ErrNotOpened   = errors.New("transport is not opened")
	ErrAlreadySent = errors.New("transport has already been sent")
	ErrAborted     = errors.New("request aborted")
)

// HTTPFactory builds HTTPTransports that share one http.Client.
type HTTPFactory struct {
	httpClient       *http.Client
	timeout          time.Duration
	followRedirect   bool
	maxRedirects     int
	validateSSL      bool
	proxyURL         string
	compress         bool
	progressInterval time.Duration
	defaultHeaders   map[string]string
}

type Option func(*HTTPFactory)

func NewHTTPFactory(opts ...Option) *HTTPFactory {
	f := &HTTPFactory{
		timeout:          DefaultTimeout,
		followRedirect:   true,
		maxRedirects:     DefaultMaxRedirects,
		validateSSL:      true,
		compress:         true,
		progressInterval: DefaultProgressInterval,
		defaultHeaders:   make(map[string]string),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.httpClient != nil {
		return f
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !f.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if f.proxyURL != "" {
		proxyURL, err := neturl.Parse(f.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !f.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= f.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	f.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       f.timeout,
		CheckRedirect: redirectPolicy,
	}

	return f
}

func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFactory) {
		f.timeout = d
	}
}

func WithFollowRedirects(follow bool) Option {
	return func(f *HTTPFactory) {
		f.followRedirect = follow
	}
}

func WithMaxRedirects(max int) Option {
	return func(f *HTTPFactory) {
		f.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(f *HTTPFactory) {
		f.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) Option {
	return func(f *HTTPFactory) {
		for k, v := range headers {
			f.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) Option {
	return func(f *HTTPFactory) {
		f.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) Option {
	return func(f *HTTPFactory) {
		f.proxyURL = proxyURL
	}
}

// WithCompression controls whether gzip, deflate and br responses are requested and decoded.
func WithCompression(compress bool) Option {
	return func(f *HTTPFactory) {
		f.compress = compress
	}
}

// WithProgressInterval throttles upload progress signals. Zero reports every read.
func WithProgressInterval(d time.Duration) Option {
	return func(f *HTTPFactory) {
		f.progressInterval = d
	}
}

// WithHTTPClient uses client as is; timeout, redirect, proxy and TLS options are ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFactory) {
		f.httpClient = client
	}
}

func (f *HTTPFactory) NewTransport() Transport {
	return f.New()
}

func (f *HTTPFactory) New() *HTTPTransport {
	return &HTTPTransport{factory: f}
}

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	factory *HTTPFactory

	mu         sync.Mutex
	state      ReadyState
	method     string
	url        string
	sent       bool
	generation uint64
	cancel     context.CancelFunc

	status     int
	statusText string
	header     http.Header
	body       []byte
	err        error

	onReadyStateChange func()
	onUploadProgress   func(loaded, total int64)
}

func (t *HTTPTransport) OnReadyStateChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReadyStateChange = fn
}

func (t *HTTPTransport) OnUploadProgress(fn func(loaded, total int64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUploadProgress = fn
}

func (t *HTTPTransport) Open(method, url string) error {
	if method == "" {
		return fmt.Errorf("method must not be empty")
	}
	if err := ValidateURL(url); err != nil {
		return err
	}

	t.mu.Lock()
	if t.sent && t.state != Done {
		t.mu.Unlock()
		return ErrAlreadySent
	}
	t.method = strings.ToUpper(method)
	t.url = url
	t.sent = false
	t.status = 0
	t.statusText = ""
	t.header = nil
	t.body = nil
	t.err = nil
	t.mu.Unlock()

	t.transition(t.currentGeneration(), Opened)
	return nil
}

func (t *HTTPTransport) Send(body *Payload) error {
	t.mu.Lock()
	if t.state != Opened {
		t.mu.Unlock()
		return ErrNotOpened
	}
	if t.sent {
		t.mu.Unlock()
		return ErrAlreadySent
	}
	t.sent = true
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	gen := t.generation
	method, url := t.method, t.url
	t.mu.Unlock()

	var reader io.Reader
	size := int64(-1)
	contentType := ""
	if body != nil && body.Reader != nil {
		size = body.Size
		contentType = body.ContentType
		reader = newProgressReader(body.Reader, size, t.factory.progressInterval, func(loaded, total int64) {
			t.emitProgress(gen, loaded, total)
		})
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		cancel()
		t.complete(gen, nil, nil, err)
		return nil
	}
	if reader != nil && size >= 0 {
		req.ContentLength = size
	}

	req.Header.Set("Accept", "*/*")
	if t.factory.compress {
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	}
	for k, v := range t.factory.defaultHeaders {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	go t.run(ctx, cancel, gen, req)
	return nil
}

func (t *HTTPTransport) run(ctx context.Context, cancel context.CancelFunc, gen uint64, req *http.Request) {
	defer cancel()

	resp, err := t.factory.httpClient.Do(req)
	if err != nil {
		t.complete(gen, nil, nil, err)
		return
	}
	defer resp.Body.Close()

	t.mu.Lock()
	if gen == t.generation {
		t.status = resp.StatusCode
		t.statusText = resp.Status
		t.header = resp.Header.Clone()
	}
	t.mu.Unlock()
	t.transition(gen, HeadersReceived)
	t.transition(gen, Loading)

	body, err := decodeBody(resp)
	if ctx.Err() != nil {
		return
	}
	t.complete(gen, resp, body, err)
}

// complete records the outcome of generation gen and fires the final ready-state change.
func (t *HTTPTransport) complete(gen uint64, resp *http.Response, body []byte, err error) {
	t.mu.Lock()
	if gen != t.generation || t.state == Done {
		t.mu.Unlock()
		return
	}
	if err != nil {
		t.status = 0
		t.statusText = ""
		t.err = err
	} else if resp != nil {
		t.body = body
	}
	t.mu.Unlock()

	t.transition(gen, Done)
}

func (t *HTTPTransport) transition(gen uint64, state ReadyState) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.state = state
	fn := t.onReadyStateChange
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (t *HTTPTransport) emitProgress(gen uint64, loaded, total int64) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}
	fn := t.onUploadProgress
	t.mu.Unlock()

	if fn != nil {
		fn(loaded, total)
	}
}

func (t *HTTPTransport) currentGeneration() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Abort cancels a sent request. Like XMLHttpRequest it reports Done with status 0
// and then resets to Unsent without a further signal.
func (t *HTTPTransport) Abort() {
	t.mu.Lock()
	if !t.sent || t.state == Done {
		if t.state == Opened {
			t.state = Unsent
		}
		t.mu.Unlock()
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.generation++
	gen := t.generation
	t.status = 0
	t.statusText = ""
	t.header = nil
	t.body = nil
	t.err = ErrAborted
	t.mu.Unlock()

	t.transition(gen, Done)

	t.mu.Lock()
	t.state = Unsent
	t.sent = false
	t.mu.Unlock()
}

func (t *HTTPTransport) ReadyState() ReadyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *HTTPTransport) Status() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *HTTPTransport) StatusText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusText
}

func (t *HTTPTransport) ResponseText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.body)
}

// ResponseHeader returns the first value of the response header key.
func (t *HTTPTransport) ResponseHeader(key string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.header == nil {
		return ""
	}
	return t.header.Get(key)
}

// Err is the network error that ended the exchange, if any.
func (t *HTTPTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
