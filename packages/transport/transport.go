package transport

import (
	"io"
)

// ReadyState mirrors the XMLHttpRequest readyState values.
type ReadyState int

const (
	Unsent ReadyState = iota
	Opened
	HeadersReceived
	Loading
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "UNSENT"
	case Opened:
		return "OPENED"
	case HeadersReceived:
		return "HEADERS_RECEIVED"
	case Loading:
		return "LOADING"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Payload is a request body together with its content type. Size is -1 when unknown.
type Payload struct {
	Reader      io.Reader
	ContentType string
	Size        int64
}

// Transport performs exactly one HTTP exchange.
type Transport interface {
	// Open sets the method and target. It must be called before Send.
	Open(method, url string) error
	// Send issues the request asynchronously. body may be nil.
	Send(body *Payload) error
	// Abort cancels an in-progress exchange.
	Abort()

	ReadyState() ReadyState
	// Status is the response status code, or 0 when no response was received.
	Status() int
	ResponseText() string

	OnReadyStateChange(fn func())
	OnUploadProgress(fn func(loaded, total int64))
}

// Factory creates fresh transports, one per request.
type Factory interface {
	NewTransport() Transport
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func() Transport

func (f FactoryFunc) NewTransport() Transport {
	return f()
}
