package request

import (
	"time"

	"github.com/abdul-hamid-achik/formreq/packages/files"
	"github.com/abdul-hamid-achik/formreq/packages/transport"
	"github.com/sirupsen/logrus"
)

type Option func(*Request)

// WithTransportFactory sets where the Request gets its transport from.
func WithTransportFactory(f transport.Factory) Option {
	return func(r *Request) {
		r.factory = f
	}
}

// WithFileResolver sets the resolver AttachFile looks ids up in.
func WithFileResolver(res files.Resolver) Option {
	return func(r *Request) {
		r.resolver = res
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Request) {
		r.baseLogger = l
	}
}

// WithPreDelay sets the pause between Start and the request being issued.
func WithPreDelay(d time.Duration) Option {
	return func(r *Request) {
		if d < 0 {
			d = 0
		}
		r.preDelay = d
	}
}

// WithHandlers sets all handlers at once.
func WithHandlers(h Handlers) Option {
	return func(r *Request) {
		r.handlers = h
	}
}

// WithSuccessStatus sets the one status code treated as success.
func WithSuccessStatus(code int) Option {
	return func(r *Request) {
		r.successStatus = code
	}
}

func WithID(id string) Option {
	return func(r *Request) {
		r.id = id
	}
}
