package request

// Handlers are the optional lifecycle callbacks. A nil handler is skipped.
type Handlers struct {
	OnDone func()
	// OnProgress receives a percentage as loaded and 100 as total.
	OnProgress func(loaded, total float64)
	// OnSuccess receives the raw body and its JSON decoding, or nil when the body is not JSON.
	OnSuccess func(raw string, parsed any)
	OnError   func()
}
