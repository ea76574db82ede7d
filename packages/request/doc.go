// Package request implements formreq's single-use form request.
//
// A Request is built for one GET or POST, collects ordered form fields and
// an optional file, and reports its lifecycle through optional handlers:
//   - OnProgress(loaded, total), first with (0, 100) when started
//   - OnSuccess(raw, parsed) or OnError, at most once
//   - OnDone, after either of them
//
// The Request never performs I/O itself. It drives a transport.Transport
// obtained from a transport.Factory and resolves attached files through a
// files.Resolver; both default to the net/http transport and an empty
// registry.
//
// Stop clears OnError and aborts the transport, so a stopped Request ends
// with OnDone alone; stopped before the pre-delay elapsed, it ends silently.
//
// A Request moves Ready -> InFlight -> Done and never goes back. It stays
// InFlight while its terminal handlers run and becomes Done after OnDone
// returns. Every operation called in the wrong state is rejected with a
// *GuardError and logged; nothing panics.
package request
