// Package transport provides the native request transport formreq drives.
//
// Transport has the shape of a browser XMLHttpRequest: it is opened, sent
// once, may be aborted, and reports progress through two signals:
//   - a ready-state change, fired on every state transition
//   - an upload progress signal carrying (loaded, total) bytes
//
// HTTPTransport implements it over net/http with:
//   - Configurable timeouts
//   - Redirect handling
//   - Proxy and TLS verification settings
//   - Transparent gzip, deflate and brotli response decoding
package transport
