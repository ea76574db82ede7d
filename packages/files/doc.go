// Package files models the host's file references for formreq.
//
// A Resolver looks up elements by id the way a page looks up form inputs.
// Only file-input elements can contribute a file to a request:
//   - Registry is an in-memory, concurrency-safe Resolver
//   - FileInput holds the files a user selected
//   - OSFile and MemFile are the files themselves
package files
