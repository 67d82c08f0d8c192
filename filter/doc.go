// Package filter defines the hooks a client runs around every exchange.
//
// Request filters run before a request is sent, response filters run
// once the status line and headers arrived, and I/O exception filters
// run when the transport fails. Each chain runs in the order filters
// were added; the first error stops the chain.
//
// A response or I/O exception filter may ask for the request to be
// replayed by returning a [Context] with Replay set.
package filter
