// Package body exposes HTTP response bodies as a sequence of parts.
//
// # Buffers
//
// A [Buffer] is a readable byte range with a reader index. Buffers handed
// to callbacks belong to the transport: they are only valid until the
// callback returns and may be recycled afterwards. Use [AcquireBuffer] and
// [ReleaseBuffer] to draw them from a shared pool.
//
// # Parts
//
// A [Part] wraps one buffer as delivered by the transport. It offers two
// views of the same bytes:
//
//	n, err := part.WriteTo(w) // stream without copying
//	b := part.Bytes()         // owned copy, materialized at most once
//
// Both views leave the buffer's reader index untouched, so they can be
// combined in any order within one callback. Callers that need the bytes
// after the callback returns must call [Part.Bytes] before returning.
package body
