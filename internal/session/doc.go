// Package session owns one peer connection's lifecycle.
//
// Ownership boundary:
// - worker goroutine running the blocking read -> resolve -> invoke loop
// - graceful shutdown via EndSignal and self-initiated Close
// - live session set shared between the owner and terminating workers
// - thin accept/dial helpers producing connected sockets
//
// Close outcomes:
// - EndSignal received: OnNormalClose(reason), then RemoveSession
// - read/decode/dispatch failure: OnAbruptClose, then RemoveSession
// - failure while Close is in flight: suppressed, no hook
package session
