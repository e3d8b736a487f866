// Package app runs the operator console loop on top of a command catalog
// and owns the application's live sessions.
//
// Ownership boundary:
// - console read loop, operator output
// - exit path: bulk session shutdown, then the after-exit hook
// - session hooks adapter and session set
package app
