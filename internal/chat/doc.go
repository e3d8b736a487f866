// Package chat is a peer-to-peer chat console built on app, command and
// session: every connected peer is one session, and operator commands
// broadcast to all of them.
package chat
