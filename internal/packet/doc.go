// Package packet owns peer packet shapes, their per-connection dispatch
// catalog and the framed CBOR stream they travel over.
//
// Every packet kind has exactly one handler per connection type. The
// reserved EndSignal kind is bound by the framework on every catalog.
package packet
