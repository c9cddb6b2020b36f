// Package audit implements async event dispatching for session guard operations.
//
// # Components
//
//   - [Sink] is the interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher] is a buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event] is the structured audit record: timestamp, type, username, origin, path, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does not decide which events
// to emit; that belongs to the Engine.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import adminguard or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
