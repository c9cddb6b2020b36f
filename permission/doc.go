// Package permission provides the typed containers for the credentials stored
// with an admin session: an unordered [Set] of permission codes, an ordered
// [Roles] sequence, their versioned text serialization, and a [Registry] of the
// permission codes the application knows about.
//
// # Serialization
//
// Stored values are JSON. Two layouts are accepted on decode:
//
//	["READ_USER","MANAGE_ROLE"]                    legacy (version 0), bare array
//	{"v":1,"items":["READ_USER","MANAGE_ROLE"]}    version 1 envelope
//
// Encode always writes the newest layout. A JSON null decodes to an empty
// container.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O.
//
// # What this package must NOT do
//
//   - Access storage, the network, or the clock.
//   - Import adminguard, store, or navigation.
package permission
