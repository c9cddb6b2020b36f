// Package store provides the shared key/value storage that holds an admin
// session, and change notifications when another process mutates it.
//
// Every [Store] handle has an origin ID. Like browser storage events, a
// subscription only reports changes made through other handles: a console
// process never hears about its own writes.
//
// # Backends
//
//   - [MemoryStore]: handles opened on a shared [Area]; tests and embedding.
//   - [FileStore]: a JSON file shared by console processes, watched with fsnotify.
//   - [RedisStore]: a Redis hash with a pub/sub change channel.
//
// # Layout
//
// The session occupies four keys ([KeyToken], [KeyUsername], [KeyRoles],
// [KeyPermissions]). They are written together on login and removed together
// on logout; see [SaveSession] and [ClearSession].
//
// # What this package must NOT do
//
//   - Decode tokens or interpret permission data.
//   - Decide whether a session is authenticated.
package store
