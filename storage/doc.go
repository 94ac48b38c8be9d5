// Package storage provides the durable key/value slot the client core persists
// its state into: the session credential, the device fingerprint, and whatever
// the payment processor integration caches under its own namespace.
//
// # Backends
//
//   - [MemoryStore]: process-local, for tests and ephemeral installs.
//   - [FileStore]: one CBOR-encoded file per installation, rewritten atomically.
//   - [RedisStore]: a shared Redis keyspace, for server-side evaluation contexts
//     that still need a per-installation slot.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT interpret values, decide
// what a missing key means, or know which keys belong to which component.
// Callers pass fully-qualified keys and namespace prefixes.
//
// # What this package must NOT do
//
//   - Import goSession or any sibling package.
//   - Log stored values.
package storage
