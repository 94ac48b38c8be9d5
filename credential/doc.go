// Package credential persists the single active session token of an
// installation.
//
// # Binary encoding
//
// The token is stored as a small versioned record (format v1: version byte,
// big-endian uint16 length, token bytes, big-endian int64 saved-at unix time).
// Decoding rejects unknown versions and trailing bytes; a record that fails
// to decode is reported as [ErrCorrupt] so the caller can discard it.
//
// # Architecture boundaries
//
// This package owns the record format and the storage key. It does NOT
// validate tokens against the Account Service or decide what a rejected token
// means. That belongs to the Engine.
package credential
