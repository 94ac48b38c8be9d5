// Package audit dispatches session and payment-flow events asynchronously.
//
// # Components
//
//   - [Sink]: event consumer interface (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: buffered relay with drop-if-full or block-if-full semantics.
//   - [Event]: record with timestamp, type, user, request id, outcome kind, metadata.
//
// The package owns buffering and delivery only. Which events are emitted is
// decided by the engine. Events never carry tokens, client secrets or card data.
package audit
