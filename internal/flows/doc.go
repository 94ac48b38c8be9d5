// Package flows holds the session and payment-setup flows the root engine
// delegates to.
//
// Each flow is a pure function over an explicit dependency struct: it talks
// to the Account Service, the processor or storage, and returns a classified
// result. Flows never touch engine state; the engine applies results under
// its own lock and generation checks.
package flows
