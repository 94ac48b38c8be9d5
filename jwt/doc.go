// Package jwt peeks at the claims of session tokens the Account Service issues.
//
// The client never holds the service's verification key, so nothing here
// establishes trust: the service remains the only authority on whether a
// token is valid. Inspection only feeds diagnostics such as the expiry shown
// in a session snapshot. Opaque (non-JWT) tokens are reported as such.
package jwt
