// Package fingerprint derives the per-installation device signal attached to
// login attempts as a fraud-detection input.
//
// The value is "fp-<hash>-<random>": a 32-bit rolling hash of low-entropy
// environment characteristics rendered in base36, plus a random base36 suffix.
// It is computed once, persisted, and returned unchanged for the lifetime of
// the installation. It is a best-effort signal, not a cryptographic identity.
package fingerprint
