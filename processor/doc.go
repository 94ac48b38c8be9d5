// Package processor is the boundary to the card payment processor.
//
// The core never stores or logs raw card data: [Card] renders as redacted in
// both fmt and slog output, and only the processor-issued payment method id
// leaves a confirmation. [HTTPClient] confirms setup intents against a
// Stripe-compatible REST API with the publishable key.
package processor
