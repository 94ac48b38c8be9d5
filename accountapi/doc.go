// Package accountapi is the HTTP client for the rewards Account Service.
//
// The client speaks JSON over REST with bearer-token authentication and
// classifies every failure at the service boundary: transport errors, 408,
// 429 and 5xx are transient; 401 rejects the credential; any other 4xx is a
// validation failure; an undecodable success body is an integration failure.
// [ServiceError] carries the classification and the service's own message.
//
// Every request carries an X-Request-ID header. Setup-intent creation also
// carries an Idempotency-Key chosen by the caller.
package accountapi
