// Package middleware holds the chi middleware chain of the HTTP server:
// request IDs, structured request logging, panic recovery, rate limiting,
// request timeouts and body limits, CORS, security headers and
// OpenTelemetry instrumentation. It also provides the request validator
// used by the handlers.
package middleware
