// Package app wires the well count service together: configuration,
// logging, telemetry, storage, services, the websocket hub and the HTTP
// router. Application owns the lifecycle of all of them.
//
// Startup order:
//
//	1. Logger and OpenTelemetry providers
//	2. Storage backend (memory or SQLite, migrated on open)
//	3. Services, the preview handler and the websocket hub
//	4. Router: RequestID → RealIP → OTel → Logger → Recoverer →
//	   SecurityHeaders → CORS → RateLimiter, then per-group Timeout and
//	   MaxBodySize under /api
//
// Run blocks until SIGINT or SIGTERM and then shuts everything down in
// reverse order.
package app
