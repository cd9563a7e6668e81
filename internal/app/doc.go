// Package app wires configuration, logging, telemetry, the report service and
// the HTTP router into a runnable application.
//
// New builds everything from an explicit configuration, which is what tests
// use; NewApplication loads the configuration from .env, the YAML file and
// ASSESS_* variables first. Serve runs the HTTP server, the first data load and
// the periodic reload in one errgroup, so a failure in any of them stops the
// others and triggers a graceful shutdown.
//
// Middleware order on every request:
//
//	RequestID → RealIP → OTel → StructuredLogger → Recoverer →
//	SecureHeaders → CORS → RateLimiter → (under /api) StripSlashes → Timeout
//
// /metrics exposes the Prometheus registry owned by the OpenTelemetry meter
// provider and is not subject to the API timeout.
package app
