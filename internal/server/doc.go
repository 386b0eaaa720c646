// Package server runs the mydos request handler behind a local net/http
// server.
//
// HTTPServer translates each HTTP request into a handler.Event and writes the
// handler.Response back, so the same handler serves both the Lambda runtime
// and local development. HealthChecker exposes /healthz, /readyz and
// /healthz/detailed, with readiness backed by named dependency checks.
// MetricsServer serves Prometheus metrics on a dedicated port.
package server
