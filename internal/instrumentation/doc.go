// Package instrumentation provides OpenTelemetry instrumentation for mydos.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of handled requests by method, route, and status
//   - http_request_duration_seconds: Histogram of request durations
//
// Upstream API Metrics:
//   - upstream_api_operations_total: Counter of Notion, Supabase, Valkey and Calendar
//     calls by service, operation, status
//   - upstream_api_operation_duration_seconds: Histogram of upstream call durations
//
// Cache Metrics:
//   - cache_lookups_total: Counter of cache reads by result (hit, miss)
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created per handled request (handler.<route>), per MCP tool
// invocation (tool.<name>), for upstream calls (upstream.<service>.<operation>)
// and, through otelhttp, for inbound and outbound HTTP requests. Log lines
// written while a sampled span is active carry its trace_id.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: Plain HTTP for OTLP (development only)
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mydos)
package instrumentation
