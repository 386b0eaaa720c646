package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by DefaultConfig.
const (
	EnvServiceName     = "OTEL_SERVICE_NAME"
	EnvInstanceID      = "OTEL_SERVICE_INSTANCE_ID"
	EnvLambdaLogStream = "AWS_LAMBDA_LOG_STREAM_NAME"
	EnvEnabled         = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter = "METRICS_EXPORTER"
	EnvTracingExporter = "TRACING_EXPORTER"
	EnvOTLPEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvSamplingRate    = "OTEL_TRACES_SAMPLER_ARG"
)

// Exporter names accepted by METRICS_EXPORTER and TRACING_EXPORTER.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Label values shared by the metrics and spans.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"

	ServiceNotion   = "notion"
	ServiceSupabase = "supabase"
	ServiceValkey   = "valkey"
	ServiceCalendar = "calendar"
)

const (
	defaultServiceName  = "mydos"
	defaultSamplingRate = 0.1
)

// Config controls which telemetry mydos emits and where it goes.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID falls back to the Lambda log stream, then the hostname.
	ServiceInstanceID string

	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme.
	OTLPEndpoint string
	OTLPInsecure bool

	// TraceSamplingRate is the ratio of root spans sampled, 0 to 1.
	TraceSamplingRate float64
}

// DefaultConfig reads the instrumentation settings from the environment.
// Prometheus metrics are on and tracing is off unless configured otherwise.
func DefaultConfig() Config {
	return configFromEnv(os.LookupEnv)
}

func configFromEnv(lookup func(string) (string, bool)) Config {
	str := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}
	boolean := func(key string, fallback bool) bool {
		if b, err := strconv.ParseBool(str(key, "")); err == nil {
			return b
		}
		return fallback
	}
	float := func(key string, fallback float64) float64 {
		if f, err := strconv.ParseFloat(str(key, ""), 64); err == nil {
			return f
		}
		return fallback
	}

	return Config{
		ServiceName:       str(EnvServiceName, defaultServiceName),
		ServiceVersion:    "unknown",
		ServiceInstanceID: str(EnvInstanceID, str(EnvLambdaLogStream, "")),
		Enabled:           boolean(EnvEnabled, true),
		MetricsExporter:   strings.ToLower(str(EnvMetricsExporter, ExporterPrometheus)),
		TracingExporter:   strings.ToLower(str(EnvTracingExporter, ExporterNone)),
		OTLPEndpoint:      str(EnvOTLPEndpoint, ""),
		OTLPInsecure:      boolean(EnvOTLPInsecure, false),
		TraceSamplingRate: float(EnvSamplingRate, defaultSamplingRate),
	}
}

// Validate reports the first setting NewProvider would reject. A disabled
// config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("%s must be between 0.0 and 1.0, got %g", EnvSamplingRate, c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case ExporterPrometheus, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("%s is required for the otlp metrics exporter; set it or use %s=prometheus", EnvOTLPEndpoint, EnvMetricsExporter)
		}
	default:
		return fmt.Errorf("unsupported metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("%s is required for the otlp tracing exporter", EnvOTLPEndpoint)
		}
	default:
		return fmt.Errorf("unsupported tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	return nil
}
