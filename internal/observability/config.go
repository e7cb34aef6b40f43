// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the schemaconv CLI.
package observability

import (
	"log/slog"
	"os"
)

// AppMode identifies how a conversion run was launched.
type AppMode string

const (
	// ModeConvert writes converted files to the output tree.
	ModeConvert AppMode = "convert"
	// ModeDryRun converts in memory and only reports diffs.
	ModeDryRun AppMode = "dry-run"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "schemaconv"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Standard OTel exporter environment variables.
const (
	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders  = "OTEL_EXPORTER_OTLP_HEADERS"
	envOTLPInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "ci", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio (0.0 to 1.0).
	// Zero uses parent-based sampling with an always-on root.
	SampleRatio float64

	// TraceVerbose keeps the per-file conversion spans. When false only the
	// batch-level spans are exported.
	TraceVerbose bool

	// MetricsFile, when set, receives the conversion metrics in the
	// Prometheus text format on shutdown.
	MetricsFile string

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeConvert,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ApplyEnv fills the exporter settings from the standard OTel variables.
func (c *Config) ApplyEnv() {
	c.OTLPEndpoint = os.Getenv(envOTLPEndpoint)
	c.OTLPHeaders = ParseOTLPHeaders(os.Getenv(envOTLPHeaders))
	c.OTLPInsecure = os.Getenv(envOTLPInsecure) == "true"
}
