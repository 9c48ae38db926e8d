// Package observability provides OpenTelemetry tracing and log export for
// ddlgen runs. Spans and log records go to an OTLP collector over gRPC or HTTP.
package observability

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Config holds OpenTelemetry configuration.
type Config struct {
	ServiceName      string
	ServiceVersion   string
	TracingEnabled   bool
	LogExportEnabled bool
	TraceSampleRatio float64
	OTLP             OTLPExporterConfig
}

// OTLPExporterConfig holds OTLP exporter configuration options.
type OTLPExporterConfig struct {
	Endpoint          string
	Protocol          string
	Insecure          bool
	TLSCertFile       string
	TLSClientCertFile string
	TLSClientKeyFile  string
	Headers           map[string]string
	Timeout           time.Duration
	Compression       string
	RetryEnabled      bool
}

// Telemetry owns the providers created by Setup.
type Telemetry struct {
	tracer *sdktrace.TracerProvider
	logger *log.LoggerProvider
}

// Setup creates the providers enabled in cfg. Tracing installs the global
// tracer provider; log export is exposed through LoggerProvider for the
// logging bridge. Neither is created when disabled.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	t := &Telemetry{}
	if !cfg.TracingEnabled && !cfg.LogExportEnabled {
		return t, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.TracingEnabled {
		t.tracer, err = newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(t.tracer)
	}

	if cfg.LogExportEnabled {
		t.logger, err = newLoggerProvider(ctx, cfg, res)
		if err != nil {
			_ = t.Shutdown(ctx, slog.Default())
			return nil, err
		}
	}
	return t, nil
}

// LoggerProvider returns the log export provider, or nil when disabled.
func (t *Telemetry) LoggerProvider() *log.LoggerProvider {
	return t.logger
}

// Shutdown flushes and stops every provider. A one-shot run must call this
// before exiting or batched spans are lost.
func (t *Telemetry) Shutdown(ctx context.Context, logger *slog.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if t.tracer != nil {
		if err := t.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown tracer provider", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if t.logger != nil {
		if err := t.logger.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown logger provider", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newResource(cfg Config) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// Protocol is an OTLP transport.
type Protocol string

const (
	ProtocolGRPC Protocol = "grpc"
	ProtocolHTTP Protocol = "http/protobuf"
)

// ParseOTLPProtocol normalizes a protocol name; "http" is accepted for http/protobuf.
func ParseOTLPProtocol(value string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ProtocolGRPC):
		return ProtocolGRPC, nil
	case "http", string(ProtocolHTTP):
		return ProtocolHTTP, nil
	default:
		return "", fmt.Errorf("unsupported OTLP protocol %q (use grpc or http/protobuf)", value)
	}
}

func buildTLSConfig(cfg OTLPExporterConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.TLSCertFile != "" {
		certPool := x509.NewCertPool()
		caCert, err := os.ReadFile(cfg.TLSCertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read OTLP TLS CA file: %w", err)
		}
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse OTLP TLS CA file")
		}
		tlsConfig.RootCAs = certPool
	}

	if cfg.TLSClientCertFile != "" || cfg.TLSClientKeyFile != "" {
		if cfg.TLSClientCertFile == "" || cfg.TLSClientKeyFile == "" {
			return nil, fmt.Errorf("OTLP TLS client cert and key must both be set")
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLSClientCertFile, cfg.TLSClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load OTLP TLS client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func isHTTPEndpointURL(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

// exportSettings holds the exporter options shared by every OTLP protocol.
type exportSettings struct {
	endpoint    string
	endpointURL bool
	tls         *tls.Config // nil means plaintext
	headers     map[string]string
	timeout     time.Duration
	gzip        bool
	retry       bool
}

const (
	retryMaxElapsed      = 30 * time.Second
	retryMaxInterval     = 5 * time.Second
	retryInitialInterval = time.Second
)

func resolveExportSettings(cfg OTLPExporterConfig) (exportSettings, error) {
	s := exportSettings{
		endpoint:    cfg.Endpoint,
		endpointURL: isHTTPEndpointURL(cfg.Endpoint),
		headers:     cfg.Headers,
		timeout:     cfg.Timeout,
		gzip:        cfg.Compression == "gzip",
		retry:       cfg.RetryEnabled,
	}
	if !cfg.Insecure {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return exportSettings{}, err
		}
		s.tls = tlsConfig
	}
	return s, nil
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := newTraceExporter(ctx, cfg.OTLP)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(traceSamplerForRatio(cfg.TraceSampleRatio)),
	), nil
}

func newTraceExporter(ctx context.Context, cfg OTLPExporterConfig) (sdktrace.SpanExporter, error) {
	protocol, err := ParseOTLPProtocol(cfg.Protocol)
	if err != nil {
		return nil, err
	}
	settings, err := resolveExportSettings(cfg)
	if err != nil {
		return nil, err
	}

	var exporter sdktrace.SpanExporter
	if protocol == ProtocolHTTP {
		exporter, err = otlptracehttp.New(ctx, httpTraceOptions(settings)...)
	} else {
		exporter, err = otlptracegrpc.New(ctx, grpcTraceOptions(settings)...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func grpcTraceOptions(s exportSettings) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.endpoint)}
	if s.tls == nil {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(s.tls)))
	}
	if len(s.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(s.headers))
	}
	if s.timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(s.timeout))
	}
	if s.gzip {
		opts = append(opts, otlptracegrpc.WithCompressor("gzip"))
	}
	if s.retry {
		opts = append(opts, otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{
			Enabled: true, MaxElapsedTime: retryMaxElapsed, MaxInterval: retryMaxInterval, InitialInterval: retryInitialInterval,
		}))
	}
	return opts
}

func httpTraceOptions(s exportSettings) []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.endpoint)}
	if s.endpointURL {
		opts[0] = otlptracehttp.WithEndpointURL(s.endpoint)
	}
	if s.tls == nil {
		opts = append(opts, otlptracehttp.WithInsecure())
	} else {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(s.tls))
	}
	if len(s.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(s.headers))
	}
	if s.timeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(s.timeout))
	}
	if s.gzip {
		opts = append(opts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
	}
	if s.retry {
		opts = append(opts, otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
			Enabled: true, MaxElapsedTime: retryMaxElapsed, MaxInterval: retryMaxInterval, InitialInterval: retryInitialInterval,
		}))
	}
	return opts
}

func traceSamplerForRatio(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.NeverSample()
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newLoggerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*log.LoggerProvider, error) {
	protocol, err := ParseOTLPProtocol(cfg.OTLP.Protocol)
	if err != nil {
		return nil, err
	}
	settings, err := resolveExportSettings(cfg.OTLP)
	if err != nil {
		return nil, err
	}

	var exporter log.Exporter
	if protocol == ProtocolHTTP {
		exporter, err = otlploghttp.New(ctx, httpLogOptions(settings)...)
	} else {
		exporter, err = otlploggrpc.New(ctx, grpcLogOptions(settings)...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	return log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(log.NewBatchProcessor(exporter)),
	), nil
}

func grpcLogOptions(s exportSettings) []otlploggrpc.Option {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(s.endpoint)}
	if s.tls == nil {
		opts = append(opts, otlploggrpc.WithInsecure())
	} else {
		opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewTLS(s.tls)))
	}
	if len(s.headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(s.headers))
	}
	if s.timeout > 0 {
		opts = append(opts, otlploggrpc.WithTimeout(s.timeout))
	}
	if s.gzip {
		opts = append(opts, otlploggrpc.WithCompressor("gzip"))
	}
	if s.retry {
		opts = append(opts, otlploggrpc.WithRetry(otlploggrpc.RetryConfig{
			Enabled: true, MaxElapsedTime: retryMaxElapsed, MaxInterval: retryMaxInterval, InitialInterval: retryInitialInterval,
		}))
	}
	return opts
}

func httpLogOptions(s exportSettings) []otlploghttp.Option {
	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(s.endpoint)}
	if s.endpointURL {
		opts[0] = otlploghttp.WithEndpointURL(s.endpoint)
	}
	if s.tls == nil {
		opts = append(opts, otlploghttp.WithInsecure())
	} else {
		opts = append(opts, otlploghttp.WithTLSClientConfig(s.tls))
	}
	if len(s.headers) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(s.headers))
	}
	if s.timeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(s.timeout))
	}
	if s.gzip {
		opts = append(opts, otlploghttp.WithCompression(otlploghttp.GzipCompression))
	}
	if s.retry {
		opts = append(opts, otlploghttp.WithRetry(otlploghttp.RetryConfig{
			Enabled: true, MaxElapsedTime: retryMaxElapsed, MaxInterval: retryMaxInterval, InitialInterval: retryInitialInterval,
		}))
	}
	return opts
}
