package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	Exporter    string `yaml:"exporter"` // "otlp", "stdout", or "none"
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Provider manages OpenTelemetry tracing for engine operations.
type Provider struct {
	config   Config
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// NewProvider creates a new telemetry provider. An unrecognized or
// empty Exporter, or Enabled=false, yields a Provider whose tracer is
// never sampled by a real exporter (spans are created but go nowhere).
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{config: cfg, tracer: otel.Tracer("shieldcore")}, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "shieldcore"
	}

	slog.Info("creating exporter", "type", cfg.Exporter)

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "otlp":
		slog.Debug("creating OTLP exporter")
		exporter, err = createOTLPExporter(cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("OTLP exporter initialized", "endpoint", cfg.Endpoint)
	case "stdout":
		slog.Debug("creating stdout exporter")
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			slog.Error("stdout exporter creation failed", "error", err)
			return nil, err
		}
		slog.Info("stdout trace exporter initialized")
	default:
		return &Provider{config: cfg, tracer: otel.Tracer("shieldcore")}, nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)

	return &Provider{config: cfg, tracer: tp.Tracer("shieldcore"), provider: tp}, nil
}

func createOTLPExporter(cfg Config) (sdktrace.SpanExporter, error) {
	ctx := context.Background()

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	return otlptracegrpc.New(ctx, opts...)
}

// Tracer returns the tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown gracefully shuts down the trace provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// Enabled returns whether telemetry is exporting.
func (p *Provider) Enabled() bool {
	return p.config.Enabled && p.provider != nil
}

// Span attributes recorded around Protect/Decide/Report calls.
const (
	AttrFingerprint  = "shieldcore.fingerprint"
	AttrConclusion   = "shieldcore.conclusion"
	AttrRuleID       = "shieldcore.rule.id"
	AttrRuleState    = "shieldcore.rule.state"
	AttrRuleCount    = "shieldcore.rule.count"
	AttrTTL          = "shieldcore.ttl"
	AttrRequestMethod = "http.request.method"
	AttrRequestPath   = "url.path"
)

// StartProtectSpan starts the root span for one Protect call.
func (p *Provider) StartProtectSpan(ctx context.Context, fingerprint, method, path string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "engine.protect",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrFingerprint, fingerprint),
			attribute.String(AttrRequestMethod, method),
			attribute.String(AttrRequestPath, path),
		),
	)
}

// EndProtectSpan closes the root Protect span with the final verdict.
func (p *Provider) EndProtectSpan(span trace.Span, conclusion string, ttl int, err error) {
	span.SetAttributes(
		attribute.String(AttrConclusion, conclusion),
		attribute.Int(AttrTTL, ttl),
	)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// StartRuleSpan starts a child span for a single local rule evaluation.
func (p *Provider) StartRuleSpan(ctx context.Context, ruleID string, priority int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "engine.rule",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrRuleID, ruleID),
			attribute.Int("shieldcore.rule.priority", priority),
		),
	)
}

// EndRuleSpan closes a rule span with its outcome.
func (p *Provider) EndRuleSpan(span trace.Span, state, conclusion string, err error) {
	span.SetAttributes(
		attribute.String(AttrRuleState, state),
		attribute.String(AttrConclusion, conclusion),
	)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// RecordReportSent records a best-effort async report delivery event
// against the background context's span, if any.
func (p *Provider) RecordReportSent(ctx context.Context, ruleCount int, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.AddEvent("report.failed", trace.WithAttributes(attribute.Int(AttrRuleCount, ruleCount)))
		span.RecordError(err)
		return
	}
	span.AddEvent("report.sent", trace.WithAttributes(attribute.Int(AttrRuleCount, ruleCount)))
}

// DefaultConfig returns a default telemetry configuration.
func DefaultConfig() Config {
	return Config{Enabled: false, Exporter: "none", ServiceName: "shieldcore"}
}

// NoopProvider returns a provider that creates spans nobody exports,
// for use in tests.
func NoopProvider() *Provider {
	return &Provider{config: Config{Enabled: false}, tracer: otel.Tracer("shieldcore-noop")}
}

// SpanFromContext extracts a span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// ContextWithTimeout creates a context with timeout, used for a
// best-effort Shutdown deadline.
func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
