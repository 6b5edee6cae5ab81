package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	limitChecks          metric.Int64Counter
	limitDegraded        metric.Int64Counter
	subscriptionsEnsured metric.Int64Counter
	trialsActivated      metric.Int64Counter
	usageRecorded        metric.Int64Counter
	subscriptionsExpired metric.Int64Counter
	rateLimitDenied      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "eventtria"
	}
	meter := provider.Meter(name)

	limitChecks, err := meter.Int64Counter("eventtria_limit_checks_total",
		metric.WithDescription("Limit checks by action, plan and result."))
	if err != nil {
		return nil, err
	}
	limitDegraded, err := meter.Int64Counter("eventtria_limit_degraded_total",
		metric.WithDescription("Limit resolutions that fell back to the Free plan."))
	if err != nil {
		return nil, err
	}
	subscriptionsEnsured, err := meter.Int64Counter("eventtria_subscriptions_ensured_total")
	if err != nil {
		return nil, err
	}
	trialsActivated, err := meter.Int64Counter("eventtria_trials_activated_total")
	if err != nil {
		return nil, err
	}
	usageRecorded, err := meter.Int64Counter("eventtria_usage_recorded_total")
	if err != nil {
		return nil, err
	}
	subscriptionsExpired, err := meter.Int64Counter("eventtria_subscriptions_expired_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("eventtria_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		limitChecks:          limitChecks,
		limitDegraded:        limitDegraded,
		subscriptionsEnsured: subscriptionsEnsured,
		trialsActivated:      trialsActivated,
		usageRecorded:        usageRecorded,
		subscriptionsExpired: subscriptionsExpired,
		rateLimitDenied:      rateLimitDenied,
	}, nil
}

// RecordLimitCheck counts a limit decision.
func (m *Metrics) RecordLimitCheck(ctx context.Context, action, plan string, allowed bool) {
	if m == nil {
		return
	}
	result := "denied"
	if allowed {
		result = "allowed"
	}
	attrs := FilterAttributes(
		attribute.String("action", strings.TrimSpace(action)),
		attribute.String("plan", strings.TrimSpace(plan)),
		attribute.String("result", result),
	)
	m.limitChecks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLimitDegraded counts resolutions that fell back to the lowest tier.
func (m *Metrics) RecordLimitDegraded(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.limitDegraded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSubscriptionEnsured counts ensure calls by outcome.
func (m *Metrics) RecordSubscriptionEnsured(ctx context.Context, created, ok bool) {
	if m == nil {
		return
	}
	outcome := "existing"
	switch {
	case !ok:
		outcome = "failed"
	case created:
		outcome = "created"
	}
	attrs := FilterAttributes(attribute.String("outcome", outcome))
	m.subscriptionsEnsured.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordTrialActivated(ctx context.Context, plan string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("plan", strings.TrimSpace(plan)))
	m.trialsActivated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordUsage(ctx context.Context, action string, delta int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.usageRecorded.Add(ctx, delta, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordSubscriptionsExpired(ctx context.Context, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.subscriptionsExpired.Add(ctx, count)
}

// RecordRateLimitDenied counts throttled writes.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, action, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("action", strings.TrimSpace(action)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"action":  {},
	"plan":    {},
	"result":  {},
	"outcome": {},
	"reason":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
