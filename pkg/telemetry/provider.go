package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// Config exportación OTLP/gRPC de trazas y métricas.
type Config struct {
	Enabled        bool
	Endpoint       string // host:port del collector
	Insecure       bool
	SamplingRatio  float64
	MetricInterval time.Duration
	ServiceName    string
	ServiceVersion string
}

// ShutdownFunc vacía y cierra los proveedores.
type ShutdownFunc func(ctx context.Context) error

// Setup instala los TracerProvider y MeterProvider del SDK como globales. Deshabilitado deja los
// proveedores noop y devuelve un ShutdownFunc vacío.
func Setup(ctx context.Context, cfg Config, log *logger.Logger) (ShutdownFunc, error) {
	if !cfg.Enabled {
		log.Info().Msg("telemetría deshabilitada")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}
	spanExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = spanExporter.Shutdown(ctx)
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}

	tp := NewTracerProvider(res, cfg.SamplingRatio, sdktrace.WithBatcher(spanExporter))
	mp := NewMeterProvider(res, sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricInterval(cfg))))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().
		Str("endpoint", cfg.Endpoint).
		Float64("sampling_ratio", cfg.SamplingRatio).
		Dur("metric_interval", metricInterval(cfg)).
		Msg("telemetría OTLP inicializada")

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// NewTracerProvider arma el provider con el sampler según ratio (>= 1 siempre, <= 0 nunca).
// Las pruebas pasan un sdktrace.WithSpanProcessor con un SpanRecorder.
func NewTracerProvider(res *resource.Resource, ratio float64, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	var sampler sdktrace.Sampler
	switch {
	case ratio >= 1:
		sampler = sdktrace.AlwaysSample()
	case ratio <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(ratio)
	}
	opts = append(opts, sdktrace.WithResource(res), sdktrace.WithSampler(sdktrace.ParentBased(sampler)))
	return sdktrace.NewTracerProvider(opts...)
}

// NewMeterProvider arma el provider con el reader dado (periódico en producción, manual en pruebas).
func NewMeterProvider(res *resource.Resource, reader sdkmetric.Reader) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
}

func metricInterval(cfg Config) time.Duration {
	if cfg.MetricInterval <= 0 {
		return time.Minute
	}
	return cfg.MetricInterval
}
