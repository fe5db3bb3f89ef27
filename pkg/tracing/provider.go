package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config selects the exporter and sampler.
type Config struct {
	ServiceName string  `koanf:"service_name"`
	Endpoint    string  `koanf:"otlp_endpoint"`
	Sampling    string  `koanf:"sampling"`
	Rate        float64 `koanf:"sampling_rate"`
}

// Sampler returns the sampler named by Sampling: always, never or
// probability.
func (c Config) Sampler() sdktrace.Sampler {
	switch strings.ToLower(c.Sampling) {
	case "never":
		return sdktrace.NeverSample()
	case "probability":
		rate := c.Rate
		if rate == 0 {
			rate = 1.0
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	default:
		return sdktrace.AlwaysSample()
	}
}

// Setup builds an SDK provider, installs it and returns its shutdown
// function. Without an endpoint spans are sampled for log correlation only.
func Setup(ctx context.Context, c Config) (func(context.Context) error, error) {
	name := c.ServiceName
	if name == "" {
		name = "tcd"
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(c.Sampler()),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	}
	if c.Endpoint != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(c.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	ConfigureTraceProvider(tp)
	return tp.Shutdown, nil
}
