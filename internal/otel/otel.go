// Package otel exports careagent metrics: OpenTelemetry instruments for agent, recommendation,
// rule and task activity, read through a Prometheus registry that also carries Go runtime and
// process collectors.
package otel

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	meterName          = "careagent"
	defaultServiceName = "careagent"
)

// Deployment describes the daemon instance in the metric resource.
type Deployment struct {
	ServiceName  string
	StoreDriver  string // sqlite, postgres or memory
	AlertAgentID string
}

func (d Deployment) attributes() []attribute.KeyValue {
	name := d.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if d.StoreDriver != "" {
		attrs = append(attrs, AttrStoreDriver.String(d.StoreDriver))
	}
	if d.AlertAgentID != "" {
		attrs = append(attrs, AttrAlertAgent.String(d.AlertAgentID))
	}
	return attrs
}

// InitMeterProvider installs the global MeterProvider and returns the /metrics handler.
// On error the caller falls back to the plain-text /metrics output.
func InitMeterProvider(ctx context.Context, d Deployment) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "careagent"})); err != nil {
		return nil, err
	}
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(d.attributes()...))
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otelglobal.SetMeterProvider(provider)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}), nil
}

// Meter returns the careagent meter from the global provider.
func Meter() metric.Meter {
	return otelglobal.Meter(meterName)
}

// Attribute keys shared by the instruments.
var (
	AttrAgent       = attribute.Key("agent")
	AttrAction      = attribute.Key("action")
	AttrStatus      = attribute.Key("status")
	AttrPriority    = attribute.Key("priority")
	AttrRule        = attribute.Key("rule")
	AttrOperation   = attribute.Key("operation")
	AttrRoute       = attribute.Key("http.route")
	AttrStoreDriver = attribute.Key("careagent.store.driver")
	AttrAlertAgent  = attribute.Key("careagent.alert_agent")
)
