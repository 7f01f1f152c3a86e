package light

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ethria/headlamp/internal/light"

type instruments struct {
	placed   metric.Int64Counter
	cleared  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
	tracked  metric.Int64ObservableGauge
}

func newInstruments(trackedCount func() int) (*instruments, error) {
	m := otel.Meter(instrumentationName)
	ins := &instruments{}

	var err error

	ins.placed, err = m.Int64Counter(
		"headlamp.markers.placed",
		metric.WithDescription("Markers written into the world"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating placed counter: %w", err)
	}

	ins.cleared, err = m.Int64Counter(
		"headlamp.markers.cleared",
		metric.WithDescription("Markers removed from tracking"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cleared counter: %w", err)
	}

	ins.failures, err = m.Int64Counter(
		"headlamp.pass.failures",
		metric.WithDescription("Actors whose processing failed during a pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	ins.duration, err = m.Float64Histogram(
		"headlamp.pass.duration",
		metric.WithDescription("Reconciliation pass duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	ins.tracked, err = m.Int64ObservableGauge(
		"headlamp.markers.tracked",
		metric.WithDescription("Markers currently tracked across all actors"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracked gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(ins.tracked, int64(trackedCount()))
			return nil
		},
		ins.tracked,
	)
	if err != nil {
		return nil, fmt.Errorf("registering tracked callback: %w", err)
	}

	return ins, nil
}

func (i *instruments) markerCleared(reason string) {
	i.cleared.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}
