package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const engineMeterName = "github.com/calmroute/calmroute/internal/engine"

// Instruments holds the engine's domain metrics. A nil *Instruments records nothing.
type Instruments struct {
	routesScored          metric.Int64Counter
	routeBurden           metric.Float64Histogram
	recommendationsRanked metric.Int64Counter
	catalogueLoaded       metric.Int64Counter
	catalogueDropped      metric.Int64Counter
}

// NewInstruments creates the engine instruments on the global meter provider.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(engineMeterName)

	routesScored, err := meter.Int64Counter(
		"calmroute.routes.scored",
		metric.WithDescription("Number of routes built and scored"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	routeBurden, err := meter.Float64Histogram(
		"calmroute.routes.burden",
		metric.WithDescription("Profile-adjusted route burden score"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1),
	)
	if err != nil {
		return nil, err
	}

	recommendationsRanked, err := meter.Int64Counter(
		"calmroute.recommendations.ranked",
		metric.WithDescription("Number of programs scored by the recommender"),
		metric.WithUnit("{program}"),
	)
	if err != nil {
		return nil, err
	}

	catalogueLoaded, err := meter.Int64Counter(
		"calmroute.catalogue.loaded",
		metric.WithDescription("Programs accepted by catalogue loads"),
		metric.WithUnit("{program}"),
	)
	if err != nil {
		return nil, err
	}

	catalogueDropped, err := meter.Int64Counter(
		"calmroute.catalogue.dropped",
		metric.WithDescription("Catalogue records dropped for missing coordinates or duplicate ids"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &Instruments{
		routesScored:          routesScored,
		routeBurden:           routeBurden,
		recommendationsRanked: recommendationsRanked,
		catalogueLoaded:       catalogueLoaded,
		catalogueDropped:      catalogueDropped,
	}, nil
}

// RecordRoute records one scored route.
func (i *Instruments) RecordRoute(ctx context.Context, profile, mode string, burden float64) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("route.profile", profile),
		attribute.String("route.mode", mode),
	)
	i.routesScored.Add(ctx, 1, attrs)
	i.routeBurden.Record(ctx, burden, attrs)
}

// RecordRecommendations records a ranked result set.
func (i *Instruments) RecordRecommendations(ctx context.Context, count int) {
	if i == nil {
		return
	}
	i.recommendationsRanked.Add(ctx, int64(count))
}

// RecordCatalogueLoad records the outcome of a catalogue load.
func (i *Instruments) RecordCatalogueLoad(ctx context.Context, source string, loaded, dropped int) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("catalogue.source", source))
	i.catalogueLoaded.Add(ctx, int64(loaded), attrs)
	i.catalogueDropped.Add(ctx, int64(dropped), attrs)
}
