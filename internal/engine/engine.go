// Package engine is the route-burden façade: it ties the catalogue, exposome,
// routing, load and recommender packages behind one set of operations.
package engine

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/geo"
	"github.com/calmroute/calmroute/internal/load"
	"github.com/calmroute/calmroute/internal/recommend"
	"github.com/calmroute/calmroute/internal/routing"
)

// Sentinel errors surfaced by the engine.
var (
	// ErrBadCatalogueFormat indicates a catalogue that is structurally wrong at the top level.
	ErrBadCatalogueFormat = catalogue.ErrBadCatalogueFormat
	// ErrUnknownProgram indicates a program id that is not in the catalogue.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrOutOfRangeCoordinate indicates an invalid user coordinate.
	ErrOutOfRangeCoordinate = geo.ErrOutOfRangeCoordinate
)

// Config holds configuration for the engine.
type Config struct {
	// Field is the exposome source (default: the synthetic Los Angeles field).
	Field exposome.Source

	// Reference supplies green spaces, crowd hotspots and the environment
	// grid extent (default: embedded Los Angeles data).
	Reference *exposome.Reference

	// Loads is the hourly load table. Nil reports the default load everywhere.
	Loads load.Table

	// SynthesizeLoads answers for programs missing from Loads with a
	// synthesized profile.
	SynthesizeLoads bool

	// Logger for engine operations. The zero value discards output.
	Logger zerolog.Logger
}

// Engine answers catalogue, routing and load queries. It is safe for
// concurrent use; nothing is mutated after construction.
type Engine struct {
	field     exposome.Source
	reference *exposome.Reference
	routes    *routing.Service
	loads     *load.Forecaster
	logger    zerolog.Logger
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger

	field := cfg.Field
	if field == nil {
		field = exposome.NewField()
	}

	ref := cfg.Reference
	if ref == nil {
		var err error
		ref, err = exposome.LosAngeles()
		if err != nil {
			return nil, fmt.Errorf("load reference data: %w", err)
		}
	}

	loads := load.NewForecaster(cfg.Loads)
	if cfg.SynthesizeLoads {
		loads = load.NewSyntheticForecaster(cfg.Loads)
	}

	routes := routing.NewService(routing.ServiceConfig{
		Environment: routing.Environment{
			Field:         field,
			Grid:          exposome.BuildEnvironmentGrid(field, ref.EnvironmentGrid),
			GreenSpaces:   ref.GreenSet(),
			CrowdHotspots: ref.CrowdSet(),
		},
		Logger: logger.With().Str("component", "routing").Logger(),
	})

	return &Engine{
		field:     field,
		reference: ref,
		routes:    routes,
		loads:     loads,
		logger:    logger,
	}, nil
}

// Field returns the exposome source.
func (e *Engine) Field() exposome.Source {
	return e.field
}

// Reference returns the reference geography.
func (e *Engine) Reference() *exposome.Reference {
	return e.reference
}

// LoadCatalogue decodes and normalises a raw feature collection.
func (e *Engine) LoadCatalogue(r io.Reader) (*catalogue.Catalogue, catalogue.LoadReport, error) {
	cat, report, err := catalogue.Load(r)
	if err != nil {
		return nil, report, err
	}
	e.logger.Debug().
		Int("loaded", report.Loaded).
		Int("dropped", report.Dropped).
		Int("duplicates", report.Duplicates).
		Msg("catalogue normalised")
	return cat, report, nil
}

// QueryOptions are the optional inputs to Query.
type QueryOptions struct {
	// User is the user's location; nil skips distance filtering and scoring.
	User *geo.Point
	// ArrivalAt, when set, annotates each visible program with its load then.
	ArrivalAt time.Time
}

// Query returns the visible programs and the city and category menus.
func (e *Engine) Query(cat *catalogue.Catalogue, f recommend.Filter, opts QueryOptions) (recommend.Result, error) {
	if err := e.validateQuery(f, opts.User); err != nil {
		return recommend.Result{}, err
	}

	res := recommend.Query(cat.Programs(), f, opts.User)
	if !opts.ArrivalAt.IsZero() {
		for i := range res.Visible {
			v := e.loads.LoadAt(res.Visible[i].ID, opts.ArrivalAt)
			res.Visible[i].LoadAtArrival = &v
		}
	}
	return res, nil
}

// Recommend scores and ranks the programs passing the filter.
func (e *Engine) Recommend(cat *catalogue.Catalogue, f recommend.Filter, user *geo.Point) ([]recommend.Recommendation, error) {
	if err := e.validateQuery(f, user); err != nil {
		return nil, err
	}
	recs := recommend.Recommend(cat.Programs(), f, user)
	e.logger.Debug().Int("count", len(recs)).Msg("recommendations ranked")
	return recs, nil
}

// RouteRequest selects the program and travel settings for a route.
type RouteRequest struct {
	User      geo.Point
	ProgramID int64
	Mode      routing.TravelMode
	Profile   routing.Profile
	Weights   burden.Weights
}

// Route builds and scores a route from the user to a program.
func (e *Engine) Route(cat *catalogue.Catalogue, req RouteRequest) (*routing.ScoredRoute, error) {
	rreq, err := e.routingRequest(cat, req)
	if err != nil {
		return nil, err
	}
	return e.routes.Route(rreq)
}

// RoutesAll returns [fastest, lowStress, balanced] from the user to a program.
func (e *Engine) RoutesAll(cat *catalogue.Catalogue, req RouteRequest) ([]*routing.ScoredRoute, error) {
	rreq, err := e.routingRequest(cat, req)
	if err != nil {
		return nil, err
	}
	return e.routes.RoutesAll(rreq)
}

// BurdenAlong scores a route under exposome settings.
func (e *Engine) BurdenAlong(route *routing.ScoredRoute, settings exposome.Settings) (routing.BurdenSummary, error) {
	return e.routes.BurdenAlong(route, settings)
}

// LoadAt returns the program's load during the hour containing t.
func (e *Engine) LoadAt(cat *catalogue.Catalogue, id int64, t time.Time) (float64, error) {
	if _, ok := cat.Get(id); !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownProgram, id)
	}
	return e.loads.LoadAt(id, t), nil
}

// NextLowLoad returns the wait until the program's next quiet hour. The
// boolean is false when no hour in the next day is below threshold.
func (e *Engine) NextLowLoad(cat *catalogue.Catalogue, id int64, now time.Time, threshold float64) (load.Wait, bool, error) {
	if _, ok := cat.Get(id); !ok {
		return load.Wait{}, false, fmt.Errorf("%w: %d", ErrUnknownProgram, id)
	}
	wait, ok := e.loads.NextLowLoad(id, now, threshold)
	return wait, ok, nil
}

// Exposure is every layer at one coordinate plus the segment burden there.
type Exposure struct {
	Point  geo.Point       `json:"point"`
	Layers exposome.Sample `json:"layers"`
	AQI    float64         `json:"aqi"`
	Burden float64         `json:"burden"`
}

// ExposureAt samples the field at a point and scores it as a single segment.
func (e *Engine) ExposureAt(at geo.Point, w burden.Weights) (Exposure, error) {
	if err := at.Validate(); err != nil {
		return Exposure{}, fmt.Errorf("point: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Exposure{}, err
	}
	sample := exposome.SampleAt(e.field, at.Lat, at.Lon)
	return Exposure{
		Point:  at,
		Layers: sample,
		AQI:    sample.AQI(),
		Burden: burden.Segment(burden.FromSample(sample), w),
	}, nil
}

// SynthesizeLoads returns a synthesized hourly load table covering every
// program in the catalogue, in the format load.Decode reads.
func (e *Engine) SynthesizeLoads(cat *catalogue.Catalogue) load.Table {
	programs := cat.Programs()
	ids := make([]int64, len(programs))
	for i, p := range programs {
		ids[i] = p.ID
	}
	return load.Synthesize(ids)
}

// Program returns one program by id.
func (e *Engine) Program(cat *catalogue.Catalogue, id int64) (catalogue.Program, error) {
	p, ok := cat.Get(id)
	if !ok {
		return catalogue.Program{}, fmt.Errorf("%w: %d", ErrUnknownProgram, id)
	}
	return p, nil
}

func (e *Engine) routingRequest(cat *catalogue.Catalogue, req RouteRequest) (routing.Request, error) {
	if err := req.User.Validate(); err != nil {
		return routing.Request{}, fmt.Errorf("user location: %w", err)
	}
	p, ok := cat.Get(req.ProgramID)
	if !ok {
		return routing.Request{}, fmt.Errorf("%w: %d", ErrUnknownProgram, req.ProgramID)
	}
	return routing.Request{
		Origin:      req.User,
		Destination: geo.Point{Lat: p.Latitude, Lon: p.Longitude},
		Mode:        req.Mode,
		Profile:     req.Profile,
		Weights:     req.Weights,
	}, nil
}

func (e *Engine) validateQuery(f recommend.Filter, user *geo.Point) error {
	if user != nil {
		if err := user.Validate(); err != nil {
			return fmt.Errorf("user location: %w", err)
		}
	}
	return f.Validate()
}
