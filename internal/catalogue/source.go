package catalogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/provider/resilience"
)

// Source fetches a raw catalogue document.
type Source interface {
	// Fetch returns the raw feature collection.
	Fetch(ctx context.Context) (FeatureCollection, error)
	// Name identifies the source for logging and health reporting.
	Name() string
}

// FileSource reads the catalogue from a JSON file on disk.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s FileSource) Fetch(_ context.Context) (FeatureCollection, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return FeatureCollection{}, fmt.Errorf("open catalogue file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Name implements Source.
func (s FileSource) Name() string {
	return "file:" + s.Path
}

// ArcGISProviderName identifies the ArcGIS source in the provider registry.
const ArcGISProviderName = "arcgis"

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ArcGISConfig configures an ArcGIS FeatureServer source.
type ArcGISConfig struct {
	// QueryURL is the layer query endpoint, e.g. .../FeatureServer/0/query.
	QueryURL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// PageSize is the number of records requested per page (default: 1000).
	PageSize int

	// Timeout for individual requests (default: 15s).
	Timeout time.Duration

	// Registry receives success/failure reports (optional).
	Registry *resilience.Registry
}

// ArcGISSource pages through an ArcGIS FeatureServer query endpoint.
type ArcGISSource struct {
	queryURL   string
	httpClient HTTPDoer
	pageSize   int
	registry   *resilience.Registry
}

// NewArcGISSource creates an ArcGIS source.
func NewArcGISSource(cfg ArcGISConfig) *ArcGISSource {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		client := resilience.NewClient(resilience.ClientConfig{
			Name:            ArcGISProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
		if cfg.Registry != nil {
			cfg.Registry.Register(client)
		}
		httpClient = client
	}

	return &ArcGISSource{
		queryURL:   cfg.QueryURL,
		httpClient: httpClient,
		pageSize:   pageSize,
		registry:   cfg.Registry,
	}
}

// Name implements Source.
func (s *ArcGISSource) Name() string {
	return ArcGISProviderName
}

type arcgisPage struct {
	Features              []json.RawMessage `json:"features"`
	ExceededTransferLimit bool              `json:"exceededTransferLimit"`
	Error                 *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch implements Source.
func (s *ArcGISSource) Fetch(ctx context.Context) (FeatureCollection, error) {
	var features []any
	offset := 0

	for {
		page, err := s.fetchPage(ctx, offset)
		if err != nil {
			s.recordFailure(err)
			return FeatureCollection{}, err
		}
		for _, raw := range page.Features {
			var f any
			if err := decodeNumbers(raw, &f); err != nil {
				// Keep the slot so the record is counted as dropped.
				features = append(features, nil)
				continue
			}
			features = append(features, f)
		}

		if !page.ExceededTransferLimit || len(page.Features) == 0 {
			break
		}
		offset += len(page.Features)
	}

	if s.registry != nil {
		s.registry.RecordSuccess(ArcGISProviderName)
	}
	if features == nil {
		features = []any{}
	}
	return FeatureCollection{Features: features}, nil
}

func (s *ArcGISSource) fetchPage(ctx context.Context, offset int) (*arcgisPage, error) {
	u, err := url.Parse(s.queryURL)
	if err != nil {
		return nil, fmt.Errorf("parse query url: %w", err)
	}
	q := u.Query()
	if q.Get("where") == "" {
		q.Set("where", "1=1")
	}
	q.Set("outFields", "*")
	q.Set("f", "json")
	q.Set("resultOffset", strconv.Itoa(offset))
	q.Set("resultRecordCount", strconv.Itoa(s.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch features: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from feature server", resp.StatusCode)
	}

	var page arcgisPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCatalogueFormat, err)
	}
	if page.Error != nil {
		return nil, fmt.Errorf("feature server error %d: %s", page.Error.Code, page.Error.Message)
	}
	if page.Features == nil {
		return nil, fmt.Errorf("%w: missing features array", ErrBadCatalogueFormat)
	}

	return &page, nil
}

func (s *ArcGISSource) recordFailure(err error) {
	if s.registry != nil {
		s.registry.RecordFailure(ArcGISProviderName, err)
	}
}

func decodeNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// Loader fetches from a source and installs the result in a store.
type Loader struct {
	source Source
	store  *Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewLoader creates a loader.
func NewLoader(source Source, store *Store, logger zerolog.Logger) *Loader {
	return &Loader{
		source: source,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Fetch fetches and normalises the catalogue without installing it.
func (l *Loader) Fetch(ctx context.Context) (*Snapshot, error) {
	fc, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalogue from %s: %w", l.source.Name(), err)
	}

	cat, report, err := Normalise(fc)
	if err != nil {
		return nil, fmt.Errorf("normalise catalogue from %s: %w", l.source.Name(), err)
	}

	return &Snapshot{
		Catalogue: cat,
		Report:    report,
		Source:    l.source.Name(),
		LoadedAt:  l.now(),
	}, nil
}

// Install replaces the stored snapshot.
func (l *Loader) Install(snap *Snapshot) {
	l.store.Swap(snap)

	l.logger.Info().
		Str("source", snap.Source).
		Int("total", snap.Report.Total).
		Int("loaded", snap.Report.Loaded).
		Int("dropped", snap.Report.Dropped).
		Int("duplicates", snap.Report.Duplicates).
		Msg("catalogue loaded")
}

// Reload fetches and normalises the catalogue, replacing the stored snapshot
// only when the load succeeds.
func (l *Loader) Reload(ctx context.Context) (LoadReport, error) {
	snap, err := l.Fetch(ctx)
	if err != nil {
		return LoadReport{}, err
	}
	l.Install(snap)
	return snap.Report, nil
}

// Source returns the source the loader reads from.
func (l *Loader) Source() Source {
	return l.source
}

// Store returns the store the loader writes to.
func (l *Loader) Store() *Store {
	return l.store
}
