package exposome

import (
	_ "embed"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/calmroute/calmroute/internal/spatial"
)

//go:embed data/losangeles.yaml
var losAngelesYAML []byte

// GridSpec describes a regular environment grid.
type GridSpec struct {
	Bounds `yaml:",inline"`
	Step   float64 `yaml:"step"`
}

// Reference is the static geography the route builder is biased by.
type Reference struct {
	Bounds          Bounds         `yaml:"bounds"`
	GreenSpaces     []spatial.Site `yaml:"green_spaces"`
	CrowdHotspots   []spatial.Site `yaml:"crowd_hotspots"`
	EnvironmentGrid GridSpec       `yaml:"environment_grid"`
}

// LosAngeles returns the embedded Los Angeles reference data.
func LosAngeles() (*Reference, error) {
	ref, err := parseReference(losAngelesYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded reference: %w", err)
	}
	return ref, nil
}

// LoadReference reads reference data from YAML.
func LoadReference(r io.Reader) (*Reference, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read reference: %w", err)
	}
	return parseReference(data)
}

func parseReference(data []byte) (*Reference, error) {
	var ref Reference
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("decode reference: %w", err)
	}
	for _, s := range append(append([]spatial.Site{}, ref.GreenSpaces...), ref.CrowdHotspots...) {
		if s.Magnitude < 0 || s.Magnitude > 1 {
			return nil, fmt.Errorf("site %s: magnitude %v outside [0, 1]", s.ID, s.Magnitude)
		}
	}
	if ref.EnvironmentGrid.Step <= 0 {
		return nil, fmt.Errorf("environment grid step must be positive")
	}
	return &ref, nil
}

// GreenSet returns the green spaces as a point set.
func (r *Reference) GreenSet() *spatial.PointSet {
	return spatial.NewPointSet(r.GreenSpaces)
}

// CrowdSet returns the crowd hotspots as a point set.
func (r *Reference) CrowdSet() *spatial.PointSet {
	return spatial.NewPointSet(r.CrowdHotspots)
}

// BuildEnvironmentGrid samples src on a regular lattice. Rows and columns are
// counted from the span so the maximum edge is included without float drift.
func BuildEnvironmentGrid(src Source, spec GridSpec) *spatial.Grid {
	if spec.Step <= 0 {
		return spatial.NewGrid(nil)
	}
	rows := int(math.Round((spec.LatMax-spec.LatMin)/spec.Step)) + 1
	cols := int(math.Round((spec.LonMax-spec.LonMin)/spec.Step)) + 1

	cells := make([]spatial.Cell, 0, rows*cols)
	for r := 0; r < rows; r++ {
		lat := spec.LatMin + float64(r)*spec.Step
		for c := 0; c < cols; c++ {
			lon := spec.LonMin + float64(c)*spec.Step
			cells = append(cells, spatial.Cell{
				Lat:     lat,
				Lon:     lon,
				AQI:     AirAsAQI(src.Value(LayerAir, lat, lon)),
				Noise:   src.Value(LayerNoise, lat, lon),
				Traffic: src.Value(LayerTraffic, lat, lon),
			})
		}
	}
	return spatial.NewGrid(cells)
}
