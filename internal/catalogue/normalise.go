package catalogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// FeatureCollection is the raw ArcGIS-style catalogue document.
// Features are kept loosely typed so a single bad record cannot fail the load.
type FeatureCollection struct {
	Features []any `json:"features"`
}

// Load decodes a raw catalogue document and normalises it.
func Load(r io.Reader) (*Catalogue, LoadReport, error) {
	fc, err := Decode(r)
	if err != nil {
		return nil, LoadReport{}, err
	}
	return Normalise(fc)
}

// Decode parses a raw catalogue document without normalising its records.
// Numbers are kept as json.Number so integer ids survive intact.
func Decode(r io.Reader) (FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return FeatureCollection{}, fmt.Errorf("read catalogue: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return FeatureCollection{}, fmt.Errorf("%w: %v", ErrBadCatalogueFormat, err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return FeatureCollection{}, fmt.Errorf("%w: top level is not an object", ErrBadCatalogueFormat)
	}
	features, ok := obj["features"].([]any)
	if !ok {
		return FeatureCollection{}, fmt.Errorf("%w: missing features array", ErrBadCatalogueFormat)
	}

	return FeatureCollection{Features: features}, nil
}

// Normalise converts every feature into a Program. Records without numeric
// coordinates are dropped and counted; duplicate ids keep the first record.
func Normalise(fc FeatureCollection) (*Catalogue, LoadReport, error) {
	if fc.Features == nil {
		return nil, LoadReport{}, fmt.Errorf("%w: missing features array", ErrBadCatalogueFormat)
	}

	report := LoadReport{Total: len(fc.Features)}

	type pending struct {
		program  Program
		index    int
		explicit bool
	}

	var (
		candidates = make([]pending, 0, len(fc.Features))
		maxID      int64
	)

	for i, raw := range fc.Features {
		feature, ok := raw.(map[string]any)
		if !ok {
			report.Dropped++
			continue
		}
		p, ok := normaliseFeature(feature)
		if !ok {
			report.Dropped++
			continue
		}
		id, explicit := featureID(feature)
		if explicit {
			p.ID = id
			if id > maxID {
				maxID = id
			}
		}
		candidates = append(candidates, pending{program: p, index: i, explicit: explicit})
	}

	programs := make([]Program, 0, len(candidates))
	seen := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		if !c.explicit {
			c.program.ID = maxID + int64(c.index) + 1
		}
		if _, dup := seen[c.program.ID]; dup {
			report.Duplicates++
			continue
		}
		seen[c.program.ID] = struct{}{}
		programs = append(programs, c.program)
	}

	cat, err := FromPrograms(programs)
	if err != nil {
		return nil, report, err
	}
	report.Loaded = cat.Len()

	return cat, report, nil
}

// normaliseFeature maps a single feature. The second result is false when the
// record has no usable coordinates.
func normaliseFeature(feature map[string]any) (Program, bool) {
	attrs, _ := feature["attributes"].(map[string]any)
	if attrs == nil {
		attrs = map[string]any{}
	}
	geometry, _ := feature["geometry"].(map[string]any)

	lat, lon, ok := resolveCoordinates(attrs, geometry)
	if !ok {
		return Program{}, false
	}

	orgName := stringAttr(attrs, "org_name")
	upperName := stringAttr(attrs, "Name")
	lowerName := stringAttr(attrs, "name")

	p := Program{
		Name:        firstNonEmpty(orgName, upperName, lowerName),
		OrgName:     orgName,
		ProgramName: firstPresent(upperName, lowerName),
		Address1:    deref(stringAttr(attrs, "addrln1")),
		Address2:    stringAttr(attrs, "addrln2"),
		City:        deref(stringAttr(attrs, "city")),
		State:       deref(stringAttr(attrs, "state")),
		Zip:         stringAttr(attrs, "zip"),
		Latitude:    lat,
		Longitude:   lon,
		Phones:      stringAttr(attrs, "phones"),
		Email:       stringAttr(attrs, "email"),
		URL:         normaliseURL(firstPresent(stringAttr(attrs, "url"), stringAttr(attrs, "link"))),
		Hours:       stringAttr(attrs, "hours"),
		Description: stringAttr(attrs, "description"),
		Info1:       stringAttr(attrs, "info1"),
		Info2:       stringAttr(attrs, "info2"),
		Category1:   stringAttr(attrs, "cat1"),
		Category2:   stringAttr(attrs, "cat2"),
		Category3:   stringAttr(attrs, "cat3"),
	}
	if p.State == "" {
		p.State = DefaultState
	}
	p.Categories = FlattenCategories(p.Category1, p.Category2, p.Category3)
	p.Capabilities = InferCapabilities(p, splitList(stringAttr(attrs, "languages")), splitList(stringAttr(attrs, "insurance")))

	return p, true
}

// coordinateSources lists the attribute pairs tried in order before geometry.
var coordinateSources = [][2]string{
	{"latitude", "longitude"},
	{"LATITUDE", "LONGITUDE"},
	{"POINT_Y", "POINT_X"},
}

func resolveCoordinates(attrs, geometry map[string]any) (float64, float64, bool) {
	for _, src := range coordinateSources {
		if lat, lon, ok := coordinatePair(attrs, src[0], src[1]); ok {
			return lat, lon, true
		}
	}
	if geometry != nil {
		if lat, lon, ok := coordinatePair(geometry, "y", "x"); ok {
			return lat, lon, true
		}
	}
	return 0, 0, false
}

func coordinatePair(m map[string]any, latKey, lonKey string) (float64, float64, bool) {
	lat, ok := numberAttr(m, latKey)
	if !ok {
		return 0, 0, false
	}
	lon, ok := numberAttr(m, lonKey)
	if !ok {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

func numberAttr(m map[string]any, key string) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch v := m[key].(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var idKeys = []string{"OBJECTID", "objectid", "FID"}

func featureID(feature map[string]any) (int64, bool) {
	attrs, _ := feature["attributes"].(map[string]any)
	for _, key := range idKeys {
		f, ok := numberAttr(attrs, key)
		if !ok || f != math.Trunc(f) {
			continue
		}
		return int64(f), true
	}
	return 0, false
}

// stringAttr returns the trimmed string form of an attribute, or nil when the
// attribute is missing, empty, or not a scalar.
func stringAttr(m map[string]any, key string) *string {
	var s string
	switch v := m[key].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// normaliseURL prefixes https:// when the URL has no http(s) scheme.
func normaliseURL(u *string) *string {
	if u == nil {
		return nil
	}
	s := *u
	lower := strings.ToLower(s)
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(lower, scheme) {
			s = scheme + s[len(scheme):]
			return &s
		}
	}
	s = "https://" + s
	return &s
}

// FlattenCategories splits each raw category field on commas and returns the
// trimmed, non-empty, de-duplicated values in first-appearance order.
func FlattenCategories(fields ...*string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{})
	for _, f := range fields {
		if f == nil {
			continue
		}
		for _, part := range strings.Split(*f, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func splitList(s *string) []string {
	if s == nil {
		return nil
	}
	return FlattenCategories(s)
}

func firstNonEmpty(values ...*string) string {
	if v := firstPresent(values...); v != nil {
		return *v
	}
	return UnnamedProgram
}

func firstPresent(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
