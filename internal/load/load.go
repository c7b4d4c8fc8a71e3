// Package load forecasts how busy a program is at a given hour.
package load

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// DefaultLoad is reported for programs or hours without an entry.
const DefaultLoad = 0.5

// DefaultThreshold is the load below which a slot counts as quiet.
const DefaultThreshold = 0.5

// ErrInvalidLoad indicates a table entry outside [0, 1] or an hour outside 0–23.
var ErrInvalidLoad = errors.New("invalid load table")

// Day holds one load value per hour of day. Missing hours are absent.
type Day map[int]float64

// Table maps program ids to their daily load profile.
type Table map[int64]Day

// Wait is the time until a quiet slot.
type Wait struct {
	Hours   int       `json:"hours"`
	Minutes int       `json:"minutes"`
	At      time.Time `json:"at"`
}

// Duration returns the wait as a time.Duration.
func (w Wait) Duration() time.Duration {
	return time.Duration(w.Hours)*time.Hour + time.Duration(w.Minutes)*time.Minute
}

// Forecaster answers load queries from a read-only table.
type Forecaster struct {
	table     Table
	synthetic bool
}

// NewForecaster creates a forecaster. A nil table reports DefaultLoad everywhere.
func NewForecaster(table Table) *Forecaster {
	return &Forecaster{table: table}
}

// NewSyntheticForecaster creates a forecaster that answers for programs
// missing from table with their synthesized profile instead of DefaultLoad.
// The catalogue can change under it without a rebuild.
func NewSyntheticForecaster(table Table) *Forecaster {
	return &Forecaster{table: table, synthetic: true}
}

// LoadAt returns the load for the program during the hour containing t.
func (f *Forecaster) LoadAt(id int64, t time.Time) float64 {
	return f.hourLoad(id, t.Hour())
}

func (f *Forecaster) hourLoad(id int64, hour int) float64 {
	day, ok := f.table[id]
	if !ok {
		if f.synthetic {
			return synthesized(id, hour)
		}
		return DefaultLoad
	}
	v, ok := day[hour]
	if !ok {
		return DefaultLoad
	}
	return v
}

// NextLowLoad scans the next 24 whole hours after now and returns the wait
// until the start of the first one whose load is below threshold. The current
// hour is never returned, even if it is already quiet.
func (f *Forecaster) NextLowLoad(id int64, now time.Time, threshold float64) (Wait, bool) {
	start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())

	for h := 1; h <= 24; h++ {
		slot := start.Add(time.Duration(h) * time.Hour)
		if f.hourLoad(id, slot.Hour()) >= threshold {
			continue
		}
		total := h*60 - now.Minute()
		if now.Second() > 0 || now.Nanosecond() > 0 {
			total--
		}
		return Wait{Hours: total / 60, Minutes: total % 60, At: slot}, true
	}
	return Wait{}, false
}

// Synthesize builds a deterministic daily profile for each id: quiet nights,
// a morning peak (9–11), a busier afternoon (14–17) and an evening shoulder
// (18–20), each hour hashed from the id so programs differ.
func Synthesize(ids []int64) Table {
	table := make(Table, len(ids))
	for _, id := range ids {
		day := make(Day, 24)
		for h := 0; h < 24; h++ {
			day[h] = synthesized(id, h)
		}
		table[id] = day
	}
	return table
}

func synthesized(id int64, hour int) float64 {
	lo, hi := window(hour)
	return lo + (hi-lo)*hashUnit(id, hour)
}

func window(hour int) (float64, float64) {
	switch {
	case hour >= 9 && hour <= 11:
		return 0.7, 0.95
	case hour >= 14 && hour <= 17:
		return 0.8, 1.0
	case hour >= 18 && hour <= 20:
		return 0.6, 0.8
	case hour >= 22 || hour <= 6:
		return 0.2, 0.35
	default:
		return 0.3, 0.5
	}
}

func hashUnit(id int64, hour int) float64 {
	v := math.Sin(float64(id)*12.9898+float64(hour)*78.233) * 43758.5453
	return v - math.Floor(v)
}

// Decode reads a table from JSON of the form {"<id>": {"<hour>": load}}.
func Decode(r io.Reader) (Table, error) {
	var raw map[string]map[string]float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLoad, err)
	}

	table := make(Table, len(raw))
	for idStr, hours := range raw {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: program id %q", ErrInvalidLoad, idStr)
		}
		day := make(Day, len(hours))
		for hStr, v := range hours {
			h, err := strconv.Atoi(hStr)
			if err != nil || h < 0 || h > 23 {
				return nil, fmt.Errorf("%w: hour %q for program %d", ErrInvalidLoad, hStr, id)
			}
			if math.IsNaN(v) || v < 0 || v > 1 {
				return nil, fmt.Errorf("%w: load %v at hour %d for program %d", ErrInvalidLoad, v, h, id)
			}
			day[h] = v
		}
		table[id] = day
	}
	return table, nil
}
