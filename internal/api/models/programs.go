package models

import (
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/load"
	"github.com/calmroute/calmroute/internal/recommend"
)

// ProgramQueryRequest is the body of POST /v1/programs:query and
// POST /v1/recommendations.
type ProgramQueryRequest struct {
	Filter recommend.Filter `json:"filter"`

	// User is the caller's location. Without it distances are unknown and
	// distance filtering is skipped.
	User *Point `json:"user,omitempty"`

	// ArrivalAt annotates each program with its load at that time.
	ArrivalAt *Timestamp `json:"arrivalAt,omitempty"`

	// Limit caps the number of programs returned (0 means no cap).
	Limit int `json:"limit,omitempty"`
}

// ProgramQueryResponse lists visible programs with the menus for the next
// round of filtering.
type ProgramQueryResponse struct {
	Programs   []catalogue.Program `json:"programs"`
	Total      int                 `json:"total"`
	Cities     []string            `json:"cities"`
	Categories []string            `json:"categories"`
}

// RecommendationsResponse lists ranked recommendations.
type RecommendationsResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Total           int                        `json:"total"`
}

// ProgramLoad is the body of GET /v1/programs/{programId}/load.
type ProgramLoad struct {
	ProgramID int64     `json:"programId"`
	At        Timestamp `json:"at"`
	Load      float64   `json:"load"`
	Threshold float64   `json:"threshold"`
	NextLow   *LowSlot  `json:"nextLow,omitempty"`
}

// LowSlot is the next quiet hour and how long until it starts.
type LowSlot struct {
	Hours   int       `json:"hours"`
	Minutes int       `json:"minutes"`
	At      Timestamp `json:"at"`
}

// NewLowSlot converts a forecaster wait.
func NewLowSlot(w load.Wait) *LowSlot {
	return &LowSlot{Hours: w.Hours, Minutes: w.Minutes, At: Timestamp(w.At)}
}
