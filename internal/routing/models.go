// Package routing builds candidate routes between a user and a program under
// several optimisation profiles and scores them by environmental burden.
package routing

import (
	"errors"
	"fmt"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrOutOfRangeCoordinate indicates an origin or destination outside valid ranges.
	ErrOutOfRangeCoordinate = geo.ErrOutOfRangeCoordinate
	// ErrUnknownProfile indicates an unsupported routing profile.
	ErrUnknownProfile = errors.New("unknown routing profile")
	// ErrUnknownMode indicates an unsupported travel mode.
	ErrUnknownMode = errors.New("unknown travel mode")
	// ErrInvalidWeights indicates burden weights outside [0, 1].
	ErrInvalidWeights = burden.ErrInvalidWeights
)

// Profile is a routing intent.
type Profile string

const (
	ProfileFastest   Profile = "fastest"
	ProfileLowStress Profile = "lowStress"
	ProfileBalanced  Profile = "balanced"
)

// Profiles lists every profile in the order RoutesAll returns them.
var Profiles = []Profile{ProfileFastest, ProfileLowStress, ProfileBalanced}

// ParseProfile accepts the canonical names plus the dashboard's "low-stress".
func ParseProfile(s string) (Profile, error) {
	switch s {
	case string(ProfileFastest):
		return ProfileFastest, nil
	case string(ProfileLowStress), "low-stress", "lowstress":
		return ProfileLowStress, nil
	case string(ProfileBalanced):
		return ProfileBalanced, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

// TravelMode determines travel speed.
type TravelMode string

const (
	ModeWalking   TravelMode = "walking"
	ModeDriving   TravelMode = "driving"
	ModeTransit   TravelMode = "transit"
	ModeRideshare TravelMode = "rideshare"
)

// speedsMph are average city speeds per mode.
var speedsMph = map[TravelMode]float64{
	ModeWalking:   3,
	ModeDriving:   25,
	ModeTransit:   15,
	ModeRideshare: 20,
}

// SpeedMph returns the average speed for the mode.
func (m TravelMode) SpeedMph() (float64, bool) {
	v, ok := speedsMph[m]
	return v, ok
}

// ParseMode converts a name to a TravelMode.
func ParseMode(s string) (TravelMode, error) {
	m := TravelMode(s)
	if _, ok := speedsMph[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Request describes one route computation.
type Request struct {
	Origin      geo.Point
	Destination geo.Point
	Mode        TravelMode
	Profile     Profile
	Weights     burden.Weights
}

// Segment is the exposome sampled at the midpoint of two consecutive waypoints.
// AQI is on [0, 300]; every other exposure is on [0, 1].
type Segment struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Crowd   float64 `json:"crowd"`
	Noise   float64 `json:"noise"`
	AQI     float64 `json:"aqi"`
	Green   float64 `json:"green"`
	Traffic float64 `json:"traffic"`
	Heat    float64 `json:"heat"`
	Safety  float64 `json:"safety"`
	Burden  float64 `json:"burden"`
}

// Inputs returns the values the burden formula reads.
func (s Segment) Inputs() burden.Inputs {
	return burden.Inputs{
		Crowd:   s.Crowd,
		Noise:   s.Noise,
		AQI:     s.AQI,
		Green:   s.Green,
		Traffic: s.Traffic,
	}
}

// ScoredRoute is a candidate route with its burden and travel estimate.
type ScoredRoute struct {
	ID              string                     `json:"id"`
	Profile         Profile                    `json:"profile"`
	Mode            TravelMode                 `json:"mode"`
	Waypoints       []geo.Point                `json:"waypoints"`
	Segments        []Segment                  `json:"segments"`
	DistanceMiles   float64                    `json:"distanceMiles"`
	DurationMinutes float64                    `json:"durationMinutes"`
	AverageBurden   float64                    `json:"averageBurden"`
	BurdenScore     float64                    `json:"burdenScore"`
	LayerAverages   map[exposome.Layer]float64 `json:"layerAverages"`
	AverageAQI      float64                    `json:"averageAqi"`
	Explanation     string                     `json:"explanation"`
}

// BurdenSummary is a route composite under exposome settings.
type BurdenSummary struct {
	Score         int                        `json:"score"`
	LayerAverages map[exposome.Layer]float64 `json:"layerAverages"`
}

// Error provides detail about a rejected routing request.
type Error struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
