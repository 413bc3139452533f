// Package model defines core data types for the chart view engine.
//
// This package contains the fundamental data structures shared by every other
// package: time-series points and series, legend sources, annotation flags and
// the y-axis scale configuration. Timestamps are Unix milliseconds throughout so
// that scale math can work directly on float64 values without time.Time
// conversions in hot paths.
package model

import "math"

// YScaleType selects the mapping used by the main and overview y scales.
type YScaleType int

const (
	// LinearScale maps values proportionally onto pixels
	LinearScale YScaleType = iota

	// LogScale maps log_base(value) onto pixels
	LogScale

	// PowerScale maps value^exponent onto pixels
	PowerScale
)

// String returns the configuration name of the scale type.
func (t YScaleType) String() string {
	switch t {
	case LogScale:
		return "log"
	case PowerScale:
		return "power"
	default:
		return "linear"
	}
}

// Point is a single sample of a series.
type Point struct {
	T int64   // Unix timestamp in milliseconds
	V float64 // Sample value
}

// Annotation is a flag attached to a series at a point in time.
type Annotation struct {
	T      int64             // Unix timestamp in milliseconds
	Label  string            // Short label rendered on the flag
	Fields map[string]string // Free-form metadata shown in the flag tooltip
}

// Series represents one metric line of a chart.
//
// Points are sorted ascending by timestamp and are never mutated in place:
// downsampling and slicing produce new slices. A series may be flagged Invalid
// (the upstream query failed) or NoData (the query succeeded with zero points);
// both are excluded from plotting but retained for diagnostic messages.
//
// Fields:
//   - Name: Display name used by the legend and tooltips
//   - ClassToken: CSS-safe token binding visual elements to this series
//   - Color: Explicit color, empty when the palette should assign one
//   - Points: Samples sorted by timestamp
//   - Annotations: Optional flag sub-series
//   - Invalid: Query failed upstream
//   - ErrorMessage: Upstream failure description when Invalid is set
//   - NoData: Query returned nothing
type Series struct {
	Name         string
	ClassToken   string
	Color        string
	Points       []Point
	Annotations  []Annotation
	Invalid      bool
	ErrorMessage string
	NoData       bool
}

// Plottable reports whether the series can be drawn.
func (s Series) Plottable() bool {
	return !s.Invalid && !s.NoData && len(s.Points) > 0
}

// WithPoints returns a copy of the series carrying the given points.
func (s Series) WithPoints(points []Point) Series {
	s.Points = points
	return s
}

// TimeExtent returns the first and last timestamps of the series.
// ok is false for a series without points.
func (s Series) TimeExtent() (lo, hi int64, ok bool) {
	if len(s.Points) == 0 {
		return 0, 0, false
	}
	return s.Points[0].T, s.Points[len(s.Points)-1].T, true
}

// ValueExtent returns the minimum and maximum finite values of the points.
// ok is false when no finite value exists.
func ValueExtent(points []Point) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if math.IsNaN(p.V) || math.IsInf(p.V, 0) {
			continue
		}
		if p.V < lo {
			lo = p.V
		}
		if p.V > hi {
			hi = p.V
		}
		ok = true
	}
	return lo, hi, ok
}

// Source is a legend entry derived one to one from a Series.
//
// Displaying is the single source of truth for whether the corresponding line
// and tooltip row are rendered. It is only mutated by legend toggle actions.
type Source struct {
	Name       string
	ClassToken string
	Color      string
	Displaying bool
}

// YScaleConfig holds the user or chart supplied y-axis configuration.
//
// When both Min and Max are set the y-domain is pinned and never rescaled
// automatically.
type YScaleConfig struct {
	Type     YScaleType // Mapping type
	Min      *float64   // Optional lower bound
	Max      *float64   // Optional upper bound
	Base     float64    // Logarithm base, used when Type is LogScale
	Exponent float64    // Exponent, used when Type is PowerScale
}

// Pinned reports whether both bounds are fixed.
func (c YScaleConfig) Pinned() bool {
	return c.Min != nil && c.Max != nil
}
