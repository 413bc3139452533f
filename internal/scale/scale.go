// Package scale provides the coordinate scales of the chart view engine.
//
// A Scale is a small immutable value mapping a data-space domain onto a
// pixel-space range. Domain and range transitions return new values
// (WithDomain, WithRange), which keeps the difference between a redraw (domain
// changed) and a resize (range changed) visible in the types that flow through
// the chart. The Manager groups the four scales of a chart: x and y for the
// main view, x2 and y2 for the overview strip.
package scale

import (
	"math"

	"chartview/internal/model"
)

// Interval is a closed numeric interval [Lo, Hi].
type Interval struct {
	Lo float64
	Hi float64
}

// Span returns Hi - Lo.
func (i Interval) Span() float64 {
	return i.Hi - i.Lo
}

// Contains reports whether v lies inside the interval, bounds included.
func (i Interval) Contains(v float64) bool {
	return v >= i.Lo && v <= i.Hi
}

// Intersects reports whether the two intervals overlap.
func (i Interval) Intersects(o Interval) bool {
	return i.Lo <= o.Hi && o.Lo <= i.Hi
}

// Union returns the smallest interval covering both.
func (i Interval) Union(o Interval) Interval {
	return Interval{Lo: math.Min(i.Lo, o.Lo), Hi: math.Max(i.Hi, o.Hi)}
}

// Kind identifies the transform a Scale applies before the linear mapping.
type Kind int

const (
	// Linear applies no transform
	Linear Kind = iota

	// Log applies log_base
	Log

	// Pow applies a signed power
	Pow
)

const (
	defaultLogBase  = 10
	defaultExponent = 1
)

// Scale maps a domain onto a range through an optional transform.
type Scale struct {
	kind     Kind
	domain   Interval
	rng      Interval
	base     float64
	exponent float64
}

// NewLinear returns a linear scale.
func NewLinear(domain, rng Interval) Scale {
	return Scale{kind: Linear, domain: domain, rng: rng, base: defaultLogBase, exponent: defaultExponent}
}

// NewLog returns a logarithmic scale. A non-positive or unit base falls back to 10.
func NewLog(base float64, domain, rng Interval) Scale {
	if base <= 0 || base == 1 || math.IsNaN(base) {
		base = defaultLogBase
	}
	return Scale{kind: Log, domain: domain, rng: rng, base: base, exponent: defaultExponent}
}

// NewPow returns a power scale. A zero or NaN exponent falls back to 1.
func NewPow(exponent float64, domain, rng Interval) Scale {
	if exponent == 0 || math.IsNaN(exponent) {
		exponent = defaultExponent
	}
	return Scale{kind: Pow, domain: domain, rng: rng, base: defaultLogBase, exponent: exponent}
}

// ForConfig returns an unfitted y scale matching the configuration.
func ForConfig(cfg model.YScaleConfig) Scale {
	unit := Interval{Lo: 0, Hi: 1}
	switch cfg.Type {
	case model.LogScale:
		return NewLog(cfg.Base, Interval{Lo: 1, Hi: 10}, unit)
	case model.PowerScale:
		return NewPow(cfg.Exponent, unit, unit)
	default:
		return NewLinear(unit, unit)
	}
}

// Kind returns the transform kind.
func (s Scale) Kind() Kind { return s.kind }

// Domain returns the data-space interval.
func (s Scale) Domain() Interval { return s.domain }

// Range returns the pixel-space interval.
func (s Scale) Range() Interval { return s.rng }

// WithDomain returns a copy of the scale with a new domain.
func (s Scale) WithDomain(d Interval) Scale {
	s.domain = d
	return s
}

// WithRange returns a copy of the scale with a new range.
func (s Scale) WithRange(r Interval) Scale {
	s.rng = r
	return s
}

// Transform maps a data value into the scale's plain linear space.
//
// For a linear scale this is the identity; for a log scale it is log_base(v)
// (mirrored for negative domains); for a power scale it is sign(v)*|v|^exponent.
// Buffers around a fitted domain are computed in this space so log and power
// scales get proportionally sensible padding.
func (s Scale) Transform(v float64) float64 {
	switch s.kind {
	case Log:
		if s.negative() {
			return -math.Log(-v) / math.Log(s.base)
		}
		return math.Log(v) / math.Log(s.base)
	case Pow:
		if v < 0 {
			return -math.Pow(-v, s.exponent)
		}
		return math.Pow(v, s.exponent)
	default:
		return v
	}
}

// Untransform is the inverse of Transform.
func (s Scale) Untransform(t float64) float64 {
	switch s.kind {
	case Log:
		if s.negative() {
			return -math.Pow(s.base, -t)
		}
		return math.Pow(s.base, t)
	case Pow:
		if t < 0 {
			return -math.Pow(-t, 1/s.exponent)
		}
		return math.Pow(t, 1/s.exponent)
	default:
		return t
	}
}

// negative reports whether a log scale works on a negative domain.
func (s Scale) negative() bool {
	return s.domain.Lo < 0 && s.domain.Hi <= 0
}

// Map converts a data value into a pixel position.
// A degenerate domain maps every value onto the middle of the range.
func (s Scale) Map(v float64) float64 {
	t0 := s.Transform(s.domain.Lo)
	t1 := s.Transform(s.domain.Hi)
	if t1 == t0 || math.IsNaN(t1-t0) {
		return s.rng.Lo + s.rng.Span()/2
	}
	return s.rng.Lo + (s.Transform(v)-t0)/(t1-t0)*s.rng.Span()
}

// Invert converts a pixel position back into a data value.
// A degenerate range inverts onto the lower domain bound.
func (s Scale) Invert(px float64) float64 {
	if s.rng.Span() == 0 {
		return s.domain.Lo
	}
	t0 := s.Transform(s.domain.Lo)
	t1 := s.Transform(s.domain.Hi)
	return s.Untransform(t0 + (px-s.rng.Lo)/s.rng.Span()*(t1-t0))
}

// InvertInterval inverts both ends of a pixel interval.
func (s Scale) InvertInterval(px Interval) Interval {
	return Interval{Lo: s.Invert(px.Lo), Hi: s.Invert(px.Hi)}
}

// MapInterval maps both ends of a data interval.
func (s Scale) MapInterval(d Interval) Interval {
	return Interval{Lo: s.Map(d.Lo), Hi: s.Map(d.Hi)}
}
