package scale

import (
	"math"
	"time"
)

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// timeIntervals are the candidate spacings of time axis ticks, in milliseconds.
var timeIntervals = []float64{
	float64(time.Second / time.Millisecond),
	float64(5 * time.Second / time.Millisecond),
	float64(15 * time.Second / time.Millisecond),
	float64(30 * time.Second / time.Millisecond),
	float64(time.Minute / time.Millisecond),
	float64(5 * time.Minute / time.Millisecond),
	float64(15 * time.Minute / time.Millisecond),
	float64(30 * time.Minute / time.Millisecond),
	float64(time.Hour / time.Millisecond),
	float64(3 * time.Hour / time.Millisecond),
	float64(6 * time.Hour / time.Millisecond),
	float64(12 * time.Hour / time.Millisecond),
	float64(24 * time.Hour / time.Millisecond),
	float64(2 * 24 * time.Hour / time.Millisecond),
	float64(7 * 24 * time.Hour / time.Millisecond),
	float64(30 * 24 * time.Hour / time.Millisecond),
	float64(90 * 24 * time.Hour / time.Millisecond),
	float64(365 * 24 * time.Hour / time.Millisecond),
}

// tickStep returns a 1, 2 or 5 times power-of-ten step giving roughly count ticks.
func tickStep(lo, hi float64, count int) float64 {
	step0 := math.Abs(hi-lo) / float64(count)
	step1 := math.Pow(10, math.Floor(math.Log10(step0)))
	err := step0 / step1
	switch {
	case err >= e10:
		step1 *= 10
	case err >= e5:
		step1 *= 5
	case err >= e2:
		step1 *= 2
	}
	return step1
}

// LinearTicks returns round tick values inside d, approximately count of them.
func LinearTicks(d Interval, count int) []float64 {
	lo, hi := d.Lo, d.Hi
	if lo > hi {
		lo, hi = hi, lo
	}
	if count <= 0 || math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil
	}
	if lo == hi {
		return []float64{lo}
	}

	step := tickStep(lo, hi, count)
	if step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return nil
	}

	var ticks []float64
	if step < 1 {
		// dividing by the inverse keeps 0.1-style steps free of binary rounding noise
		inc := math.Round(1 / step)
		start, stop := math.Ceil(lo*inc), math.Floor(hi*inc)
		for i := start; i <= stop; i++ {
			ticks = append(ticks, i/inc)
		}
		return ticks
	}

	start, stop := math.Ceil(lo/step), math.Floor(hi/step)
	for i := start; i <= stop; i++ {
		ticks = append(ticks, i*step)
	}
	return ticks
}

// Ticks returns tick values for the scale's domain.
//
// Log scales tick on powers of the base, adding integer multiples when the
// domain covers few decades, and fall back to linear ticks when fewer than two
// powers fall inside the domain.
func (s Scale) Ticks(count int) []float64 {
	if s.kind != Log || s.negative() || s.domain.Lo <= 0 {
		return LinearTicks(s.domain, count)
	}

	lo, hi := s.domain.Lo, s.domain.Hi
	if lo > hi {
		lo, hi = hi, lo
	}
	kLo := math.Floor(s.Transform(lo))
	kHi := math.Ceil(s.Transform(hi))
	dense := kHi-kLo < float64(count)/2 && s.base == math.Trunc(s.base)

	var ticks []float64
	for k := kLo; k <= kHi; k++ {
		p := math.Pow(s.base, k)
		if p >= lo && p <= hi {
			ticks = append(ticks, p)
		}
		if !dense {
			continue
		}
		for m := 2.0; m < s.base; m++ {
			if v := m * p; v >= lo && v <= hi {
				ticks = append(ticks, v)
			}
		}
	}
	if len(ticks) < 2 {
		return LinearTicks(s.domain, count)
	}
	return ticks
}

// TimeTicks returns tick timestamps (Unix ms) aligned on a calendar-like
// interval so that about count ticks fall inside d.
func TimeTicks(d Interval, count int) []float64 {
	lo, hi := d.Lo, d.Hi
	if lo > hi {
		lo, hi = hi, lo
	}
	if count <= 0 || lo == hi {
		return nil
	}

	target := (hi - lo) / float64(count)
	interval := timeIntervals[len(timeIntervals)-1]
	for _, candidate := range timeIntervals {
		if candidate >= target {
			interval = candidate
			break
		}
	}
	if target > interval {
		// spans of many years use round year multiples
		interval = math.Ceil(target/interval) * interval
	}

	var ticks []float64
	for t := math.Ceil(lo/interval) * interval; t <= hi; t += interval {
		ticks = append(ticks, t)
	}
	return ticks
}
