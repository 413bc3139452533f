// Package downsample reduces time series to a point budget derived from the
// chart width.
//
// Reduction works on buckets: the first and last input points are always kept
// and the points in between are split into equally sized buckets, each of
// which contributes a fixed number of output points chosen by the Method:
//   - Average: one point at the mean timestamp and the mean value
//   - MinMax: the open, low, high and close points of the bucket
//   - LargestTriangleOneBucket: the point with the largest effective area
//   - LargestTriangleThreeBucket: the point forming the largest triangle with
//     the previously selected point and the mean of the next bucket
//
// An input that already fits the budget is returned unchanged, so applying a
// method to its own output at the same width is a no-op.
package downsample

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"chartview/internal/model"
	"chartview/internal/scale"

	"github.com/shopspring/decimal"
)

// Method selects the bucket reduction.
type Method string

const (
	// None keeps every point
	None Method = ""

	// Average emits the mean point of each bucket
	Average Method = "average"

	// MinMax emits the open, low, high and close point of each bucket
	MinMax Method = "min-max"

	// LargestTriangleOneBucket emits the point with the largest effective area of each bucket
	LargestTriangleOneBucket Method = "largest-triangle-one-bucket"

	// LargestTriangleThreeBucket emits the point with the largest triangle across neighbouring buckets
	LargestTriangleThreeBucket Method = "largest-triangle-three-bucket"
)

// ErrUnknownMethod is returned when a method name is not recognised.
var ErrUnknownMethod = errors.New("unknown downsample method")

// ParseMethod validates a method name coming from configuration.
func ParseMethod(name string) (Method, error) {
	switch m := Method(name); m {
	case None, Average, MinMax, LargestTriangleOneBucket, LargestTriangleThreeBucket:
		return m, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Multiplier returns the number of output points per pixel for a method.
func Multiplier(m Method) int {
	if m == MinMax {
		return 4
	}
	return 1
}

// Budget returns the maximum number of points a method produces for a width.
func Budget(m Method, width int) int {
	b := Multiplier(m) * width
	if b < 2 {
		b = 2
	}
	return b
}

// Downsample reduces points to the budget of the method at the given width.
//
// This method never modifies its input. It returns the input slice itself when
// no reduction is needed: with method None, a non-positive width, or when the
// input is already within the budget. Otherwise it returns a new slice that
// starts with the first input point, ends with the last one, stays inside the
// value range of the input and holds at most Budget(m, width) points.
func Downsample(points []model.Point, m Method, width int) []model.Point {
	if m == None || width <= 0 {
		return points
	}
	budget := Budget(m, width)
	if len(points) <= budget {
		return points
	}

	switch m {
	case Average:
		return average(points, budget)
	case MinMax:
		return minMax(points, budget)
	case LargestTriangleOneBucket:
		return largestTriangleOneBucket(points, budget)
	case LargestTriangleThreeBucket:
		return largestTriangleThreeBucket(points, budget)
	default:
		return points
	}
}

// Series downsamples the points of every plottable series and returns new series values.
func Series(series []model.Series, m Method, width int) []model.Series {
	out := make([]model.Series, len(series))
	for i, s := range series {
		if !s.Plottable() {
			out[i] = s
			continue
		}
		out[i] = s.WithPoints(Downsample(s.Points, m, width))
	}
	return out
}

// Bisect returns the index of the first point at or after t, searching from lo.
func Bisect(points []model.Point, t int64, lo int) int {
	if lo < 0 {
		lo = 0
	}
	if lo > len(points) {
		return len(points)
	}
	return lo + sort.Search(len(points)-lo, func(i int) bool {
		return points[lo+i].T >= t
	})
}

// VisibleSlice returns the points inside the window plus one point beyond each
// edge, so lines leaving the window are not cut at the border.
// A series lying entirely outside the window yields an empty slice.
func VisibleSlice(points []model.Point, window scale.Interval) []model.Point {
	n := len(points)
	if n == 0 || float64(points[0].T) > window.Hi || float64(points[n-1].T) < window.Lo {
		return []model.Point{}
	}

	start := Bisect(points, int64(math.Ceil(window.Lo)), 0)
	if start > 0 {
		start--
	}
	end := Bisect(points, int64(math.Floor(window.Hi))+1, start) + 1
	if end > n {
		end = n
	}
	return points[start:end]
}

// bucketBounds returns the half-open index range of middle bucket i out of count.
// Middle points are points[1 : len-1].
func bucketBounds(n, count, i int) (int, int) {
	size := float64(n-2) / float64(count)
	lo := 1 + int(math.Floor(float64(i)*size))
	hi := 1 + int(math.Floor(float64(i+1)*size))
	if i == count-1 {
		hi = n - 1
	}
	return lo, hi
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// average emits one mean point per bucket. Values are summed as decimals so
// long buckets of large values do not lose precision.
func average(points []model.Point, budget int) []model.Point {
	n := len(points)
	count := budget - 2
	out := make([]model.Point, 0, budget)
	out = append(out, points[0])

	for i := 0; i < count; i++ {
		lo, hi := bucketBounds(n, count, i)
		base := points[lo].T
		sum := decimal.Zero
		var offsets int64
		valid := 0
		for _, p := range points[lo:hi] {
			offsets += p.T - base
			if !finite(p.V) {
				continue
			}
			sum = sum.Add(decimal.NewFromFloat(p.V))
			valid++
		}
		if valid == 0 {
			continue
		}
		mean := sum.Div(decimal.NewFromInt(int64(valid))).InexactFloat64()
		out = append(out, model.Point{
			T: base + offsets/int64(hi-lo),
			V: clampTo(mean, points[lo:hi]),
		})
	}

	return append(out, points[n-1])
}

// clampTo keeps a rounded mean inside the finite value range of its bucket.
func clampTo(v float64, points []model.Point) float64 {
	lo, hi, ok := model.ValueExtent(points)
	if !ok {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}

// ohlc tracks the open, high, low and close indices of a bucket.
type ohlc struct {
	open, high, low, close int
}

// update folds point i into the bucket the way a candle absorbs a trade.
func (c *ohlc) update(points []model.Point, i int) {
	if c.open < 0 {
		c.open, c.high, c.low, c.close = i, i, i, i
		return
	}
	v := points[i].V
	if v > points[c.high].V || !finite(points[c.high].V) {
		c.high = i
	}
	if v < points[c.low].V || !finite(points[c.low].V) {
		c.low = i
	}
	c.close = i
}

// indices returns the distinct bucket indices in time order.
func (c ohlc) indices() []int {
	idx := []int{c.open, c.high, c.low, c.close}
	sort.Ints(idx)
	out := idx[:1]
	for _, v := range idx[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// minMax emits up to four points per bucket so spikes survive reduction.
func minMax(points []model.Point, budget int) []model.Point {
	n := len(points)
	count := (budget - 2) / 4
	if count < 1 {
		return []model.Point{points[0], points[n-1]}
	}
	out := make([]model.Point, 0, budget)
	out = append(out, points[0])

	for i := 0; i < count; i++ {
		lo, hi := bucketBounds(n, count, i)
		candle := ohlc{open: -1}
		for j := lo; j < hi; j++ {
			candle.update(points, j)
		}
		if candle.open < 0 {
			continue
		}
		for _, j := range candle.indices() {
			out = append(out, points[j])
		}
	}

	return append(out, points[n-1])
}

// triangleArea returns twice the area of the triangle a, b, c.
func triangleArea(a, b, c model.Point) float64 {
	return math.Abs(float64(a.T-c.T)*(b.V-a.V) - float64(a.T-b.T)*(c.V-a.V))
}

// largestTriangleOneBucket keeps the point of each bucket with the largest
// triangle formed with its direct neighbours.
func largestTriangleOneBucket(points []model.Point, budget int) []model.Point {
	n := len(points)
	count := budget - 2
	out := make([]model.Point, 0, budget)
	out = append(out, points[0])

	for i := 0; i < count; i++ {
		lo, hi := bucketBounds(n, count, i)
		best, bestArea := lo, -1.0
		for j := lo; j < hi; j++ {
			area := triangleArea(points[j-1], points[j], points[j+1])
			if area > bestArea {
				best, bestArea = j, area
			}
		}
		out = append(out, points[best])
	}

	return append(out, points[n-1])
}

// largestTriangleThreeBucket is the classic LTTB reduction.
func largestTriangleThreeBucket(points []model.Point, budget int) []model.Point {
	n := len(points)
	count := budget - 2
	out := make([]model.Point, 0, budget)
	out = append(out, points[0])

	prev := points[0]
	for i := 0; i < count; i++ {
		lo, hi := bucketBounds(n, count, i)

		// mean of the next bucket, or the last point for the final bucket
		next := points[n-1]
		if i < count-1 {
			nlo, nhi := bucketBounds(n, count, i+1)
			var st, sv float64
			for _, p := range points[nlo:nhi] {
				st += float64(p.T)
				sv += p.V
			}
			k := float64(nhi - nlo)
			next = model.Point{T: int64(st / k), V: sv / k}
		}

		best, bestArea := lo, -1.0
		for j := lo; j < hi; j++ {
			area := triangleArea(prev, points[j], next)
			if area > bestArea {
				best, bestArea = j, area
			}
		}
		prev = points[best]
		out = append(out, prev)
	}

	return append(out, points[n-1])
}
