// Package gesture reconciles the three ways a user changes the visible time
// window of a chart into a single x-domain.
//
// A chart exposes three gesture channels:
//   - the overview brush: a pixel selection on the overview strip
//   - the zoom: a scale and translate transform driven by wheel or drag
//   - the main brush: a drag-to-zoom overlay drawn on the main chart
//
// Every accepted gesture updates the main x-domain and then writes the new
// window back into the other two channels so that all three representations
// agree. Those write-backs are tagged with a sync Source; a handler that
// receives a sync-tagged event only records the new representation and
// returns, which is what prevents the channels from feeding each other in a
// loop.
//
// A Coordinator is not safe for concurrent use. Charts call it while holding
// their own lock.
package gesture

import (
	"math"

	"chartview/internal/model"
	"chartview/internal/scale"

	"github.com/rs/zerolog/log"
)

// DefaultMaxScaleExtent is the minimum zoom-in factor allowed relative to the overview.
const DefaultMaxScaleExtent = 100

// Source identifies who produced a gesture event.
type Source int

const (
	// SourceUser marks an event produced by direct user input
	SourceUser Source = iota

	// SourceBrushSync marks a write-back from the overview brush handler
	SourceBrushSync

	// SourceZoomSync marks a write-back from the zoom handler
	SourceZoomSync

	// SourceMainBrushSync marks a write-back from the main brush handler
	SourceMainBrushSync

	// SourceRestore marks a programmatic restore after a resize or preset
	SourceRestore
)

// String returns a short name for logging.
func (s Source) String() string {
	switch s {
	case SourceUser:
		return "user"
	case SourceBrushSync:
		return "brush-sync"
	case SourceZoomSync:
		return "zoom-sync"
	case SourceMainBrushSync:
		return "main-brush-sync"
	case SourceRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// IsSync reports whether the event is a write-back rather than user input.
func (s Source) IsSync() bool {
	return s != SourceUser
}

// Transform is a zoom transform: pixel' = pixel*K + X.
type Transform struct {
	K float64 // Scale factor, 1 shows the whole overview
	X float64 // Horizontal translate in pixels
}

// Identity is the transform showing the whole overview.
var Identity = Transform{K: 1}

// RescaleX returns a copy of the overview scale whose domain is the window seen
// through the transform.
func (t Transform) RescaleX(overview scale.Scale) scale.Scale {
	r := overview.Range()
	return overview.WithDomain(overview.InvertInterval(scale.Interval{
		Lo: (r.Lo - t.X) / t.K,
		Hi: (r.Hi - t.X) / t.K,
	}))
}

// TransformFor returns the transform that shows domain d through the overview scale.
func TransformFor(overview scale.Scale, d scale.Interval) Transform {
	px := overview.MapInterval(d)
	if px.Span() <= 0 {
		return Identity
	}
	k := overview.Range().Span() / px.Span()
	return Transform{K: k, X: overview.Range().Lo - px.Lo*k}
}

// BrushEvent reports a brush selection in pixels of the brushed scale.
// A nil Selection means the brush was cleared.
type BrushEvent struct {
	Selection *scale.Interval
	Source    Source
}

// ZoomEvent reports a new zoom transform.
type ZoomEvent struct {
	Transform Transform
	Wheel     bool // Produced by a wheel event
	Source    Source
}

// View is the chart side of the coordinator.
type View interface {
	// MainX returns the main x scale
	MainX() scale.Scale

	// OverviewX returns the overview x scale
	OverviewX() scale.Scale

	// ApplyXDomain sets the main x-domain, re-slices the series, refits y and redraws
	ApplyXDomain(d scale.Interval)
}

// State is the visual representation of the three gesture channels.
type State struct {
	Selection   *scale.Interval // Overview brush in overview pixels, nil when showing everything
	Transform   Transform       // Current zoom transform
	MainOverlay *scale.Interval // Main brush overlay in main pixels, normally nil
}

// Preset is a quick range button.
type Preset struct {
	Name    string
	Minutes int
	Enabled bool
}

// presets are the quick range buttons, from shortest to longest.
var presets = []Preset{
	{Name: "1h", Minutes: 60},
	{Name: "1d", Minutes: 60 * 24},
	{Name: "1w", Minutes: 60 * 24 * 7},
	{Name: "1mo", Minutes: 60 * 24 * 30},
	{Name: "1y", Minutes: 60 * 24 * 365},
}

// Coordinator implements the three gesture handlers of one chart.
type Coordinator struct {
	view View

	maxScaleExtent float64
	wheelEnabled   bool

	selection   *scale.Interval
	transform   Transform
	mainOverlay *scale.Interval
}

// NewCoordinator creates a coordinator driving the given view.
// Wheel zoom starts disabled.
func NewCoordinator(view View) *Coordinator {
	return &Coordinator{
		view:           view,
		maxScaleExtent: DefaultMaxScaleExtent,
		transform:      Identity,
	}
}

// SetWheelEnabled turns wheel zoom on or off. Drag zoom is unaffected.
func (c *Coordinator) SetWheelEnabled(enabled bool) {
	c.wheelEnabled = enabled
}

// WheelEnabled reports whether wheel events are accepted.
func (c *Coordinator) WheelEnabled() bool {
	return c.wheelEnabled
}

// MaxScaleExtent returns the largest zoom factor relative to the overview.
func (c *Coordinator) MaxScaleExtent() float64 {
	return c.maxScaleExtent
}

// SetZoomExtent recomputes the maximum zoom factor from the series.
//
// This method allows zooming until two adjacent samples of the densest series
// span half the overview width, and never less than DefaultMaxScaleExtent.
func (c *Coordinator) SetZoomExtent(series []model.Series) {
	c.maxScaleExtent = DefaultMaxScaleExtent

	span := c.view.OverviewX().Domain().Span()
	minSpacing := math.Inf(1)
	for _, s := range series {
		if !s.Plottable() {
			continue
		}
		for i := 1; i < len(s.Points); i++ {
			if d := float64(s.Points[i].T - s.Points[i-1].T); d > 0 && d < minSpacing {
				minSpacing = d
			}
		}
	}
	if math.IsInf(minSpacing, 1) || span <= 0 {
		return
	}
	if extent := span / (2 * minSpacing); extent > c.maxScaleExtent {
		c.maxScaleExtent = extent
	}
}

// State returns the current visual representation of every channel.
func (c *Coordinator) State() State {
	return State{
		Selection:   c.selection,
		Transform:   c.transform,
		MainOverlay: c.mainOverlay,
	}
}

// Brushed handles an overview brush event and reports whether the x-domain changed.
//
// The selection, or the whole overview range when it is nil, is inverted
// through the overview scale to obtain the new x-domain. The zoom transform is
// then synchronised with a SourceBrushSync event.
func (c *Coordinator) Brushed(e BrushEvent) bool {
	if e.Source.IsSync() {
		c.selection = e.Selection
		return false
	}

	x2 := c.view.OverviewX()
	px := x2.Range()
	if e.Selection != nil {
		px = *e.Selection
	}
	d := ordered(x2.InvertInterval(px))
	if !(d.Lo < d.Hi) {
		return false
	}

	c.selection = e.Selection
	c.view.ApplyXDomain(d)
	c.Zoomed(ZoomEvent{Transform: TransformFor(x2, d), Source: SourceBrushSync})
	return true
}

// Zoomed handles a zoom event and reports whether the x-domain changed.
//
// The transform is clamped to the scale extent [1, MaxScaleExtent] and to a
// translate extent keeping the window inside the overview, then used to
// rescale the overview scale into the new x-domain. The overview brush is
// synchronised with a SourceZoomSync event. Wheel events are dropped while
// wheel zoom is disabled.
func (c *Coordinator) Zoomed(e ZoomEvent) bool {
	if e.Source.IsSync() {
		c.transform = e.Transform
		return false
	}
	if e.Wheel && !c.wheelEnabled {
		return false
	}

	x2 := c.view.OverviewX()
	t := c.clamp(e.Transform, x2.Range())
	d := ordered(t.RescaleX(x2).Domain())
	if !(d.Lo < d.Hi) {
		return false
	}

	c.transform = t
	c.view.ApplyXDomain(d)
	c.Brushed(BrushEvent{Selection: c.selectionFor(x2, d), Source: SourceZoomSync})
	return true
}

// BrushedMain handles a drag-to-zoom selection on the main chart.
//
// The overlay is always cleared. The selection is inverted through the main x
// scale and rejected when it would zoom in further than MaxScaleExtent allows,
// that is when (end-start)*MaxScaleExtent is strictly less than the overview
// span. An accepted window becomes the x-domain exactly, and both the overview
// brush and the zoom transform are synchronised.
func (c *Coordinator) BrushedMain(e BrushEvent) bool {
	if e.Source.IsSync() {
		c.mainOverlay = e.Selection
		return false
	}

	c.mainOverlay = nil
	if e.Selection == nil {
		return false
	}

	d := ordered(c.view.MainX().InvertInterval(*e.Selection))
	if !(d.Lo < d.Hi) {
		return false
	}

	overviewSpan := c.view.OverviewX().Domain().Span()
	if d.Span()*c.maxScaleExtent < overviewSpan {
		log.Debug().
			Float64("start", d.Lo).
			Float64("end", d.Hi).
			Float64("max_scale_extent", c.maxScaleExtent).
			Msg("Main brush selection exceeds zoom extent, ignored")
		return false
	}

	c.view.ApplyXDomain(d)
	c.syncRepresentations(d, SourceMainBrushSync)
	return true
}

// SyncToDomain sets the x-domain programmatically and aligns every channel to it.
//
// This method is used to restore the window after a resize, where the ranges
// changed but the domain must not. A domain equal to the overview domain
// clears the overview brush and resets the zoom transform.
func (c *Coordinator) SyncToDomain(d scale.Interval) bool {
	if !(d.Lo < d.Hi) {
		return false
	}
	c.view.ApplyXDomain(d)
	c.syncRepresentations(d, SourceRestore)
	return true
}

// Reset clears both brushes and shows the whole overview.
func (c *Coordinator) Reset() {
	c.mainOverlay = nil
	c.SyncToDomain(c.view.OverviewX().Domain())
}

// Presets returns the quick range buttons, enabled when the overview is longer than the preset.
func (c *Coordinator) Presets() []Preset {
	span := c.view.OverviewX().Domain().Span()
	out := make([]Preset, len(presets))
	for i, p := range presets {
		p.Enabled = span > float64(p.Minutes)*60_000
		out[i] = p
	}
	return out
}

// PresetWindow centres a window of the given length on the current x-domain.
//
// The window is clamped to the overview domain. A non-positive length selects
// the whole overview.
func (c *Coordinator) PresetWindow(minutes int) bool {
	overview := c.view.OverviewX().Domain()
	if minutes <= 0 {
		return c.SyncToDomain(overview)
	}
	interval := float64(minutes) * 60_000

	current := c.view.MainX().Domain()
	middle := (current.Lo + current.Hi) / 2
	start := math.Max(middle-interval/2, overview.Lo)
	end := math.Min(start+interval, overview.Hi)

	return c.SyncToDomain(scale.Interval{Lo: start, Hi: end})
}

// syncRepresentations writes domain d back into the brush and zoom channels.
func (c *Coordinator) syncRepresentations(d scale.Interval, source Source) {
	x2 := c.view.OverviewX()
	c.Brushed(BrushEvent{Selection: c.selectionFor(x2, d), Source: source})
	c.Zoomed(ZoomEvent{Transform: TransformFor(x2, d), Source: source})
}

// selectionFor returns the overview brush for domain d, nil when d covers the overview.
func (c *Coordinator) selectionFor(x2 scale.Scale, d scale.Interval) *scale.Interval {
	overview := x2.Domain()
	if d.Lo <= overview.Lo && d.Hi >= overview.Hi {
		return nil
	}
	px := x2.MapInterval(d)
	return &px
}

// clamp constrains a transform to the scale and translate extents.
// A clamped scale keeps the centre of the range where it was.
func (c *Coordinator) clamp(t Transform, r scale.Interval) Transform {
	k := t.K
	if math.IsNaN(k) || k < 1 {
		k = 1
	}
	if k > c.maxScaleExtent {
		k = c.maxScaleExtent
	}
	if k != t.K && t.K > 0 && !math.IsInf(t.K, 0) {
		mid := (r.Lo + r.Hi) / 2
		t.X = mid - (mid-t.X)*k/t.K
	}
	t.K = k

	// the transformed range must still cover [r.Lo, r.Hi]
	minX := r.Hi - r.Hi*t.K
	maxX := r.Lo - r.Lo*t.K
	if math.IsNaN(t.X) {
		t.X = maxX
	}
	t.X = math.Max(minX, math.Min(maxX, t.X))
	return t
}

// ordered swaps reversed bounds.
func ordered(i scale.Interval) scale.Interval {
	if i.Lo > i.Hi {
		return scale.Interval{Lo: i.Hi, Hi: i.Lo}
	}
	return i
}
