package gesture

import (
	"testing"

	"chartview/internal/model"
	"chartview/internal/scale"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeView records applied domains the way a chart would.
type fakeView struct {
	x       scale.Scale
	x2      scale.Scale
	applied []scale.Interval
}

func newFakeView(width float64, overview scale.Interval) *fakeView {
	r := scale.Interval{Lo: 0, Hi: width}
	return &fakeView{
		x:  scale.NewLinear(overview, r),
		x2: scale.NewLinear(overview, r),
	}
}

func (v *fakeView) MainX() scale.Scale     { return v.x }
func (v *fakeView) OverviewX() scale.Scale { return v.x2 }

func (v *fakeView) ApplyXDomain(d scale.Interval) {
	v.x = v.x.WithDomain(d)
	v.applied = append(v.applied, d)
}

func px(lo, hi float64) *scale.Interval {
	return &scale.Interval{Lo: lo, Hi: hi}
}

func assertInterval(t *testing.T, expected, actual scale.Interval, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, expected.Lo, actual.Lo, 1e-6, msgAndArgs...)
	assert.InDelta(t, expected.Hi, actual.Hi, 1e-6, msgAndArgs...)
}

// Test_Brushed tests overview brush handling
func Test_Brushed(t *testing.T) {
	tests := []struct {
		name        string
		selection   *scale.Interval
		expected    scale.Interval
		description string
	}{
		{
			name:        "Partial selection",
			selection:   px(100, 300),
			expected:    scale.Interval{Lo: 10_000, Hi: 30_000},
			description: "Selection should invert through the overview scale",
		},
		{
			name:        "Cleared selection",
			selection:   nil,
			expected:    scale.Interval{Lo: 0, Hi: 100_000},
			description: "Nil selection should show the whole overview",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 100_000})
			c := NewCoordinator(view)

			require.True(t, c.Brushed(BrushEvent{Selection: tt.selection, Source: SourceUser}), tt.description)
			require.Len(t, view.applied, 1, "Domain should be applied once")
			assertInterval(t, tt.expected, view.x.Domain(), tt.description)

			// zoom representation follows the brush
			zoomed := c.State().Transform.RescaleX(view.x2).Domain()
			assertInterval(t, tt.expected, zoomed, "Zoom transform should show the same window")
		})
	}
}

// Test_Zoomed tests zoom handling and clamping
func Test_Zoomed(t *testing.T) {
	view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 100_000})
	c := NewCoordinator(view)

	require.True(t, c.Zoomed(ZoomEvent{Transform: Transform{K: 4, X: -1000}, Source: SourceUser}))
	assertInterval(t, scale.Interval{Lo: 25_000, Hi: 50_000}, view.x.Domain())

	sel := c.State().Selection
	require.NotNil(t, sel, "Overview brush should follow the zoom")
	assertInterval(t, scale.Interval{Lo: 250, Hi: 500}, *sel)

	// zooming out past the identity is clamped to the whole overview
	require.True(t, c.Zoomed(ZoomEvent{Transform: Transform{K: 0.2, X: 300}, Source: SourceUser}))
	assertInterval(t, scale.Interval{Lo: 0, Hi: 100_000}, view.x.Domain())
	assert.Nil(t, c.State().Selection, "Whole overview should clear the brush")

	// panning beyond the right edge is clamped
	require.True(t, c.Zoomed(ZoomEvent{Transform: Transform{K: 2, X: -5000}, Source: SourceUser}))
	assertInterval(t, scale.Interval{Lo: 50_000, Hi: 100_000}, view.x.Domain())

	// zooming in past the extent is clamped
	require.True(t, c.Zoomed(ZoomEvent{Transform: Transform{K: 1000, X: 0}, Source: SourceUser}))
	assertInterval(t, scale.Interval{Lo: 0, Hi: 1_000}, view.x.Domain())
}

// Test_Zoomed_AfterNarrowBrush tests that panning a window brushed past the
// zoom extent stays around the brushed spot
func Test_Zoomed_AfterNarrowBrush(t *testing.T) {
	view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 100_000})
	c := NewCoordinator(view)

	require.True(t, c.Brushed(BrushEvent{Selection: px(500, 502), Source: SourceUser}))
	assertInterval(t, scale.Interval{Lo: 50_000, Hi: 50_200}, view.x.Domain())
	before := c.State().Transform
	require.Greater(t, before.K, c.MaxScaleExtent(), "Brush may select a window narrower than the zoom extent")

	// 10px drag pan
	require.True(t, c.Zoomed(ZoomEvent{Transform: Transform{K: before.K, X: before.X - 10}, Source: SourceUser}))

	d := view.x.Domain()
	assert.InDelta(t, 1_000, d.Hi-d.Lo, 1e-6, "Window should widen to the zoom extent")
	assert.InDelta(t, 50_100, (d.Lo+d.Hi)/2, 100, "Window should stay around the brushed spot")
	assert.Less(t, d.Hi, 60_000.0, "Window must not jump to the end of the data")
}

// Test_Zoomed_Wheel tests that wheel events depend on the wheel toggle
func Test_Zoomed_Wheel(t *testing.T) {
	view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 100_000})
	c := NewCoordinator(view)
	wheel := ZoomEvent{Transform: Transform{K: 2}, Wheel: true, Source: SourceUser}

	assert.False(t, c.Zoomed(wheel), "Wheel zoom is disabled by default")
	assert.Empty(t, view.applied)

	c.SetWheelEnabled(true)
	assert.True(t, c.Zoomed(wheel))
	assertInterval(t, scale.Interval{Lo: 0, Hi: 50_000}, view.x.Domain())

	c.SetWheelEnabled(false)
	assert.True(t, c.Zoomed(ZoomEvent{Transform: Transform{K: 4}, Source: SourceUser}), "Drag zoom is unaffected by the wheel toggle")
}

// Test_BrushedMain tests drag-to-zoom on the main chart
func Test_BrushedMain(t *testing.T) {
	tests := []struct {
		name        string
		extent      float64
		selection   *scale.Interval
		accepted    bool
		expected    scale.Interval
		description string
	}{
		{
			name:        "Accepted",
			extent:      100,
			selection:   px(200, 400),
			accepted:    true,
			expected:    scale.Interval{Lo: 20_000, Hi: 40_000},
			description: "Selection should become the domain exactly",
		},
		{
			name:        "Reversed",
			extent:      100,
			selection:   px(400, 200),
			accepted:    true,
			expected:    scale.Interval{Lo: 20_000, Hi: 40_000},
			description: "Reversed drag should be ordered",
		},
		{
			name:        "Exactly at extent",
			extent:      100,
			selection:   px(0, 10),
			accepted:    true,
			expected:    scale.Interval{Lo: 0, Hi: 1_000},
			description: "Range times extent equal to the overview span is accepted",
		},
		{
			name:        "Over-zoom",
			extent:      100,
			selection:   px(0, 9),
			accepted:    false,
			expected:    scale.Interval{Lo: 0, Hi: 100_000},
			description: "Range times extent below the overview span is rejected",
		},
		{
			name:        "Click without drag",
			extent:      100,
			selection:   nil,
			accepted:    false,
			expected:    scale.Interval{Lo: 0, Hi: 100_000},
			description: "Nil selection does nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 100_000})
			c := NewCoordinator(view)
			c.maxScaleExtent = tt.extent

			// the overlay is drawn while dragging
			c.BrushedMain(BrushEvent{Selection: px(1, 2), Source: SourceMainBrushSync})
			require.NotNil(t, c.State().MainOverlay)

			assert.Equal(t, tt.accepted, c.BrushedMain(BrushEvent{Selection: tt.selection, Source: SourceUser}), tt.description)
			assert.Nil(t, c.State().MainOverlay, "Overlay should always be cleared")
			assertInterval(t, tt.expected, view.x.Domain(), tt.description)

			if tt.accepted {
				require.Len(t, view.applied, 1)
				sel := c.State().Selection
				require.NotNil(t, sel)
				assertInterval(t, view.x2.MapInterval(tt.expected), *sel, "Overview brush should match")
				assertInterval(t, tt.expected, c.State().Transform.RescaleX(view.x2).Domain(), "Zoom should match")
			} else {
				assert.Empty(t, view.applied, "Rejected selection must not touch the domain")
			}
		})
	}
}

// Test_SyncEventsOnlyRecord tests that sync-tagged events never apply a domain
func Test_SyncEventsOnlyRecord(t *testing.T) {
	view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 100_000})
	c := NewCoordinator(view)

	for _, source := range []Source{SourceBrushSync, SourceZoomSync, SourceMainBrushSync, SourceRestore} {
		assert.False(t, c.Brushed(BrushEvent{Selection: px(10, 20), Source: source}), source.String())
		assert.False(t, c.Zoomed(ZoomEvent{Transform: Transform{K: 3, X: -10}, Source: source}), source.String())
		assert.False(t, c.BrushedMain(BrushEvent{Selection: px(10, 20), Source: source}), source.String())
	}

	assert.Empty(t, view.applied)
	assert.Equal(t, px(10, 20), c.State().Selection)
	assert.Equal(t, Transform{K: 3, X: -10}, c.State().Transform)
	assert.Equal(t, px(10, 20), c.State().MainOverlay)
}

// Test_SyncToDomain tests programmatic restore
func Test_SyncToDomain(t *testing.T) {
	view := newFakeView(800, scale.Interval{Lo: 0, Hi: 100_000})
	c := NewCoordinator(view)

	require.True(t, c.SyncToDomain(scale.Interval{Lo: 40_000, Hi: 60_000}))
	assert.Equal(t, scale.Interval{Lo: 40_000, Hi: 60_000}, view.x.Domain(), "Domain should be set exactly")
	require.NotNil(t, c.State().Selection)
	assertInterval(t, scale.Interval{Lo: 320, Hi: 480}, *c.State().Selection)

	assert.False(t, c.SyncToDomain(scale.Interval{Lo: 5, Hi: 5}))

	c.Reset()
	assert.Equal(t, scale.Interval{Lo: 0, Hi: 100_000}, view.x.Domain())
	assert.Nil(t, c.State().Selection)
	assert.Equal(t, Identity, c.State().Transform)
}

// Test_SetZoomExtent tests the zoom extent derived from sample spacing
func Test_SetZoomExtent(t *testing.T) {
	view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 1_000_000})
	c := NewCoordinator(view)

	c.SetZoomExtent([]model.Series{
		{Name: "sparse", Points: []model.Point{{T: 0}, {T: 100_000}}},
		{Name: "dense", Points: []model.Point{{T: 0}, {T: 1_000}, {T: 2_000}}},
		{Name: "failed", Invalid: true, Points: []model.Point{{T: 0}, {T: 1}}},
	})
	assert.Equal(t, 500.0, c.MaxScaleExtent(), "Two samples should span half the width at most")

	c.SetZoomExtent([]model.Series{{Name: "coarse", Points: []model.Point{{T: 0}, {T: 500_000}}}})
	assert.Equal(t, float64(DefaultMaxScaleExtent), c.MaxScaleExtent(), "Should never drop below the default")

	c.SetZoomExtent(nil)
	assert.Equal(t, float64(DefaultMaxScaleExtent), c.MaxScaleExtent())
}

// Test_Presets tests quick range availability and windows
func Test_Presets(t *testing.T) {
	day := 24 * 3_600_000.0
	view := newFakeView(1000, scale.Interval{Lo: 0, Hi: 3 * day})
	c := NewCoordinator(view)

	enabled := map[string]bool{}
	for _, p := range c.Presets() {
		enabled[p.Name] = p.Enabled
	}
	assert.Equal(t, map[string]bool{"1h": true, "1d": true, "1w": false, "1mo": false, "1y": false}, enabled)

	// centred on the current window
	require.True(t, c.PresetWindow(60*24))
	assertInterval(t, scale.Interval{Lo: day, Hi: 2 * day}, view.x.Domain())

	// clamped to the overview start
	require.True(t, c.SyncToDomain(scale.Interval{Lo: 0, Hi: 3_600_000}))
	require.True(t, c.PresetWindow(60*24))
	assertInterval(t, scale.Interval{Lo: 0, Hi: day}, view.x.Domain())

	// clamped to the overview end
	require.True(t, c.SyncToDomain(scale.Interval{Lo: 3*day - 3_600_000, Hi: 3 * day}))
	require.True(t, c.PresetWindow(60*24))
	assertInterval(t, scale.Interval{Lo: 3*day - day/2 - 1_800_000, Hi: 3 * day}, view.x.Domain())

	require.True(t, c.PresetWindow(0))
	assertInterval(t, scale.Interval{Lo: 0, Hi: 3 * day}, view.x.Domain())
}
