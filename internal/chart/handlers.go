package chart

import (
	"math"

	"chartview/internal/config"
	"chartview/internal/downsample"
	"chartview/internal/gesture"
	"chartview/internal/render"
	"chartview/internal/scale"

	"github.com/rs/zerolog/log"
)

// Redraw re-slices every series to the current x-domain and draws.
func (c *Chart) Redraw() {
	c.mu.Lock()
	if c.hasData {
		c.resliceLocked()
	}
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
}

// ReScaleY refits the main y-domain to the displayed series and draws.
func (c *Chart) ReScaleY() {
	c.mu.Lock()
	if c.hasData {
		c.fitYLocked()
	}
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
}

// Resize recomputes the geometry from the container, or from the screen while
// the chart is fullscreen, and draws.
//
// This method performs the following operations:
//  1. Derives the container size and the plot dimensions
//  2. Returns without any change when the plot width is not positive
//  3. Updates the range of every scale, leaving the domains alone
//  4. Re-downsamples the overview for the new width
//  5. Restores the x-domain through the gesture channels, resetting both
//     brushes when the domain shows the whole overview
func (c *Chart) Resize() {
	c.mu.Lock()

	width, height := c.containerWidth, c.cfg.ContainerHeight()
	if c.fullscreen && c.deps.Screen != nil {
		_, windowHeight := c.deps.Screen.WindowSize()
		screenWidth, screenHeight := c.deps.Screen.ScreenSize()
		if windowHeight == screenHeight {
			width, height = screenWidth, int(float64(screenHeight)*fullscreenHeightRatio)
		} else {
			// the window left fullscreen
			c.fullscreen = false
		}
	}

	dims := render.CalculateDimensions(width, height, c.cfg.SmallChart)
	if !dims.Visible() {
		c.mu.Unlock()
		log.Debug().Str("chart", c.id).Int("width", dims.Width).Msg("chart hidden, resize skipped")
		return
	}
	c.dims = dims

	if c.hasData {
		domain := c.scales.X.Domain()
		c.scales.Resize(float64(dims.Width), float64(dims.Height), float64(dims.Height2))
		c.overview = downsample.Series(c.series, c.method, dims.Width)
		c.restoreLocked(domain)
	} else {
		c.scales.Resize(float64(dims.Width), float64(dims.Height), float64(dims.Height2))
	}

	log.Debug().Str("chart", c.id).Int("width", dims.Width).Int("height", dims.Height).Msg("chart resized")
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
}

// SetContainerWidth records the width of the host container. The new width
// takes effect on the next Resize.
func (c *Chart) SetContainerWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.containerWidth = width
}

// SetFullscreen switches fullscreen mode and schedules a resize.
func (c *Chart) SetFullscreen(on bool) {
	c.mu.Lock()
	c.fullscreen = on
	c.mu.Unlock()

	rc := c.deps.Resize
	if rc == nil {
		c.Resize()
		return
	}
	if on {
		rc.SetFullscreen(c.id)
	} else if rc.FullscreenID() == c.id {
		rc.SetFullscreen("")
	}
	rc.Notify()
}

// Fullscreen reports whether fullscreen mode is on.
func (c *Chart) Fullscreen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullscreen
}

// ToggleSyncChart registers the chart for hover sync, or unregisters it,
// according to the sync flag of the current menu option.
func (c *Chart) ToggleSyncChart() {
	c.mu.Lock()
	on := c.menu.IsSyncChart
	c.mu.Unlock()

	c.applySync(on)
}

// ApplyMenuOption replaces the menu option, re-derives every dependent state
// and draws. An invalid option is ignored.
func (c *Chart) ApplyMenuOption(opt config.MenuOption) {
	if err := opt.Validate(); err != nil {
		log.Warn().Err(err).Str("chart", c.id).Msg("menu option rejected")
		return
	}

	c.mu.Lock()
	c.applyMenuLocked(opt)
	f := c.frameLocked()
	c.mu.Unlock()

	c.applySync(opt.IsSyncChart)
	c.draw(f)
}

// ToggleSource flips the display of one source, refits y and draws.
// It reports whether the source exists.
func (c *Chart) ToggleSource(name string) bool {
	c.mu.Lock()
	i := c.sourceIndexLocked(name)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.sources[i].Displaying = !c.sources[i].Displaying
	if c.hasData {
		c.fitYLocked()
	}
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
	return true
}

// HideOtherSources toggles every source except the named one, refits y and
// draws. Calling it twice with the same name restores the previous display.
// It reports whether the source exists.
func (c *Chart) HideOtherSources(name string) bool {
	c.mu.Lock()
	if c.sourceIndexLocked(name) < 0 {
		c.mu.Unlock()
		return false
	}
	for i := range c.sources {
		if c.sources[i].Name != name {
			c.sources[i].Displaying = !c.sources[i].Displaying
		}
	}
	c.otherSourcesHidden = !c.otherSourcesHidden
	if c.hasData {
		c.fitYLocked()
	}
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
	return true
}

// OtherSourcesHidden reports whether the last HideOtherSources hid the others.
func (c *Chart) OtherSourcesHidden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.otherSourcesHidden
}

// LabelColor returns the legend label color of a source, empty when unknown.
func (c *Chart) LabelColor(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.sourceIndexLocked(name)
	if i < 0 {
		return ""
	}
	return render.LabelColor(c.sources[i])
}

// Hover shows the focus at a pixel offset of the main plot and broadcasts the
// timestamp to the other synced charts.
func (c *Chart) Hover(px float64) {
	c.mu.Lock()
	if !c.hasData {
		c.mu.Unlock()
		return
	}
	ts := int64(math.Round(c.scales.X.Invert(px)))
	c.hover, c.hoverSynced = &ts, false
	synced := c.menu.IsSyncChart
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
	if synced && c.deps.Sync != nil {
		c.deps.Sync.BroadcastHover(ts, c.id)
	}
}

// HoverEnd hides the focus here and on the other synced charts.
func (c *Chart) HoverEnd() {
	c.mu.Lock()
	c.hover, c.hoverSynced = nil, false
	synced := c.menu.IsSyncChart
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
	if synced && c.deps.Sync != nil {
		c.deps.Sync.BroadcastHoverEnd(c.id)
	}
}

// OnSyncedHover shows the focus for a timestamp hovered on another chart, or
// hides it when the timestamp lies outside this chart's x-domain.
func (c *Chart) OnSyncedHover(ts int64) {
	c.mu.Lock()
	if !c.hasData {
		c.mu.Unlock()
		return
	}
	if c.scales.X.Domain().Contains(float64(ts)) {
		c.hover, c.hoverSynced = &ts, true
	} else {
		c.hover, c.hoverSynced = nil, false
	}
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
}

// OnSyncedHoverEnd hides the focus after the pointer left another chart.
func (c *Chart) OnSyncedHoverEnd() {
	c.mu.Lock()
	c.hover, c.hoverSynced = nil, false
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
}

// Brush applies an overview brush selection in overview pixels; nil selects everything.
func (c *Chart) Brush(selection *scale.Interval) bool {
	return c.applyGesture(func(g *gesture.Coordinator) bool {
		return g.Brushed(gesture.BrushEvent{Selection: selection, Source: gesture.SourceUser})
	})
}

// BrushMain applies a drag-to-zoom selection in main pixels.
func (c *Chart) BrushMain(selection *scale.Interval) bool {
	return c.applyGesture(func(g *gesture.Coordinator) bool {
		if !c.menu.IsBrushMainOn {
			return false
		}
		return g.BrushedMain(gesture.BrushEvent{Selection: selection, Source: gesture.SourceUser})
	})
}

// Zoom applies a zoom transform from a drag or, with wheel set, a wheel event.
func (c *Chart) Zoom(t gesture.Transform, wheel bool) bool {
	return c.applyGesture(func(g *gesture.Coordinator) bool {
		return g.Zoomed(gesture.ZoomEvent{Transform: t, Wheel: wheel, Source: gesture.SourceUser})
	})
}

// Preset shows a window of the given length centred on the current one; a
// non-positive length shows everything.
func (c *Chart) Preset(minutes int) bool {
	return c.applyGesture(func(g *gesture.Coordinator) bool {
		return g.PresetWindow(minutes)
	})
}

// ResetZoom clears both brushes and shows the whole overview.
func (c *Chart) ResetZoom() bool {
	return c.applyGesture(func(g *gesture.Coordinator) bool {
		g.Reset()
		return true
	})
}

// applyGesture runs a coordinator call under the lock and draws. It reports whether the x-domain changed.
func (c *Chart) applyGesture(apply func(g *gesture.Coordinator) bool) bool {
	c.mu.Lock()
	if !c.hasData {
		c.mu.Unlock()
		return false
	}
	changed := apply(c.gestures)
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
	return changed
}

// sourceIndexLocked returns the index of the named source or -1. c.mu must be held.
func (c *Chart) sourceIndexLocked(name string) int {
	for i, s := range c.sources {
		if s.Name == name {
			return i
		}
	}
	return -1
}
