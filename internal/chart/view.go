package chart

import (
	"chartview/internal/config"
	"chartview/internal/downsample"
	"chartview/internal/format"
	"chartview/internal/model"
	"chartview/internal/render"
	"chartview/internal/scale"

	"github.com/rs/zerolog/log"
)

// view is the gesture.View of a chart. The coordinator only calls it while
// the chart lock is held, so it works on the chart fields directly.
type view struct {
	c *Chart
}

func (v view) MainX() scale.Scale {
	return v.c.scales.X
}

func (v view) OverviewX() scale.Scale {
	return v.c.scales.X2
}

func (v view) ApplyXDomain(d scale.Interval) {
	v.c.applyXDomainLocked(d)
}

// applyXDomainLocked sets the main x-domain, re-slices every series and refits y.
func (c *Chart) applyXDomainLocked(d scale.Interval) {
	if !c.scales.SetXDomain(d) {
		return
	}
	c.resliceLocked()
	c.fitYLocked()
}

// resliceLocked recomputes the downsampled visible slice of every series.
func (c *Chart) resliceLocked() {
	window := c.scales.X.Domain()
	c.visible = make([]model.Series, len(c.series))
	for i, s := range c.series {
		if !s.Plottable() {
			c.visible[i] = s
			continue
		}
		slice := downsample.VisibleSlice(s.Points, window)
		c.visible[i] = s.WithPoints(downsample.Downsample(slice, c.method, c.dims.Width))
	}
}

// fitYLocked refits the main y-domain to the displayed points inside the x-domain.
func (c *Chart) fitYLocked() {
	window := c.scales.X.Domain()
	var points [][]model.Point
	for i, s := range c.series {
		if !c.sources[i].Displaying || !s.Plottable() {
			continue
		}
		var inside []model.Point
		for _, p := range downsample.VisibleSlice(s.Points, window) {
			if window.Contains(float64(p.T)) {
				inside = append(inside, p)
			}
		}
		points = append(points, inside)
	}
	c.scales.FitY(points)
}

// restoreLocked shows domain d through every gesture channel. A domain equal
// to the overview resets both brushes.
func (c *Chart) restoreLocked(d scale.Interval) {
	if d == c.scales.X2.Domain() {
		c.gestures.Reset()
		return
	}
	c.gestures.SyncToDomain(d)
}

// applyMenuLocked re-derives every state depending on the menu option.
//
// This method performs the following operations:
//  1. Recolors the sources with the selected palette
//  2. Rebuilds the date and tick formatter
//  3. Switches wheel zoom
//  4. Re-downsamples the series when the method changed
//
// The focus is hidden so no tooltip built with the previous settings lingers.
// Sync registration is applied by the caller once the lock is released.
func (c *Chart) applyMenuLocked(opt config.MenuOption) {
	c.menu = opt

	c.palette = render.NewPalette(opt.ColorPalette)
	for i := range c.sources {
		c.sources[i].Color = c.palette.SeriesColor(c.series[i])
	}

	c.formatter = format.New(c.cfg.Date.GMT, opt.DateFormat, opt.YAxisConfig.FormatYaxis, c.cfg.SmallChart)

	method, err := downsample.ParseMethod(opt.DownSampleMethod)
	if err != nil {
		log.Warn().Err(err).Str("chart", c.id).Msg("downsampling disabled")
	}
	changed := method != c.method
	c.method = method

	c.gestures.SetWheelEnabled(opt.IsWheelOn)
	c.hover = nil

	if changed && c.hasData {
		c.overview = downsample.Series(c.series, c.method, c.dims.Width)
		c.resliceLocked()
	}
}

// applySync registers or unregisters the chart for hover sync. c.mu must not be held.
func (c *Chart) applySync(on bool) {
	if c.deps.Sync == nil {
		return
	}
	if !on {
		c.deps.Sync.Unregister(c.id)
		return
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	if err := c.deps.Sync.Register(c.id, c); err != nil {
		log.Error().Err(err).Str("chart", c.id).Msg("failed to register for hover sync")
	}
}
