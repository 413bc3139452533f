// Package chart wires the scale manager, downsampler, gesture coordinator and
// frame pipeline into one interactive chart.
//
// A Chart owns all of its state behind a mutex. Every host entry point locks,
// updates the state, builds a frame and unlocks before drawing and before
// talking to the shared registries, so a broadcast from one chart can safely
// reach another chart on the same goroutine.
package chart

import (
	"errors"
	"fmt"
	"sync"

	"chartview/internal/config"
	"chartview/internal/downsample"
	"chartview/internal/format"
	"chartview/internal/gesture"
	"chartview/internal/model"
	"chartview/internal/render"
	"chartview/internal/scale"
	"chartview/internal/service"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoChartID indicates a chart configuration without an id.
	ErrNoChartID = errors.New("chart id is required")
)

const (
	// DefaultContainerWidth is used until the host reports a container width
	DefaultContainerWidth = 960

	// fullscreenHeightRatio is the share of the screen height used in fullscreen
	fullscreenHeightRatio = 0.9
)

var _ service.Chart = (*Chart)(nil)

// Chart is one interactive time-series chart.
type Chart struct {
	mu sync.Mutex

	id       string
	cfg      config.ChartConfig
	menu     config.MenuOption
	deps     service.Deps
	surface  render.Surface
	pipeline *render.Pipeline

	palette   *render.Palette
	formatter format.Formatter
	method    downsample.Method

	scales   *scale.Manager
	gestures *gesture.Coordinator
	dims     render.Dimensions

	containerWidth int
	series         []model.Series // Raw series as supplied
	visible        []model.Series // Downsampled slice of the main window
	overview       []model.Series // Downsampled full series
	sources        []model.Source
	hasData        bool

	hover       *int64 // Focus timestamp, nil when hidden
	hoverSynced bool   // Focus comes from another chart

	fullscreen         bool
	otherSourcesHidden bool
	closed             bool

	last render.Frame
}

// New creates a chart and binds it to the registries in deps.
//
// The chart registers for resizes right away and for hover sync when the menu
// option asks for it. An invalid menu option is replaced by the default one.
// The chart shows a placeholder until SetSeries supplies data.
func New(cfg config.ChartConfig, menu config.MenuOption, deps service.Deps, surface render.Surface) (*Chart, error) {
	if cfg.ChartID == "" {
		return nil, ErrNoChartID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := menu.Validate(); err != nil {
		log.Warn().Err(err).Str("chart", cfg.ChartID).Msg("invalid menu option, using default")
		menu = config.DefaultMenuOption()
	}

	width := cfg.Width
	if width <= 0 {
		width = DefaultContainerWidth
	}

	c := &Chart{
		id:             cfg.ChartID,
		cfg:            cfg,
		deps:           deps,
		surface:        surface,
		pipeline:       render.NewPipeline(),
		scales:         scale.NewManager(cfg.YScale()),
		containerWidth: width,
	}
	c.gestures = gesture.NewCoordinator(view{c})
	c.dims = render.CalculateDimensions(width, cfg.ContainerHeight(), cfg.SmallChart)
	c.scales.Resize(float64(c.dims.Width), float64(c.dims.Height), float64(c.dims.Height2))
	c.applyMenuLocked(menu)

	if deps.Resize != nil {
		if err := deps.Resize.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register chart for resize: %w", err)
		}
	}
	c.applySync(menu.IsSyncChart)

	log.Info().Str("chart", c.id).Int("width", width).Bool("small", cfg.SmallChart).Msg("chart mounted")
	return c, nil
}

// ChartID returns the chart id.
func (c *Chart) ChartID() string {
	return c.id
}

// SetSeries replaces the data of the chart and refits every scale.
//
// Every source starts displayed. Without a plottable series the chart draws
// the placeholder frame with its diagnostic messages.
func (c *Chart) SetSeries(series []model.Series) {
	c.mu.Lock()
	c.series = append([]model.Series(nil), series...)
	c.sources = make([]model.Source, len(series))
	for i, s := range c.series {
		c.sources[i] = model.Source{
			Name:       s.Name,
			ClassToken: s.ClassToken,
			Color:      c.palette.SeriesColor(s),
			Displaying: true,
		}
	}
	c.otherSourcesHidden = false
	c.hover = nil

	c.hasData = c.scales.Fit(c.series, c.cfg.Date.Window())
	if c.hasData {
		c.gestures.SetZoomExtent(c.series)
		c.overview = downsample.Series(c.series, c.method, c.dims.Width)
		c.restoreLocked(c.scales.X.Domain())
	} else {
		c.visible, c.overview = nil, nil
	}

	log.Debug().Str("chart", c.id).Int("series", len(series)).Bool("has_data", c.hasData).Msg("series updated")
	f := c.frameLocked()
	c.mu.Unlock()

	c.draw(f)
}

// Close releases the chart's registrations. Further calls are no-ops.
func (c *Chart) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.deps.Sync != nil {
		c.deps.Sync.Unregister(c.id)
	}
	if c.deps.Resize != nil {
		c.deps.Resize.Unregister(c.id)
	}
	log.Info().Str("chart", c.id).Msg("chart closed")
}

// View returns the current scale domains.
func (c *Chart) View() scale.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scales.View()
}

// XRange returns the pixel range of the main x scale.
func (c *Chart) XRange() scale.Interval {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scales.X.Range()
}

// Dimensions returns the current geometry.
func (c *Chart) Dimensions() render.Dimensions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dims
}

// GestureState returns the representation of the three gesture channels.
func (c *Chart) GestureState() gesture.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gestures.State()
}

// Sources returns a copy of the legend sources.
func (c *Chart) Sources() []model.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Source(nil), c.sources...)
}

// Menu returns the menu option in effect.
func (c *Chart) Menu() config.MenuOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menu
}

// LastFrame returns the most recently built frame.
func (c *Chart) LastFrame() render.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// frameLocked builds and remembers the frame of the current state. c.mu must be held.
func (c *Chart) frameLocked() render.Frame {
	var presets []gesture.Preset
	if c.hasData {
		presets = c.gestures.Presets()
	}

	f := c.pipeline.Build(render.State{
		ChartID:   c.id,
		Title:     c.cfg.Title,
		Small:     c.cfg.SmallChart,
		Dims:      c.dims,
		Scales:    c.scales,
		Series:    c.series,
		Visible:   c.visible,
		Overview:  c.overview,
		Sources:   c.sources,
		Gesture:   c.gestures.State(),
		Presets:   presets,
		Formatter: c.formatter,
		Menu:      c.menu,
		Hover:     c.hover,
	})
	f.Focus.Synced = f.Focus.Visible && c.hoverSynced
	c.last = f
	return f
}

// draw hands a frame to the surface. c.mu must not be held.
func (c *Chart) draw(f render.Frame) {
	if c.surface == nil {
		return
	}
	if err := c.surface.Draw(f); err != nil {
		log.Error().Err(err).Str("chart", c.id).Msg("failed to draw frame")
	}
}
