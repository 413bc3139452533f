package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"chartview/internal/chart"
	"chartview/internal/config"
	"chartview/internal/gesture"
	"chartview/internal/model"
	"chartview/internal/scale"
	"chartview/internal/seriesio"
	"chartview/internal/service"
	"chartview/internal/surface"

	"github.com/rs/zerolog/log"
)

// terminalScreen is the service.Screen of a terminal session. The screen
// keeps the size the session started with; resize steps only change the window.
type terminalScreen struct {
	mu                        sync.Mutex
	windowWidth, windowHeight int
	screenWidth, screenHeight int
}

func newTerminalScreen(width, height int) *terminalScreen {
	return &terminalScreen{
		windowWidth:  width,
		windowHeight: height,
		screenWidth:  width,
		screenHeight: height,
	}
}

func (s *terminalScreen) WindowSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowWidth, s.windowHeight
}

func (s *terminalScreen) ScreenSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screenWidth, s.screenHeight
}

// SetWindowSize changes the window size; zero values keep the current one.
func (s *terminalScreen) SetWindowSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width > 0 {
		s.windowWidth = width
	}
	if height > 0 {
		s.windowHeight = height
	}
}

// session is a dashboard loaded into a running chart manager.
type session struct {
	manager *service.Manager
	screen  *terminalScreen
	charts  []*chart.Chart // Dashboard order
	byID    map[string]*chart.Chart
}

// openSession loads a dashboard and mounts its charts.
//
// This function performs the following operations:
//  1. Decodes and validates the dashboard YAML
//  2. Starts a chart manager drawing on a terminal surface
//  3. Stores the menu override, if any, for every chart
//  4. Creates every chart and feeds it the series of its payload file
//
// Payload paths are relative to the dashboard file.
func openSession(ctx context.Context, path string, opts *rootOptions, out io.Writer, override *config.MenuOption) (*session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dashboard: %w", err)
	}
	d, err := config.LoadDashboard(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	width, height := d.Width, d.Height
	if width <= 0 {
		width = chart.DefaultContainerWidth
	}
	if height <= 0 {
		height = config.DefaultHeight
	}

	term := surface.NewTerminal(out, surface.Options{Columns: opts.columns, Rows: opts.rows})
	factory := func(cfg config.ChartConfig, menu config.MenuOption, deps service.Deps) (service.Chart, error) {
		c, err := chart.New(cfg, menu, deps, term)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	store := config.NewMemoryStore()
	s := &session{
		screen: newTerminalScreen(width, height),
		byID:   make(map[string]*chart.Chart, len(d.Charts)),
	}
	s.manager = service.NewManager(service.ManagerConfig{
		DashboardID: d.ID,
		Resize:      service.ResizeConfig{Delay: opts.resizeDelay},
	}, store, s.screen, factory)
	if err := s.manager.Start(ctx); err != nil {
		return nil, err
	}

	for _, entry := range d.Charts {
		if err := s.mount(d, entry, filepath.Dir(path), store, override); err != nil {
			s.close()
			return nil, err
		}
	}

	log.Info().Str("dashboard", d.ID).Int("charts", len(s.charts)).Msg("dashboard loaded")
	return s, nil
}

// mount creates one chart and sets its series.
func (s *session) mount(d config.Dashboard, entry config.ChartEntry, dir string, store config.Store, override *config.MenuOption) error {
	cfg := entry.ChartConfig
	if cfg.Width == 0 {
		cfg.Width = d.Width
	}
	if cfg.Height == 0 {
		cfg.Height = d.Height
	}

	if override != nil {
		if err := config.SaveMenuOption(store, d.ID, cfg.ChartID, *override); err != nil {
			return err
		}
	}

	dataPath := entry.Data
	if !filepath.IsAbs(dataPath) {
		dataPath = filepath.Join(dir, dataPath)
	}
	series, err := loadSeries(dataPath)
	if err != nil {
		return fmt.Errorf("chart %s: %w", cfg.ChartID, err)
	}

	mounted, err := s.manager.NewChart(cfg)
	if err != nil {
		return err
	}
	c, ok := mounted.(*chart.Chart)
	if !ok {
		return fmt.Errorf("chart %s: unexpected chart type %T", cfg.ChartID, mounted)
	}
	s.charts = append(s.charts, c)
	s.byID[cfg.ChartID] = c

	c.SetSeries(series)
	return nil
}

// loadSeries decodes a metric payload file.
func loadSeries(path string) ([]model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload: %w", err)
	}
	defer f.Close()
	return seriesio.NewDecoder().Decode(f)
}

// close stops the manager, closing every chart.
func (s *session) close() {
	if err := s.manager.Stop(); err != nil {
		log.Debug().Err(err).Msg("chart manager already stopped")
	}
}

// run applies one script step.
func (s *session) run(step config.Step) error {
	if step.Action == "resize" {
		s.resize(step.Width, step.Height)
		return nil
	}

	c, ok := s.byID[step.Chart]
	if !ok {
		return fmt.Errorf("%w: %s", service.ErrUnknownChart, step.Chart)
	}

	changed := true
	switch step.Action {
	case "brush":
		changed = c.Brush(selection(step))
	case "brush-main":
		changed = c.BrushMain(selection(step))
	case "zoom":
		changed = c.Zoom(gesture.Transform{K: step.K, X: step.X}, false)
	case "wheel":
		changed = c.Zoom(gesture.Transform{K: step.K, X: step.X}, true)
	case "preset":
		changed = c.Preset(step.Minutes)
	case "reset":
		changed = c.ResetZoom()
	case "hover":
		c.Hover(step.At)
	case "hover-end":
		c.HoverEnd()
	case "toggle":
		changed = c.ToggleSource(step.Source)
	case "hide-others":
		changed = c.HideOtherSources(step.Source)
	case "fullscreen":
		c.SetFullscreen(!c.Fullscreen())
		s.manager.ResizeCoordinator().Flush()
	case "sync":
		menu := c.Menu()
		menu.IsSyncChart = !menu.IsSyncChart
		if err := s.manager.SaveMenuOption(step.Chart, menu); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported action %q", step.Action)
	}

	log.Debug().Str("chart", step.Chart).Str("action", step.Action).Bool("changed", changed).Msg("step applied")
	return nil
}

// resize changes the window, moves every container to the new width and
// applies the debounced resize right away.
func (s *session) resize(width, height int) {
	s.screen.SetWindowSize(width, height)
	if width > 0 {
		for _, c := range s.charts {
			c.SetContainerWidth(width)
		}
	}
	s.manager.NotifyResize()
	s.manager.ResizeCoordinator().Flush()
}

// selection returns the brush selection of a step, nil when it clears the brush.
func selection(step config.Step) *scale.Interval {
	if step.From == nil || step.To == nil {
		return nil
	}
	return &scale.Interval{Lo: *step.From, Hi: *step.To}
}
