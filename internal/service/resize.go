package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"chartview/internal/utils"

	"github.com/rs/zerolog/log"
)

// DefaultResizeDelay is the quiet period after the last resize notification.
const DefaultResizeDelay = 250 * time.Millisecond

// Resizer is a chart that can recompute its geometry.
type Resizer interface {
	ChartID() string
	Resize()
}

// Screen reports the host window and screen sizes.
type Screen interface {
	// WindowSize returns the inner size of the host window
	WindowSize() (width, height int)

	// ScreenSize returns the size of the physical screen
	ScreenSize() (width, height int)
}

// ResizeConfig holds configuration parameters for the ResizeCoordinator.
type ResizeConfig struct {
	Delay time.Duration // Debounce quiet period, DefaultResizeDelay when zero
}

// ResizeCoordinator debounces viewport changes and fans one resize out to the charts.
//
// Every Notify cancels the pending timer and schedules a new one, so only the
// last notification of a burst fires. On fire every registered chart is
// resized, or only the fullscreen chart when one is flagged. The fullscreen
// flag is cleared once the window height no longer matches the screen height.
type ResizeCoordinator struct {
	cfg    ResizeConfig
	screen Screen

	mu         sync.Mutex
	charts     map[string]Resizer // Registered charts by id
	fullscreen string             // Id of the fullscreen chart, empty when none
	timer      *time.Timer        // Pending debounce timer
	stopped    bool
}

// NewResizeCoordinator creates a coordinator. A nil screen never leaves fullscreen on its own.
func NewResizeCoordinator(cfg ResizeConfig, screen Screen) *ResizeCoordinator {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultResizeDelay
	}
	return &ResizeCoordinator{
		cfg:    cfg,
		screen: screen,
		charts: make(map[string]Resizer),
	}
}

// Register adds a chart.
func (rc *ResizeCoordinator) Register(r Resizer) error {
	if r == nil {
		return ErrNilHandler
	}
	id := r.ChartID()
	if err := utils.ValidateChartID(id); err != nil {
		return fmt.Errorf("resize registration: %w", err)
	}

	rc.mu.Lock()
	rc.charts[id] = r
	rc.mu.Unlock()
	return nil
}

// Unregister removes a chart and reports whether it was registered.
// Removing the fullscreen chart clears the fullscreen flag.
func (rc *ResizeCoordinator) Unregister(id string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	_, ok := rc.charts[id]
	delete(rc.charts, id)
	if rc.fullscreen == id {
		rc.fullscreen = ""
	}
	return ok
}

// SetFullscreen flags the chart shown fullscreen; an empty id clears the flag.
func (rc *ResizeCoordinator) SetFullscreen(id string) {
	rc.mu.Lock()
	rc.fullscreen = id
	rc.mu.Unlock()
}

// FullscreenID returns the id of the fullscreen chart, empty when none.
func (rc *ResizeCoordinator) FullscreenID() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.fullscreen
}

// Notify schedules a resize after the quiet period, cancelling any pending one.
func (rc *ResizeCoordinator) Notify() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.stopped {
		return
	}
	if rc.timer != nil {
		rc.timer.Stop()
	}
	rc.timer = time.AfterFunc(rc.cfg.Delay, rc.fire)
}

// Start makes a stopped coordinator accept notifications again.
func (rc *ResizeCoordinator) Start() {
	rc.mu.Lock()
	rc.stopped = false
	rc.mu.Unlock()
}

// Stop cancels a pending resize; later notifications are ignored until Start.
func (rc *ResizeCoordinator) Stop() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.stopped = true
	if rc.timer != nil {
		rc.timer.Stop()
		rc.timer = nil
	}
}

// Flush runs a pending resize right away and reports whether one was pending.
func (rc *ResizeCoordinator) Flush() bool {
	rc.mu.Lock()
	if rc.stopped || rc.timer == nil || !rc.timer.Stop() {
		rc.mu.Unlock()
		return false
	}
	rc.timer = nil
	rc.mu.Unlock()

	rc.fire()
	return true
}

// fire resizes the target charts. Charts are called outside the lock.
func (rc *ResizeCoordinator) fire() {
	rc.mu.Lock()
	if rc.stopped {
		rc.mu.Unlock()
		return
	}
	rc.timer = nil

	var targets []Resizer
	fullscreen := rc.fullscreen
	if c, ok := rc.charts[fullscreen]; fullscreen != "" && ok {
		targets = append(targets, c)
	} else {
		ids := make([]string, 0, len(rc.charts))
		for id := range rc.charts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			targets = append(targets, rc.charts[id])
		}
	}
	rc.mu.Unlock()

	log.Debug().Int("charts", len(targets)).Str("fullscreen", fullscreen).Msg("resizing charts")
	for _, c := range targets {
		c.Resize()
	}

	if fullscreen == "" || rc.screen == nil {
		return
	}
	_, windowHeight := rc.screen.WindowSize()
	_, screenHeight := rc.screen.ScreenSize()
	if windowHeight != screenHeight {
		rc.mu.Lock()
		if rc.fullscreen == fullscreen {
			rc.fullscreen = ""
		}
		rc.mu.Unlock()
		log.Debug().Str("chart", fullscreen).Msg("fullscreen exited")
	}
}
