package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"chartview/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var (
	// ErrManagerNotStarted indicates an operation on a manager that is not running.
	ErrManagerNotStarted = errors.New("chart manager not started")

	// ErrManagerStarted indicates Start was called twice.
	ErrManagerStarted = errors.New("chart manager has already started")

	// ErrDuplicateChart indicates a chart id is already in use.
	ErrDuplicateChart = errors.New("chart already exists")

	// ErrUnknownChart indicates a chart id that is not managed.
	ErrUnknownChart = errors.New("unknown chart")
)

// Chart is a managed chart instance.
type Chart interface {
	Resizer
	SyncHandler

	// ApplyMenuOption re-derives every option dependent state and redraws
	ApplyMenuOption(opt config.MenuOption)

	// Close releases the chart's registrations
	Close()
}

// Deps are the registries a chart binds to on creation.
type Deps struct {
	Sync   *SyncRegistry
	Resize *ResizeCoordinator
	Screen Screen
}

// ChartFactory builds a chart bound to the manager's registries.
type ChartFactory func(cfg config.ChartConfig, menu config.MenuOption, deps Deps) (Chart, error)

// ManagerConfig holds configuration parameters for the Manager.
type ManagerConfig struct {
	DashboardID string       `validate:"required"` // Storage scope of menu options
	Resize      ResizeConfig // Resize debounce settings
}

// Manager owns the registries of one dashboard and the charts bound to them.
//
// The manager is created stopped. Start makes it accept charts; Stop, or the
// cancellation of the context given to Start, closes every chart and stops
// the resize coordinator.
type Manager struct {
	cfg     ManagerConfig
	store   config.Store
	screen  Screen
	factory ChartFactory

	sync   *SyncRegistry
	resize *ResizeCoordinator

	mu     sync.Mutex
	charts map[string]Chart

	lifecycle  sync.Mutex         // Serialises Start and Stop
	started    atomic.Bool        // Atomic flag tracking manager state
	generation uint64             // Incremented by every Start
	cancel     context.CancelFunc // Function to cancel the manager context
	validate   *validator.Validate
}

// NewManager creates a manager with fresh registries.
func NewManager(cfg ManagerConfig, store config.Store, screen Screen, factory ChartFactory) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		screen:   screen,
		factory:  factory,
		sync:     NewSyncRegistry(),
		resize:   NewResizeCoordinator(cfg.Resize, screen),
		charts:   make(map[string]Chart),
		validate: validator.New(),
	}
}

// Start makes the manager accept charts until Stop is called or ctx is cancelled.
// A stopped manager can be started again.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.validate.Struct(m.cfg); err != nil {
		return fmt.Errorf("invalid manager configuration: %w", err)
	}
	if m.store == nil || m.factory == nil {
		return errors.New("manager needs a store and a chart factory")
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if !m.started.CompareAndSwap(false, true) {
		return ErrManagerStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.generation++
	m.resize.Start()

	// only stops the run it was started for
	go func(generation uint64) {
		<-ctx.Done()
		if err := m.stop(generation); err != nil && !errors.Is(err, ErrManagerNotStarted) {
			log.Error().Err(err).Msg("failed to stop chart manager")
		}
	}(m.generation)

	log.Info().Str("dashboard", m.cfg.DashboardID).Msg("chart manager started")
	return nil
}

// Stop closes every chart and stops the resize coordinator.
func (m *Manager) Stop() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	return m.stopLocked()
}

// stop stops the manager if it is still running the given generation.
func (m *Manager) stop(generation uint64) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.generation != generation {
		return ErrManagerNotStarted
	}
	return m.stopLocked()
}

func (m *Manager) stopLocked() error {
	if !m.started.CompareAndSwap(true, false) {
		return ErrManagerNotStarted
	}

	m.mu.Lock()
	charts := m.sortedLocked()
	m.charts = make(map[string]Chart)
	m.mu.Unlock()

	for _, c := range charts {
		c.Close()
	}
	m.resize.Stop()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	log.Info().Str("dashboard", m.cfg.DashboardID).Int("charts", len(charts)).Msg("chart manager stopped")
	return nil
}

// NewChart creates a chart with its stored menu option and binds it to the registries.
//
// A stored menu option that cannot be read is replaced by the default one; the
// chart is still created.
func (m *Manager) NewChart(cfg config.ChartConfig) (Chart, error) {
	if !m.started.Load() {
		return nil, ErrManagerNotStarted
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.charts[cfg.ChartID]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateChart, cfg.ChartID)
	}

	menu, err := config.LoadMenuOption(m.store, m.cfg.DashboardID, cfg.ChartID)
	if err != nil {
		log.Warn().Err(err).Str("chart", cfg.ChartID).Msg("using default menu option")
	}

	c, err := m.factory(cfg, menu, Deps{Sync: m.sync, Resize: m.resize, Screen: m.screen})
	if err != nil {
		return nil, fmt.Errorf("failed to create chart %q: %w", cfg.ChartID, err)
	}
	m.charts[cfg.ChartID] = c

	log.Info().Str("chart", cfg.ChartID).Msg("chart created")
	return c, nil
}

// Chart returns a managed chart by id.
func (m *Manager) Chart(id string) (Chart, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.charts[id]
	return c, ok
}

// Charts returns every managed chart sorted by id.
func (m *Manager) Charts() []Chart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

// CloseChart closes a chart and forgets it.
func (m *Manager) CloseChart(id string) error {
	m.mu.Lock()
	c, ok := m.charts[id]
	delete(m.charts, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}
	c.Close()
	log.Info().Str("chart", id).Msg("chart closed")
	return nil
}

// SaveMenuOption persists a menu option for one chart and applies it.
func (m *Manager) SaveMenuOption(id string, opt config.MenuOption) error {
	c, ok := m.Chart(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}
	if err := config.SaveMenuOption(m.store, m.cfg.DashboardID, id, opt); err != nil {
		return err
	}
	c.ApplyMenuOption(opt)
	return nil
}

// ApplyMenuOptionToAll persists one menu option for every chart and applies it.
func (m *Manager) ApplyMenuOptionToAll(opt config.MenuOption) error {
	if !m.started.Load() {
		return ErrManagerNotStarted
	}
	if err := opt.Validate(); err != nil {
		return err
	}

	charts := m.Charts()
	for _, c := range charts {
		if err := config.SaveMenuOption(m.store, m.cfg.DashboardID, c.ChartID(), opt); err != nil {
			return err
		}
		c.ApplyMenuOption(opt)
	}

	log.Info().Int("charts", len(charts)).Msg("menu option applied to all charts")
	return nil
}

// NotifyResize schedules a debounced resize of the charts.
func (m *Manager) NotifyResize() {
	m.resize.Notify()
}

// SyncRegistry returns the hover sync registry.
func (m *Manager) SyncRegistry() *SyncRegistry {
	return m.sync
}

// ResizeCoordinator returns the resize coordinator.
func (m *Manager) ResizeCoordinator() *ResizeCoordinator {
	return m.resize
}

// sortedLocked returns the charts sorted by id. m.mu must be held.
func (m *Manager) sortedLocked() []Chart {
	ids := make([]string, 0, len(m.charts))
	for id := range m.charts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Chart, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.charts[id])
	}
	return out
}
