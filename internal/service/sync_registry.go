// Package service provides the lifetime-scoped registries shared by the charts
// of one dashboard.
//
// The SyncRegistry fans a hovered timestamp out from one chart to every other
// synced chart. The ResizeCoordinator debounces viewport changes into a single
// resize per chart. The Manager owns both, creates charts bound to them and
// tears everything down on Stop, so no registry outlives its dashboard.
package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"chartview/internal/utils"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNilHandler indicates a registration without a handler.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// SyncHandler receives hover broadcasts from other charts.
type SyncHandler interface {
	// OnSyncedHover shows the focus at the given Unix millisecond timestamp
	OnSyncedHover(ts int64)

	// OnSyncedHoverEnd hides the focus
	OnSyncedHoverEnd()
}

// SyncRegistry maps chart ids to sync handlers and fans hover events out.
//
// Handlers are invoked outside the registry lock and in chart-id order, so a
// handler may register or unregister charts without deadlocking and
// broadcasts are deterministic.
type SyncRegistry struct {
	mu       sync.RWMutex
	handlers map[string]SyncHandler // Registered handlers by chart id
}

// NewSyncRegistry creates an empty registry.
func NewSyncRegistry() *SyncRegistry {
	return &SyncRegistry{
		handlers: make(map[string]SyncHandler),
	}
}

// Register adds or replaces the handler of a chart.
func (r *SyncRegistry) Register(chartID string, h SyncHandler) error {
	if err := utils.ValidateChartID(chartID); err != nil {
		return fmt.Errorf("sync registration: %w", err)
	}
	if h == nil {
		return ErrNilHandler
	}

	r.mu.Lock()
	r.handlers[chartID] = h
	r.mu.Unlock()

	log.Debug().Str("chart", chartID).Msg("chart registered for hover sync")
	return nil
}

// Unregister removes the handler of a chart and reports whether one existed.
func (r *SyncRegistry) Unregister(chartID string) bool {
	r.mu.Lock()
	_, ok := r.handlers[chartID]
	delete(r.handlers, chartID)
	r.mu.Unlock()

	if ok {
		log.Debug().Str("chart", chartID).Msg("chart unregistered from hover sync")
	}
	return ok
}

// Registered reports whether a chart is registered.
func (r *SyncRegistry) Registered(chartID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[chartID]
	return ok
}

// BroadcastHover delivers a hovered timestamp to every chart except origin
// and returns the number of charts reached.
func (r *SyncRegistry) BroadcastHover(ts int64, origin string) int {
	targets := r.targets(origin)
	for _, h := range targets {
		h.OnSyncedHover(ts)
	}
	return len(targets)
}

// BroadcastHoverEnd tells every chart except origin to hide its focus and
// returns the number of charts reached.
func (r *SyncRegistry) BroadcastHoverEnd(origin string) int {
	targets := r.targets(origin)
	for _, h := range targets {
		h.OnSyncedHoverEnd()
	}
	return len(targets)
}

// targets snapshots the handlers to notify, sorted by chart id.
func (r *SyncRegistry) targets(origin string) []SyncHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		if id != origin {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]SyncHandler, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.handlers[id])
	}
	return out
}
