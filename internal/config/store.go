package config

import (
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Store is the persisted key/value store backing menu options.
type Store interface {
	// Get returns the value stored under key
	Get(key string) ([]byte, bool)

	// Set stores value under key, replacing any previous value
	Set(key string, value []byte)
}

// MemoryStore is an in-memory Store safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Set stores a copy of value under key.
func (s *MemoryStore) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
}

// MenuOptionKey returns the store key of a chart's menu option.
func MenuOptionKey(dashboardID, chartID string) string {
	return "menuOption_" + dashboardID + "_" + chartID
}

// LoadMenuOption reads the menu option of a chart from the store.
//
// This method returns DefaultMenuOption, and stores it, when nothing is stored
// yet. Options saved in the legacy flat layout are migrated to the nested
// tooltip and y-axis sections and written back. A value that cannot be decoded
// or fails validation yields the default option together with an error
// wrapping ErrInvalidMenuOption, so callers can render the chart anyway.
func LoadMenuOption(store Store, dashboardID, chartID string) (MenuOption, error) {
	key := MenuOptionKey(dashboardID, chartID)

	raw, ok := store.Get(key)
	if !ok {
		def := DefaultMenuOption()
		if err := SaveMenuOption(store, dashboardID, chartID, def); err != nil {
			return def, err
		}
		return def, nil
	}

	var stored storedMenuOption
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to decode stored menu option")
		return DefaultMenuOption(), fmt.Errorf("%w: %v", ErrInvalidMenuOption, err)
	}

	opt, migrated := stored.toMenuOption()
	if err := opt.Validate(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stored menu option is invalid")
		return DefaultMenuOption(), err
	}

	if migrated {
		log.Info().Str("key", key).Msg("Migrated legacy menu option")
		if err := SaveMenuOption(store, dashboardID, chartID, opt); err != nil {
			return opt, err
		}
	}
	return opt, nil
}

// SaveMenuOption validates and stores the menu option of a chart.
func SaveMenuOption(store Store, dashboardID, chartID string, opt MenuOption) error {
	if err := opt.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(opt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMenuOption, err)
	}
	store.Set(MenuOptionKey(dashboardID, chartID), raw)
	return nil
}
