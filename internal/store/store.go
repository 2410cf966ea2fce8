// Package store provides crash-safe persistence of per-market quoting state
// using JSON files.
//
// Each market's state is stored as a separate file: state_<marketID>.json.
// Writes use atomic file replacement (write to .tmp, then rename) so a crash
// mid-save never leaves a corrupt file. The engine saves after every tick
// that changes state and loads on startup, so a restarted maker resumes with
// the fair value it had rather than re-seeding from the market mid.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MarketState is the durable part of a market controller's state. The snipe
// timestamp is deliberately excluded: after a restart the maker has no
// resting orders to protect, so an old cool-down would only keep it idle.
type MarketState struct {
	// FairValue is the tracked fair value in cents. Only meaningful when
	// HasFairValue is true; a cleared market persists HasFairValue=false.
	FairValue    int  `json:"fair_value"`
	HasFairValue bool `json:"has_fair_value"`

	// LastPosition is the inventory already damped into FairValue.
	LastPosition int `json:"last_position"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists market states to JSON files in a designated directory.
// All operations are mutex-protected to prevent concurrent file corruption.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates a store backed by the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveState atomically persists the state for a market. It writes to a .tmp
// file first, then renames over the target, so the file is never left in a
// partial state.
func (s *Store) SaveState(marketID string, state MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	path := s.path(marketID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadState restores the state for a market from disk.
// Returns nil, nil if no saved state exists (fresh market).
func (s *Store) LoadState(marketID string) (*MarketState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(marketID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var state MarketState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

// Remove deletes the saved state for a retired market. Missing files are
// not an error.
func (s *Store) Remove(marketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(marketID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}

func (s *Store) path(marketID string) string {
	return filepath.Join(s.dir, "state_"+marketID+".json")
}
