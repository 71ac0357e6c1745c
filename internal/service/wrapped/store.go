// Package wrapped holds the client-side state of the year-in-review experience:
// the fetched snapshot, the privacy level and the category selection.
package wrapped

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/insight"
)

// Backend is the remote collaborator behind the store.
type Backend interface {
	FetchSnapshot(ctx context.Context, userID string) (*finance.Snapshot, error)
	FetchSettings(ctx context.Context, userID string) (finance.Settings, error)
	SavePrivacyLevel(ctx context.Context, userID string, level finance.PrivacyLevel) error
	SaveCategories(ctx context.Context, userID string, selected []string) error
	Share(ctx context.Context, userID, kind string) (finance.ShareResult, error)
}

// Store is the single owner of the fetched snapshot and the user's privacy
// preferences. All mutation goes through its methods.
type Store struct {
	backend Backend

	mu       sync.RWMutex
	userID   string
	snapshot *finance.Snapshot
	settings finance.Settings
	loading  bool
	err      error
	gen      uint64
	closed   bool
}

// NewStore creates a store with default settings and no snapshot.
func NewStore(backend Backend) *Store {
	return &Store{
		backend:  backend,
		settings: finance.DefaultSettings(),
	}
}

// Load fetches the snapshot and settings for userID. On snapshot failure the
// error is recorded and any previously loaded data is kept. A settings
// failure alone is logged and keeps the previous settings. Results of a load
// that was superseded by a newer Load or by Close are discarded.
func (s *Store) Load(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.loading = true
	s.mu.Unlock()

	snapshot, snapErr := s.backend.FetchSnapshot(ctx, userID)
	settings, settingsErr := s.backend.FetchSettings(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		log.Printf("[store] discard stale load user=%s gen=%d", userID, gen)
		return nil
	}
	s.loading = false

	if snapErr != nil {
		s.err = fmt.Errorf("load financial summary: %w", snapErr)
		log.Printf("[store] load summary failed user=%s: %v", userID, snapErr)
		return s.err
	}

	s.userID = userID
	s.snapshot = snapshot
	s.err = nil
	if settingsErr != nil {
		log.Printf("[store] load settings failed, keep previous user=%s: %v", userID, settingsErr)
	} else {
		if !settings.PrivacyLevel.Valid() {
			settings.PrivacyLevel = finance.PrivacyBalanced
		}
		settings.SelectedCategories = finance.NormalizeCategories(settings.SelectedCategories)
		s.settings = settings
	}
	return nil
}

// SetPrivacyLevel updates the level locally and persists it. A remote failure
// is logged and the local value is kept.
func (s *Store) SetPrivacyLevel(ctx context.Context, level finance.PrivacyLevel) error {
	parsed, err := finance.ParsePrivacyLevel(string(level))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.settings.PrivacyLevel = parsed
	userID := s.userID
	s.mu.Unlock()

	if err := s.backend.SavePrivacyLevel(ctx, userID, parsed); err != nil {
		log.Printf("[store] save privacy level failed level=%s: %v", parsed, err)
	}
	return nil
}

// SetCategories replaces the category selection locally and persists it.
func (s *Store) SetCategories(ctx context.Context, selection []string) {
	selected := finance.NormalizeCategories(selection)

	s.mu.Lock()
	s.settings.SelectedCategories = selected
	userID := s.userID
	s.mu.Unlock()

	if err := s.backend.SaveCategories(ctx, userID, append([]string(nil), selected...)); err != nil {
		log.Printf("[store] save categories failed: %v", err)
	}
}

// Share requests a shareable link. Unlike the other writes its failure is
// returned to the caller.
func (s *Store) Share(ctx context.Context, kind string) (finance.ShareResult, error) {
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()

	result, err := s.backend.Share(ctx, userID, kind)
	if err != nil {
		return finance.ShareResult{}, fmt.Errorf("share %s: %w", kind, err)
	}
	return result, nil
}

// Insights projects the current snapshot through the current privacy level.
func (s *Store) Insights() *insight.Insights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return insight.Project(s.snapshot, s.settings.PrivacyLevel)
}

// Snapshot returns the current snapshot, nil before the first successful load.
func (s *Store) Snapshot() *finance.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() finance.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	out.SelectedCategories = append([]string(nil), s.settings.SelectedCategories...)
	return out
}

// Loading reports whether a load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last completed load, nil on success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close marks the store torn down. Loads still in flight are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.loading = false
	s.gen++
}
