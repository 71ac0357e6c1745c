// Package settings keeps per-user privacy preferences and issued share links.
package settings

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
)

// DefaultShareKind is used when a share request names no kind.
const DefaultShareKind = "story"

// Share is one issued share link.
type Share struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	URL       string    `json:"shareUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service stores settings in memory, keyed by user id.
type Service struct {
	baseURL string

	mu     sync.RWMutex
	users  map[string]finance.Settings
	shares map[string]Share
}

// NewService creates a settings store issuing links under baseURL.
func NewService(baseURL string) *Service {
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		users:   make(map[string]finance.Settings),
		shares:  make(map[string]Share),
	}
}

// Get returns the settings of userID, defaults when none were saved.
func (s *Service) Get(_ context.Context, userID string) finance.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(userID)
}

// SetPrivacyLevel validates and stores the level of userID.
func (s *Service) SetPrivacyLevel(_ context.Context, userID string, raw string) (finance.Settings, error) {
	level, err := finance.ParsePrivacyLevel(raw)
	if err != nil {
		return finance.Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.getLocked(userID)
	current.PrivacyLevel = level
	s.users[userID] = current
	return current, nil
}

// SetCategories stores the normalised category selection of userID.
func (s *Service) SetCategories(_ context.Context, userID string, selected []string) finance.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.getLocked(userID)
	current.SelectedCategories = finance.NormalizeCategories(selected)
	s.users[userID] = current
	return current
}

// Share issues a new link for userID.
func (s *Service) Share(_ context.Context, userID, kind string) finance.ShareResult {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = DefaultShareKind
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	share := Share{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		URL:       s.baseURL + "/" + id,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.shares[id] = share
	s.mu.Unlock()

	return finance.ShareResult{ShareURL: share.URL}
}

// LookupShare returns a previously issued link.
func (s *Service) LookupShare(_ context.Context, id string) (Share, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	share, ok := s.shares[id]
	return share, ok
}

func (s *Service) getLocked(userID string) finance.Settings {
	current, ok := s.users[userID]
	if !ok {
		return finance.DefaultSettings()
	}
	current.SelectedCategories = append([]string(nil), current.SelectedCategories...)
	return current
}
