package finance

import (
	"errors"
	"sort"
	"strings"
)

// PrivacyLevel controls how much of a snapshot is surfaced.
type PrivacyLevel string

const (
	PrivacyHigh     PrivacyLevel = "high"
	PrivacyBalanced PrivacyLevel = "balanced"
	PrivacyDetailed PrivacyLevel = "detailed"
)

// ErrInvalidPrivacyLevel is returned for values outside the three known levels.
var ErrInvalidPrivacyLevel = errors.New("invalid privacy level")

// ParsePrivacyLevel accepts the level name case-insensitively.
func ParsePrivacyLevel(raw string) (PrivacyLevel, error) {
	switch PrivacyLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case PrivacyHigh:
		return PrivacyHigh, nil
	case PrivacyBalanced:
		return PrivacyBalanced, nil
	case PrivacyDetailed:
		return PrivacyDetailed, nil
	default:
		return "", ErrInvalidPrivacyLevel
	}
}

// Valid reports whether the level is one of the known levels.
func (l PrivacyLevel) Valid() bool {
	_, err := ParsePrivacyLevel(string(l))
	return err == nil
}

// DefaultCategories is the category selection a new user starts with.
var DefaultCategories = []string{"coffee", "travel", "dining", "shopping", "business"}

// Settings holds the per-user privacy preferences.
type Settings struct {
	PrivacyLevel       PrivacyLevel `json:"privacyLevel"`
	SelectedCategories []string     `json:"selectedCategories"`
}

// DefaultSettings returns balanced privacy with every default category selected.
func DefaultSettings() Settings {
	return Settings{
		PrivacyLevel:       PrivacyBalanced,
		SelectedCategories: append([]string(nil), DefaultCategories...),
	}
}

// NormalizeCategories trims, lowercases, dedupes and sorts a selection.
func NormalizeCategories(selection []string) []string {
	seen := make(map[string]struct{}, len(selection))
	out := make([]string, 0, len(selection))
	for _, raw := range selection {
		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ShareResult is the response of a share request.
type ShareResult struct {
	ShareURL string `json:"shareUrl"`
}
