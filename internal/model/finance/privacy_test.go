package finance

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParsePrivacyLevel(t *testing.T) {
	for raw, want := range map[string]PrivacyLevel{"HIGH": PrivacyHigh, " balanced ": PrivacyBalanced, "Detailed": PrivacyDetailed} {
		got, err := ParsePrivacyLevel(raw)
		if err != nil || got != want {
			t.Fatalf("ParsePrivacyLevel(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParsePrivacyLevel("paranoid"); !errors.Is(err, ErrInvalidPrivacyLevel) {
		t.Fatalf("expected ErrInvalidPrivacyLevel, got %v", err)
	}
}

func TestNormalizeCategories(t *testing.T) {
	got := NormalizeCategories([]string{"Travel", "coffee", " travel", "", "dining"})
	want := []string{"coffee", "dining", "travel"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSnapshotKeepsPayloadOrder(t *testing.T) {
	payload := []byte(`{
		"user": {"id": "1", "financialPersonality": "Minimalist", "savingRate": {"current": 15, "previous": 10}},
		"categories": {"travel": {"percentage": 28, "count": 18, "avgAmount": 12}, "coffee": {"percentage": 8, "count": 42, "avgAmount": 4}},
		"weekdaySpending": {"sunday": 24, "monday": 10}
	}`)

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var keys []string
	for pair := snap.Categories.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if !reflect.DeepEqual(keys, []string{"travel", "coffee"}) {
		t.Fatalf("unexpected category order %v", keys)
	}

	first := snap.WeekdaySpending.Oldest()
	if first == nil || first.Key != "sunday" {
		t.Fatalf("expected sunday first, got %+v", first)
	}
}
