package insight_test

import (
	"testing"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/insight"
)

func sampleSnapshot() *finance.Snapshot {
	categories := finance.NewCategoryMap()
	categories.Set("travel", finance.CategoryStat{Percentage: 28, Count: 18, AvgAmount: 12})
	categories.Set("coffee", finance.CategoryStat{Percentage: 8, Count: 42, AvgAmount: 14})

	weekdays := finance.NewWeekdayMap()
	weekdays.Set("monday", 10)
	weekdays.Set("friday", 22)
	weekdays.Set("saturday", 32)

	p, _ := persona.Catalog().FindByType(persona.SpontaneousSpender)
	return &finance.Snapshot{
		User: finance.User{
			ID:                   "user123",
			FinancialPersonality: string(persona.SpontaneousSpender),
			SavingRate:           finance.SavingRate{Current: 15, Previous: 10},
		},
		Persona:           &p,
		Categories:        categories,
		TopMerchants:      []finance.Merchant{{Name: "Café Amsterdam", Category: "coffee", Visits: 18}},
		SpendingBreakdown: finance.SpendingBreakdown{Experiences: 45, Essentials: 55},
		WeekdaySpending:   weekdays,
	}
}

func TestProjectNilSnapshot(t *testing.T) {
	if got := insight.Project(nil, finance.PrivacyDetailed); got != nil {
		t.Fatalf("expected nil insights, got %+v", got)
	}
}

func TestProjectAlwaysIncludesPersonality(t *testing.T) {
	snap := sampleSnapshot()
	for _, level := range []finance.PrivacyLevel{finance.PrivacyHigh, finance.PrivacyBalanced, finance.PrivacyDetailed, "unknown"} {
		got := insight.Project(snap, level)
		if got.FinancialPersonality != string(persona.SpontaneousSpender) {
			t.Fatalf("level %s: missing personality", level)
		}
		if got.Persona.Character != "Flashy Fin" {
			t.Fatalf("level %s: missing persona descriptor", level)
		}
	}
}

func TestProjectHigh(t *testing.T) {
	got := insight.Project(sampleSnapshot(), finance.PrivacyHigh)
	if got.WeekdayPattern != "saturday" {
		t.Fatalf("expected saturday, got %q", got.WeekdayPattern)
	}
	if got.SavingTrend == nil || !*got.SavingTrend {
		t.Fatal("expected positive saving trend")
	}
	if got.TopCategory != nil || got.SpendingBreakdown != nil || got.Categories != nil || got.TopMerchants != nil {
		t.Fatalf("high privacy leaked detail: %+v", got)
	}
}

func TestProjectBalanced(t *testing.T) {
	got := insight.Project(sampleSnapshot(), finance.PrivacyBalanced)
	if got.TopCategory == nil || got.TopCategory.Name != "travel" || got.TopCategory.Percentage != 28 {
		t.Fatalf("unexpected top category %+v", got.TopCategory)
	}
	if got.SpendingBreakdown == nil || got.SpendingBreakdown.Experiences != 45 {
		t.Fatalf("unexpected breakdown %+v", got.SpendingBreakdown)
	}
	if got.SavingTrend != nil || got.WeekdayPattern != "" || got.TopMerchants != nil || got.Categories != nil {
		t.Fatalf("balanced privacy exposed wrong fields: %+v", got)
	}
}

func TestProjectDetailed(t *testing.T) {
	snap := sampleSnapshot()
	got := insight.Project(snap, finance.PrivacyDetailed)
	if got.TopCategory == nil || got.TopCategory.Name != "travel" {
		t.Fatalf("unexpected top category %+v", got.TopCategory)
	}
	if len(got.TopMerchants) != 1 || got.TopMerchants[0].Name != "Café Amsterdam" {
		t.Fatalf("unexpected merchants %+v", got.TopMerchants)
	}
	if got.Categories == nil || got.Categories.Len() != 2 {
		t.Fatal("expected full category breakdown")
	}
}

func TestProjectResolvesPersonaFromPersonality(t *testing.T) {
	snap := sampleSnapshot()
	snap.Persona = nil
	snap.User.FinancialPersonality = "The Cautious Saver"
	got := insight.Project(snap, finance.PrivacyHigh)
	if got.Persona.Character != "Penny the Penguin" {
		t.Fatalf("expected persona resolved from personality, got %+v", got.Persona)
	}
}

func TestTopCategoryTieBreak(t *testing.T) {
	categories := finance.NewCategoryMap()
	categories.Set("shopping", finance.CategoryStat{Percentage: 27})
	categories.Set("business", finance.CategoryStat{Percentage: 27})
	got := insight.TopCategoryOf(categories)
	if got == nil || got.Name != "business" {
		t.Fatalf("expected business to win the tie, got %+v", got)
	}
	if insight.TopCategoryOf(finance.NewCategoryMap()) != nil {
		t.Fatal("expected nil for empty categories")
	}
}

func TestTopWeekdayTieBreak(t *testing.T) {
	weekdays := finance.NewWeekdayMap()
	weekdays.Set("sunday", 30)
	weekdays.Set("holiday", 30)
	weekdays.Set("tuesday", 30)
	if got := insight.TopWeekday(weekdays); got != "tuesday" {
		t.Fatalf("expected earliest calendar day, got %q", got)
	}
	if got := insight.TopWeekday(nil); got != "" {
		t.Fatalf("expected empty pattern, got %q", got)
	}
}
