// Package insight projects a financial snapshot onto what a privacy level allows
// the user interface to show.
package insight

import (
	"sort"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// TopCategory is the single highest-share category.
type TopCategory struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// Insights is the redacted view of a snapshot. Personality and Persona are
// present at every level.
type Insights struct {
	Level                finance.PrivacyLevel       `json:"level"`
	FinancialPersonality string                     `json:"financialPersonality"`
	Persona              persona.Persona            `json:"persona"`
	SavingTrend          *bool                      `json:"savingTrend,omitempty"`
	WeekdayPattern       string                     `json:"weekdayPattern,omitempty"`
	SpendingBreakdown    *finance.SpendingBreakdown `json:"spendingBreakdown,omitempty"`
	TopCategory          *TopCategory               `json:"topCategory,omitempty"`
	TopMerchants         []finance.Merchant         `json:"topMerchants,omitempty"`
	Categories           *finance.CategoryMap       `json:"categories,omitempty"`
}

// Project returns the insights visible at level. It never mutates snapshot and
// returns nil only when snapshot is nil.
func Project(snapshot *finance.Snapshot, level finance.PrivacyLevel) *Insights {
	if snapshot == nil {
		return nil
	}

	out := &Insights{
		Level:                level,
		FinancialPersonality: snapshot.User.FinancialPersonality,
		Persona:              resolvePersona(snapshot),
	}

	switch level {
	case finance.PrivacyHigh:
		trend := snapshot.User.SavingRate.Current > snapshot.User.SavingRate.Previous
		out.SavingTrend = &trend
		out.WeekdayPattern = TopWeekday(snapshot.WeekdaySpending)
	case finance.PrivacyBalanced:
		applyBalanced(out, snapshot)
	case finance.PrivacyDetailed:
		applyBalanced(out, snapshot)
		out.TopMerchants = append([]finance.Merchant(nil), snapshot.TopMerchants...)
		out.Categories = snapshot.Categories
	}

	return out
}

func applyBalanced(out *Insights, snapshot *finance.Snapshot) {
	breakdown := snapshot.SpendingBreakdown
	out.SpendingBreakdown = &breakdown
	out.TopCategory = TopCategoryOf(snapshot.Categories)
}

func resolvePersona(snapshot *finance.Snapshot) persona.Persona {
	if snapshot.Persona != nil {
		return *snapshot.Persona
	}
	return persona.Catalog().Lookup(snapshot.User.FinancialPersonality)
}

// TopCategoryOf picks the category with the highest percentage. Ties go to the
// lexically smallest name so the result does not depend on payload order.
func TopCategoryOf(categories *finance.CategoryMap) *TopCategory {
	if categories == nil || categories.Len() == 0 {
		return nil
	}

	var best *TopCategory
	for pair := categories.Oldest(); pair != nil; pair = pair.Next() {
		candidate := TopCategory{Name: pair.Key, Percentage: pair.Value.Percentage}
		if best == nil ||
			candidate.Percentage > best.Percentage ||
			(candidate.Percentage == best.Percentage && candidate.Name < best.Name) {
			c := candidate
			best = &c
		}
	}
	return best
}

// TopWeekday picks the day with the highest spend. Ties go to the earlier
// calendar day; keys that are not weekday names rank after every calendar day.
func TopWeekday(spending *finance.WeekdayMap) string {
	if spending == nil || spending.Len() == 0 {
		return ""
	}

	type entry struct {
		day    string
		amount float64
		rank   int
	}

	entries := make([]entry, 0, spending.Len())
	position := 0
	for pair := spending.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, entry{day: pair.Key, amount: pair.Value, rank: weekdayRank(pair.Key, position)})
		position++
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].amount != entries[j].amount {
			return entries[i].amount > entries[j].amount
		}
		return entries[i].rank < entries[j].rank
	})
	return entries[0].day
}

func weekdayRank(day string, position int) int {
	for i, name := range finance.Weekdays {
		if name == day {
			return i
		}
	}
	return len(finance.Weekdays) + position
}
