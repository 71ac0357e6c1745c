// Package summary turns a user's transaction history into a financial snapshot.
package summary

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	analysis "github.com/zhouzirui/money-wrapped/backend/internal/analysis/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/repository/transactions"
)

// TopMerchantLimit is the number of merchants kept in a snapshot.
const TopMerchantLimit = 3

// experienceCategories count towards the experiences side of the breakdown.
var experienceCategories = map[string]struct{}{
	"food": {}, "entertainment": {}, "travel": {}, "personal": {}, "shopping": {},
	"gifts": {}, "subscriptions": {}, "pets": {}, "coffee": {}, "dining": {},
}

const savingsCategory = "savings"

// Classifier picks a persona for a set of metrics.
type Classifier interface {
	Classify(ctx context.Context, metrics analysis.Metrics) analysis.Decision
}

// Service builds snapshots from a transaction repository.
type Service struct {
	repo       transactions.Repository
	personas   persona.Store
	classifier Classifier
}

// NewService creates a summary service. A nil classifier uses the heuristic.
func NewService(repo transactions.Repository, personas persona.Store, classifier Classifier) *Service {
	return &Service{repo: repo, personas: personas, classifier: classifier}
}

// Transactions returns the raw history of userID.
func (s *Service) Transactions(ctx context.Context, userID string) ([]finance.Transaction, error) {
	return s.repo.List(ctx, userID)
}

// Snapshot computes metrics for userID and classifies the result.
func (s *Service) Snapshot(ctx context.Context, userID string) (*finance.Snapshot, error) {
	txns, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	metrics := ComputeMetrics(txns)

	var decision analysis.Decision
	if s.classifier != nil {
		decision = s.classifier.Classify(ctx, metrics)
	} else {
		decision = analysis.Classify(metrics)
	}

	p, ok := s.personas.FindByType(decision.Persona)
	if !ok {
		p = s.personas.Lookup(string(persona.DefaultType))
	}
	log.Printf("[summary] user=%s transactions=%d persona=%s", userID, len(txns), p.Type)

	return &finance.Snapshot{
		User: finance.User{
			ID:                   userID,
			FinancialPersonality: string(p.Type),
			SavingRate:           metrics.SavingRate,
		},
		Persona:            &p,
		Categories:         metrics.Categories,
		TopMerchants:       metrics.TopMerchants,
		SpendingBreakdown:  metrics.Breakdown,
		WeekdaySpending:    WeekdaySpending(txns),
		ConversationPoints: decision.ConversationPoints,
		PersonaScores:      decision.Scores,
	}, nil
}

// ComputeMetrics derives the category, merchant, breakdown and saving metrics
// of a transaction history. Category percentages are shares of the
// transaction count; the breakdown is a share of absolute amounts.
func ComputeMetrics(txns []finance.Transaction) analysis.Metrics {
	metrics := analysis.Metrics{
		Categories:       finance.NewCategoryMap(),
		TransactionCount: len(txns),
	}
	if len(txns) == 0 {
		return metrics
	}

	type bucket struct {
		count int
		total decimal.Decimal
	}
	order := make([]string, 0)
	buckets := make(map[string]*bucket)

	type merchantCount struct {
		name     string
		category string
		visits   int
	}
	merchantOrder := make([]*merchantCount, 0)
	merchants := make(map[string]*merchantCount)

	totalSpend := decimal.Zero
	experienceSpend := decimal.Zero

	for _, t := range txns {
		abs := t.Amount.Abs()
		totalSpend = totalSpend.Add(abs)

		b, ok := buckets[t.Category]
		if !ok {
			b = &bucket{}
			buckets[t.Category] = b
			order = append(order, t.Category)
		}
		b.count++
		b.total = b.total.Add(abs)

		m, ok := merchants[t.Merchant]
		if !ok {
			m = &merchantCount{name: t.Merchant}
			merchants[t.Merchant] = m
			merchantOrder = append(merchantOrder, m)
		}
		m.visits++
		m.category = t.Category

		if _, ok := experienceCategories[strings.ToLower(t.Category)]; ok {
			experienceSpend = experienceSpend.Add(abs)
		}
	}

	count := decimal.NewFromInt(int64(len(txns)))
	hundred := decimal.NewFromInt(100)
	for _, name := range order {
		b := buckets[name]
		n := decimal.NewFromInt(int64(b.count))
		metrics.Categories.Set(name, finance.CategoryStat{
			Percentage: n.Div(count).Mul(hundred).Round(0).InexactFloat64(),
			Count:      b.count,
			AvgAmount:  b.total.Div(n).Round(0).InexactFloat64(),
		})
	}

	// Stable selection keeps first-seen merchants ahead on equal visits.
	for len(metrics.TopMerchants) < TopMerchantLimit && len(merchantOrder) > 0 {
		best := 0
		for i, m := range merchantOrder {
			if m.visits > merchantOrder[best].visits {
				best = i
			}
		}
		m := merchantOrder[best]
		metrics.TopMerchants = append(metrics.TopMerchants, finance.Merchant{Name: m.name, Category: m.category, Visits: m.visits})
		merchantOrder = append(merchantOrder[:best], merchantOrder[best+1:]...)
	}

	if totalSpend.IsPositive() {
		experiences := experienceSpend.Div(totalSpend).Mul(hundred).Round(0)
		essentials := totalSpend.Sub(experienceSpend).Div(totalSpend).Mul(hundred).Round(0)
		metrics.Breakdown = finance.SpendingBreakdown{
			Experiences: experiences.InexactFloat64(),
			Essentials:  essentials.InexactFloat64(),
		}
	}

	metrics.SavingRate = SavingRate(txns)
	return metrics
}

// WeekdaySpending sums outgoing amounts per weekday. All seven days are
// present in calendar order starting Monday.
func WeekdaySpending(txns []finance.Transaction) *finance.WeekdayMap {
	totals := make(map[string]decimal.Decimal, len(finance.Weekdays))
	for _, t := range txns {
		if !t.IsSpending() {
			continue
		}
		day := weekdayName(t.Date.Weekday())
		totals[day] = totals[day].Add(t.Amount.Abs())
	}

	out := finance.NewWeekdayMap()
	for _, day := range finance.Weekdays {
		out.Set(day, totals[day].Round(2).InexactFloat64())
	}
	return out
}

func weekdayName(d time.Weekday) string {
	// time.Weekday starts on Sunday, finance.Weekdays on Monday.
	return finance.Weekdays[(int(d)+6)%7]
}

// SavingRate compares the savings share of absolute spend in the later half
// of the history against the earlier half, in percent.
func SavingRate(txns []finance.Transaction) finance.SavingRate {
	if len(txns) == 0 {
		return finance.SavingRate{}
	}

	first, last := txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(first) {
			first = t.Date
		}
		if t.Date.After(last) {
			last = t.Date
		}
	}
	mid := first.Add(last.Sub(first) / 2)

	var earlierSaved, earlierTotal, laterSaved, laterTotal decimal.Decimal
	for _, t := range txns {
		if !t.IsSpending() {
			continue
		}
		abs := t.Amount.Abs()
		saved := strings.EqualFold(t.Category, savingsCategory)
		if t.Date.After(mid) {
			laterTotal = laterTotal.Add(abs)
			if saved {
				laterSaved = laterSaved.Add(abs)
			}
		} else {
			earlierTotal = earlierTotal.Add(abs)
			if saved {
				earlierSaved = earlierSaved.Add(abs)
			}
		}
	}

	return finance.SavingRate{
		Current:  percent(laterSaved, laterTotal),
		Previous: percent(earlierSaved, earlierTotal),
	}
}

func percent(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}
