package summary_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	analysis "github.com/zhouzirui/money-wrapped/backend/internal/analysis/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/summary"
)

type fakeRepo struct {
	txns []finance.Transaction
	err  error
}

func (r fakeRepo) List(context.Context, string) ([]finance.Transaction, error) {
	return r.txns, r.err
}

type fixedClassifier struct {
	seen analysis.Metrics
}

func (c *fixedClassifier) Classify(_ context.Context, m analysis.Metrics) analysis.Decision {
	c.seen = m
	return analysis.Decision{
		Persona:            persona.CautiousSaver,
		Scores:             map[string]float64{string(persona.CautiousSaver): 1},
		ConversationPoints: []string{"a", "b", "c"},
	}
}

func txn(day int, merchant, amount, category string) finance.Transaction {
	return finance.Transaction{
		Date:     time.Date(2024, time.January, day, 12, 0, 0, 0, time.UTC),
		Merchant: merchant,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
	}
}

func fixture() []finance.Transaction {
	return []finance.Transaction{
		txn(1, "Coffee Corner", "-4", "coffee"),
		txn(2, "Coffee Corner", "-4", "coffee"),
		txn(6, "NS Railways", "-30", "travel"),
		txn(7, "Albert Heijn", "-50", "groceries"),
		txn(8, "Savings Account", "-100", "savings"),
		txn(31, "Savings Account", "-200", "savings"),
	}
}

func TestComputeMetrics(t *testing.T) {
	m := summary.ComputeMetrics(fixture())

	wantOrder := []string{"coffee", "travel", "groceries", "savings"}
	i := 0
	for pair := m.Categories.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key != wantOrder[i] {
			t.Fatalf("category %d: expected %s, got %s", i, wantOrder[i], pair.Key)
		}
		i++
	}

	coffee, _ := m.Categories.Get("coffee")
	if coffee.Percentage != 33 || coffee.Count != 2 || coffee.AvgAmount != 4 {
		t.Fatalf("unexpected coffee stat %+v", coffee)
	}
	travel, _ := m.Categories.Get("travel")
	if travel.Percentage != 17 {
		t.Fatalf("unexpected travel share %v", travel.Percentage)
	}
	savings, _ := m.Categories.Get("savings")
	if savings.AvgAmount != 150 {
		t.Fatalf("unexpected savings average %v", savings.AvgAmount)
	}

	if len(m.TopMerchants) != 3 {
		t.Fatalf("expected 3 merchants, got %d", len(m.TopMerchants))
	}
	if m.TopMerchants[0].Name != "Coffee Corner" || m.TopMerchants[1].Name != "Savings Account" || m.TopMerchants[2].Name != "NS Railways" {
		t.Fatalf("unexpected merchant order %+v", m.TopMerchants)
	}

	if m.Breakdown.Experiences != 10 || m.Breakdown.Essentials != 90 {
		t.Fatalf("unexpected breakdown %+v", m.Breakdown)
	}
	if m.SavingRate.Current != 100 || m.SavingRate.Previous != 53.2 {
		t.Fatalf("unexpected saving rate %+v", m.SavingRate)
	}
}

func TestWeekdaySpendingCoversEveryDay(t *testing.T) {
	txns := append(fixture(), txn(3, "Employer", "2500", "income"))
	days := summary.WeekdaySpending(txns)

	if days.Len() != 7 || days.Oldest().Key != "monday" || days.Newest().Key != "sunday" {
		t.Fatal("expected all seven days in calendar order")
	}
	want := map[string]float64{"monday": 104, "tuesday": 4, "wednesday": 200, "thursday": 0, "friday": 0, "saturday": 30, "sunday": 50}
	for day, amount := range want {
		if got, _ := days.Get(day); got != amount {
			t.Fatalf("%s: expected %v, got %v", day, amount, got)
		}
	}
}

func TestSnapshotUsesClassifier(t *testing.T) {
	classifier := &fixedClassifier{}
	svc := summary.NewService(fakeRepo{txns: fixture()}, persona.Catalog(), classifier)

	snap, err := svc.Snapshot(context.Background(), "3")
	if err != nil {
		t.Fatalf("Snapshot err: %v", err)
	}
	if snap.User.ID != "3" || snap.User.FinancialPersonality != string(persona.CautiousSaver) {
		t.Fatalf("unexpected user %+v", snap.User)
	}
	if snap.Persona == nil || snap.Persona.Type != persona.CautiousSaver {
		t.Fatal("expected resolved persona")
	}
	if classifier.seen.TransactionCount != 6 {
		t.Fatalf("classifier saw %d transactions", classifier.seen.TransactionCount)
	}
	if len(snap.ConversationPoints) != 3 || snap.WeekdaySpending.Len() != 7 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSnapshotPropagatesRepositoryError(t *testing.T) {
	boom := errors.New("disk gone")
	svc := summary.NewService(fakeRepo{err: boom}, persona.Catalog(), nil)
	if _, err := svc.Snapshot(context.Background(), "1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestEmptyHistoryFallsBackToDefaultPersona(t *testing.T) {
	svc := summary.NewService(fakeRepo{}, persona.Catalog(), nil)
	snap, err := svc.Snapshot(context.Background(), "1")
	if err != nil {
		t.Fatalf("Snapshot err: %v", err)
	}
	if snap.Persona.Type != persona.DefaultType {
		t.Fatalf("expected default persona, got %s", snap.Persona.Type)
	}
}
