package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/repository/transactions"
)

type fakeSummary struct {
	lastUser string
	err      error
}

func (f *fakeSummary) Snapshot(_ context.Context, userID string) (*finance.Snapshot, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	categories := finance.NewCategoryMap()
	categories.Set("coffee", finance.CategoryStat{Percentage: 60, Count: 6, AvgAmount: 4})
	categories.Set("travel", finance.CategoryStat{Percentage: 40, Count: 4, AvgAmount: 120})
	weekdays := finance.NewWeekdayMap()
	weekdays.Set("monday", 10)
	weekdays.Set("friday", 90)
	return &finance.Snapshot{
		User: finance.User{
			ID:                   userID,
			FinancialPersonality: "Deal Hunter",
			SavingRate:           finance.SavingRate{Current: 20, Previous: 10},
		},
		Categories:        categories,
		TopMerchants:      []finance.Merchant{{Name: "Coffee Corner", Category: "coffee", Visits: 6}},
		SpendingBreakdown: finance.SpendingBreakdown{Experiences: 70, Essentials: 30},
		WeekdaySpending:   weekdays,
	}, nil
}

func (f *fakeSummary) Transactions(_ context.Context, userID string) ([]finance.Transaction, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return []finance.Transaction{{Merchant: "Coffee Corner", Amount: decimal.NewFromFloat(-4.5), Category: "coffee"}}, nil
}

type fixedSettings finance.PrivacyLevel

func (s fixedSettings) Get(context.Context, string) finance.Settings {
	return finance.Settings{PrivacyLevel: finance.PrivacyLevel(s)}
}

func setupRouter(summary *fakeSummary) *chi.Mux {
	r := chi.NewRouter()
	New(summary, fixedSettings(finance.PrivacyHigh), "1").RegisterRoutes(r)
	return r
}

func TestSummaryUsesDefaultUser(t *testing.T) {
	summary := &fakeSummary{}
	r := setupRouter(summary)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/financial-summary", nil))

	if resp.Code != http.StatusOK || summary.lastUser != "1" {
		t.Fatalf("expected 200 for default user, got %d user=%q", resp.Code, summary.lastUser)
	}
	var got finance.Snapshot
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got.Categories.Oldest().Key != "coffee" {
		t.Fatal("expected category order to survive encoding")
	}
}

func TestTransactionsForUser(t *testing.T) {
	summary := &fakeSummary{}
	r := setupRouter(summary)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/transactions?userId=4", nil))

	if resp.Code != http.StatusOK || summary.lastUser != "4" {
		t.Fatalf("expected 200 for user 4, got %d user=%q", resp.Code, summary.lastUser)
	}
}

func TestInsightsLevels(t *testing.T) {
	r := setupRouter(&fakeSummary{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/insights", nil))
	var high map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &high)
	if high["level"] != "high" || high["weekdayPattern"] != "friday" {
		t.Fatalf("expected saved high level projection, got %v", high)
	}
	if _, ok := high["topCategory"]; ok {
		t.Fatal("high level must not expose the top category")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/insights?level=detailed", nil))
	var detailed map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &detailed)
	if _, ok := detailed["topMerchants"]; !ok {
		t.Fatalf("detailed level must expose merchants, got %v", detailed)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/insights?level=public", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid level, got %d", resp.Code)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("user 42: %w", transactions.ErrUnknownUser): http.StatusNotFound,
		fmt.Errorf("row 3: %w", transactions.ErrMalformed):     http.StatusInternalServerError,
	}
	for err, want := range cases {
		r := setupRouter(&fakeSummary{err: err})
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/financial-summary?userId=42", nil))
		if resp.Code != want {
			t.Fatalf("%v: expected %d, got %d", err, want, resp.Code)
		}
	}
}
