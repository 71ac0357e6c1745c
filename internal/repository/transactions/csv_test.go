package transactions_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/repository/transactions"
)

const sample = `Timestamp,Merchant,Amount,Description,Category,Account
2024-03-02 10:15:00,Coffee Corner,-3.50,Flat white,Coffee,Main
2024-03-04T18:00:00,NS Railways,-24.10,Train to Utrecht,travel,Main
2024-03-05,Employer BV,2500.00,Salary,income,Main
`

func TestParseReadsRows(t *testing.T) {
	txns, err := transactions.Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}
	first := txns[0]
	if first.Merchant != "Coffee Corner" || first.Category != "coffee" || first.Amount.String() != "-3.5" {
		t.Fatalf("unexpected first transaction %+v", first)
	}
	if !first.IsSpending() || txns[2].IsSpending() {
		t.Fatal("spending detection mismatch")
	}
	if txns[1].Date.Weekday().String() != "Monday" {
		t.Fatalf("unexpected weekday %s", txns[1].Date.Weekday())
	}
}

func TestParseReportsRowErrors(t *testing.T) {
	cases := map[string]string{
		"missing column": "Timestamp,Merchant,Amount,Description,Category\n2024-01-01,A,-1,B,food\n",
		"empty field":    "Timestamp,Merchant,Amount,Description,Category,Account\n2024-01-01,,-1,B,food,Main\n",
		"bad amount":     "Timestamp,Merchant,Amount,Description,Category,Account\n2024-01-01,A,abc,B,food,Main\n",
		"bad date":       "Timestamp,Merchant,Amount,Description,Category,Account\n01/02/2024,A,-1,B,food,Main\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := transactions.Parse(strings.NewReader(input))
			if !errors.Is(err, transactions.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if name != "missing column" && !strings.Contains(err.Error(), "row 1") {
				t.Fatalf("expected row number in %q", err.Error())
			}
		})
	}
}

func TestCSVRepositoryResolvesFileByUserID(t *testing.T) {
	dir := t.TempDir()
	repo := transactions.NewCSVRepository(dir, persona.Catalog())

	path, err := repo.Path("8")
	if err != nil {
		t.Fatalf("Path err: %v", err)
	}
	p, _ := persona.Catalog().FindByType(persona.FinancialAdventurer)
	if filepath.Base(path) != p.FileStem()+".csv" {
		t.Fatalf("unexpected path %s", path)
	}
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	txns, err := repo.List(context.Background(), "8")
	if err != nil || len(txns) != 3 {
		t.Fatalf("List returned %d transactions, err=%v", len(txns), err)
	}

	for _, id := range []string{"0", "9", "abc"} {
		if _, err := repo.List(context.Background(), id); !errors.Is(err, transactions.ErrUnknownUser) {
			t.Fatalf("user %q: expected ErrUnknownUser, got %v", id, err)
		}
	}
}
