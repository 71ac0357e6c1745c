package persona

import (
	"strings"
	"testing"
)

func TestSeedCoversEveryType(t *testing.T) {
	store := NewMemoryStore(Seed())
	for _, typ := range Types() {
		p, ok := store.FindByType(typ)
		if !ok {
			t.Fatalf("missing catalog entry for %s", typ)
		}
		if p.Character == "" || p.Description == "" || p.Image == "" || p.Color == "" {
			t.Fatalf("incomplete catalog entry for %s: %+v", typ, p)
		}
	}
	if got := len(store.List()); got != len(Types()) {
		t.Fatalf("expected %d personas, got %d", len(Types()), got)
	}
}

func TestParseTypeAcceptsTitledForm(t *testing.T) {
	cases := map[string]Type{
		"The Cautious Saver": CautiousSaver,
		"cautious saver":     CautiousSaver,
		" Minimalist ":       Minimalist,
		"the deal hunter":    DealHunter,
	}
	for raw, want := range cases {
		got, ok := ParseType(raw)
		if !ok || got != want {
			t.Fatalf("ParseType(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := ParseType("The Gambler"); ok {
		t.Fatal("expected unknown type to be rejected")
	}
}

func TestLookupFallsBackToDefault(t *testing.T) {
	store := NewMemoryStore(Seed())
	p := store.Lookup("nobody")
	if p.Type != DefaultType {
		t.Fatalf("expected default persona, got %s", p.Type)
	}
	if p.Character != "Explorer Ellie" {
		t.Fatalf("unexpected default character %s", p.Character)
	}
}

func TestTypeIDRoundTrip(t *testing.T) {
	for i, typ := range Types() {
		if typ.ID() != i+1 {
			t.Fatalf("expected id %d for %s, got %d", i+1, typ, typ.ID())
		}
		back, ok := TypeByID(i + 1)
		if !ok || back != typ {
			t.Fatalf("TypeByID(%d) = %s", i+1, back)
		}
	}
	if _, ok := TypeByID(9); ok {
		t.Fatal("expected id 9 to be invalid")
	}
}

func TestFallbackLineMentionsCharacter(t *testing.T) {
	p, _ := NewMemoryStore(Seed()).FindByType(CautiousSaver)
	line := p.FallbackLine(false)
	if !strings.Contains(line, "Penny the Penguin") || !strings.Contains(line, "Cautious Saver") {
		t.Fatalf("unexpected fallback line %q", line)
	}
	if p.FallbackLine(false) != line {
		t.Fatal("fallback line must be deterministic")
	}
	if p.FallbackLine(true) == line {
		t.Fatal("rebuttal fallback should differ from the opening one")
	}
}

func TestKeywordFallback(t *testing.T) {
	p, _ := NewMemoryStore(Seed()).FindByType(BudgetingMaestro)
	if got := p.KeywordFallback("How do I budget?"); !strings.Contains(got, "Maestro Moolah") {
		t.Fatalf("budget reply should name the character, got %q", got)
	}
	if got := p.KeywordFallback("Should I INVEST?"); !strings.Contains(got, "compound interest") {
		t.Fatalf("unexpected invest reply %q", got)
	}
}
