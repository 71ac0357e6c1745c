package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/money-wrapped/backend/internal/handler"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/repository/transactions"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/settings"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/story"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/summary"
)

const fixture = `Timestamp,Merchant,Amount,Description,Category,Account
2024-01-05,Coffee Corner,-4.50,Latte,coffee,Checking
2024-01-06,Coffee Corner,-4.50,Latte,coffee,Checking
2024-02-10,NS Railways,-120.00,Train to Paris,travel,Checking
2024-03-01,Savings Account,150.00,Monthly transfer,savings,Savings
`

func startAPI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p, _ := persona.Catalog().FindByType(persona.BudgetingMaestro)
	if err := os.WriteFile(filepath.Join(dir, p.FileStem()+".csv"), []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	personas := persona.Catalog()
	srv := httptest.NewServer(handler.NewRouter(handler.Services{
		Personas:      personas,
		Summary:       summary.NewService(transactions.NewCSVRepository(dir, personas), personas, nil),
		Settings:      settings.NewService("https://wrapped.example/share"),
		Chat:          chat.NewService(personas),
		Debate:        debate.New(nil, debate.Config{TurnTimeout: time.Second}),
		DefaultUserID: "1",
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runWith(t, story.Clock, stdin, args...)
}

func runWith(t *testing.T, scheduler story.Scheduler, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newAppCmd(&app{scheduler: scheduler})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInsightsCommand(t *testing.T) {
	url := startAPI(t)

	out, err := run(t, "", "insights", "--backend", url, "--user", "1", "--level", "detailed")
	if err != nil {
		t.Fatalf("insights err: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Top merchants: Coffee Corner x2") {
		t.Fatalf("detailed insights should list merchants:\n%s", out)
	}

	out, err = run(t, "", "insights", "--backend", url, "--level", "high", "--server")
	if err != nil {
		t.Fatalf("server insights err: %v", err)
	}
	if strings.Contains(out, "Top category") {
		t.Fatalf("high privacy must hide the top category:\n%s", out)
	}
}

func TestShareCommand(t *testing.T) {
	url := startAPI(t)

	out, err := run(t, "", "share", "battle", "--backend", url)
	if err != nil {
		t.Fatalf("share err: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "https://wrapped.example/share/") {
		t.Fatalf("unexpected share output %q", out)
	}
}

func TestStoryCommandQuits(t *testing.T) {
	url := startAPI(t)

	out, err := run(t, "n\n3\nq\n", "story", "--backend", url, "--interval", "1h")
	if err != nil {
		t.Fatalf("story err: %v", err)
	}
	if !strings.Contains(out, "1/8") || !strings.Contains(out, "2/8") || !strings.Contains(out, "3/8") {
		t.Fatalf("expected the first three cards:\n%s", out)
	}
}

// eagerScheduler fires every timer right away on its own goroutine.
type eagerScheduler struct{}

func (eagerScheduler) AfterFunc(_ time.Duration, fn func()) story.Timer {
	go fn()
	return instantTimer{s: &instantScheduler{}}
}

func TestStoryRendersFirstCardBeforeAutoAdvance(t *testing.T) {
	url := startAPI(t)

	out, err := runWith(t, eagerScheduler{}, "q\n", "story", "--backend", url, "--interval", "1ns")
	if err != nil {
		t.Fatalf("story err: %v", err)
	}
	first := strings.Index(out, "1/8")
	if first < 0 {
		t.Fatalf("first card missing:\n%s", out)
	}
	if second := strings.Index(out, "2/8"); second >= 0 && second < first {
		t.Fatalf("second card rendered before the first:\n%s", out)
	}
}

func TestBattleCommandWithoutAI(t *testing.T) {
	url := startAPI(t)

	out, err := run(t, "", "battle", "Should I buy a boat?", "--backend", url, "--typing", "0", "--personas", "Minimalist,Deal Hunter")
	if err != nil {
		t.Fatalf("battle err: %v", err)
	}
	if strings.Count(out, "technical issue") != 4 {
		t.Fatalf("expected four fallback statements:\n%s", out)
	}
}

func TestUnknownUserFails(t *testing.T) {
	url := startAPI(t)
	if _, err := run(t, "", "insights", "--backend", url, "--user", "5"); err == nil {
		t.Fatal("expected an error for a user without data")
	}
}

type instantScheduler struct{ stopped bool }

type instantTimer struct{ s *instantScheduler }

func (t instantTimer) Stop() bool { t.s.stopped = true; return true }

func (s *instantScheduler) AfterFunc(_ time.Duration, fn func()) story.Timer {
	fn()
	return instantTimer{s: s}
}

type neverScheduler struct{}

func (neverScheduler) AfterFunc(time.Duration, func()) story.Timer {
	return instantTimer{s: &instantScheduler{}}
}

func TestTypingPause(t *testing.T) {
	if err := typingPause(context.Background(), &instantScheduler{}, time.Second); err != nil {
		t.Fatalf("expected pause to finish, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := typingPause(ctx, neverScheduler{}, time.Second); err == nil {
		t.Fatal("expected cancellation to end the pause")
	}
}
