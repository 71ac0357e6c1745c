package wrapped_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/wrapped"
)

var errBackendDown = errors.New("backend down")

type fakeBackend struct {
	mu          sync.Mutex
	snapshots   map[string]*finance.Snapshot
	settings    finance.Settings
	snapErr     error
	settingsErr error
	saveErr     error
	shareErr    error
	gate        map[string]chan struct{}
	savedLevels []finance.PrivacyLevel
	savedCats   [][]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		snapshots: map[string]*finance.Snapshot{
			"1": snapshotFor("1", persona.Minimalist),
			"2": snapshotFor("2", persona.DealHunter),
		},
		settings: finance.Settings{PrivacyLevel: finance.PrivacyDetailed, SelectedCategories: []string{"Travel", "coffee"}},
		gate:     map[string]chan struct{}{},
	}
}

func snapshotFor(userID string, t persona.Type) *finance.Snapshot {
	categories := finance.NewCategoryMap()
	categories.Set("travel", finance.CategoryStat{Percentage: 28, Count: 10, AvgAmount: 40})
	categories.Set("coffee", finance.CategoryStat{Percentage: 8, Count: 3, AvgAmount: 4})
	return &finance.Snapshot{
		User:       finance.User{ID: userID, FinancialPersonality: string(t)},
		Categories: categories,
	}
}

func (b *fakeBackend) FetchSnapshot(_ context.Context, userID string) (*finance.Snapshot, error) {
	b.mu.Lock()
	gate := b.gate[userID]
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.snapErr != nil {
		return nil, b.snapErr
	}
	return b.snapshots[userID], nil
}

func (b *fakeBackend) FetchSettings(context.Context, string) (finance.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings, b.settingsErr
}

func (b *fakeBackend) SavePrivacyLevel(_ context.Context, _ string, level finance.PrivacyLevel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.savedLevels = append(b.savedLevels, level)
	return b.saveErr
}

func (b *fakeBackend) SaveCategories(_ context.Context, _ string, selected []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.savedCats = append(b.savedCats, selected)
	return b.saveErr
}

func (b *fakeBackend) Share(_ context.Context, userID, kind string) (finance.ShareResult, error) {
	if b.shareErr != nil {
		return finance.ShareResult{}, b.shareErr
	}
	return finance.ShareResult{ShareURL: "https://share.local/" + userID + "/" + kind}, nil
}

func TestLoadPopulatesSnapshotAndSettings(t *testing.T) {
	store := wrapped.NewStore(newFakeBackend())
	if store.Insights() != nil {
		t.Fatal("expected no insights before load")
	}

	if err := store.Load(context.Background(), "1"); err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if store.Loading() || store.Err() != nil {
		t.Fatalf("unexpected state loading=%v err=%v", store.Loading(), store.Err())
	}
	settings := store.Settings()
	if settings.PrivacyLevel != finance.PrivacyDetailed {
		t.Fatalf("expected detailed level, got %s", settings.PrivacyLevel)
	}
	if len(settings.SelectedCategories) != 2 || settings.SelectedCategories[0] != "coffee" || settings.SelectedCategories[1] != "travel" {
		t.Fatalf("expected normalised categories, got %v", settings.SelectedCategories)
	}

	in := store.Insights()
	if in == nil || in.Persona.Type != persona.Minimalist || in.Categories == nil {
		t.Fatalf("unexpected insights %+v", in)
	}
}

func TestLoadFailureKeepsPriorData(t *testing.T) {
	backend := newFakeBackend()
	store := wrapped.NewStore(backend)
	if err := store.Load(context.Background(), "1"); err != nil {
		t.Fatalf("Load err: %v", err)
	}
	before := store.Snapshot()

	backend.snapErr = errBackendDown
	err := store.Load(context.Background(), "2")
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	if !errors.Is(store.Err(), errBackendDown) {
		t.Fatal("expected error flag to be set")
	}
	if store.Snapshot() != before {
		t.Fatal("prior snapshot must be kept on failure")
	}
	if store.Loading() {
		t.Fatal("loading flag must clear after failure")
	}

	backend.snapErr = nil
	if err := store.Load(context.Background(), "2"); err != nil {
		t.Fatalf("reload err: %v", err)
	}
	if store.Err() != nil {
		t.Fatal("successful reload must clear the error flag")
	}
}

func TestSettingsFailureKeepsPreviousSettings(t *testing.T) {
	backend := newFakeBackend()
	backend.settingsErr = errBackendDown
	store := wrapped.NewStore(backend)

	if err := store.Load(context.Background(), "1"); err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if store.Settings().PrivacyLevel != finance.PrivacyBalanced {
		t.Fatal("expected default settings to survive a settings failure")
	}
	if store.Snapshot() == nil {
		t.Fatal("snapshot should still load")
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.gate["1"] = gate
	store := wrapped.NewStore(backend)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Load(context.Background(), "1")
	}()

	// Wait until the slow load is in flight before starting the newer one.
	for !store.Loading() {
	}
	if err := store.Load(context.Background(), "2"); err != nil {
		t.Fatalf("Load err: %v", err)
	}
	close(gate)
	<-done

	if got := store.Snapshot().User.ID; got != "2" {
		t.Fatalf("stale load overwrote newer data, got user %s", got)
	}
}

func TestCloseDiscardsInFlightLoad(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.gate["1"] = gate
	store := wrapped.NewStore(backend)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Load(context.Background(), "1")
	}()
	for !store.Loading() {
	}
	store.Close()
	close(gate)
	<-done

	if store.Snapshot() != nil {
		t.Fatal("load finishing after Close must be discarded")
	}
}

func TestOptimisticWritesSurviveRemoteFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.saveErr = errBackendDown
	store := wrapped.NewStore(backend)

	if err := store.SetPrivacyLevel(context.Background(), finance.PrivacyHigh); err != nil {
		t.Fatalf("SetPrivacyLevel err: %v", err)
	}
	if store.Settings().PrivacyLevel != finance.PrivacyHigh {
		t.Fatal("level must be updated locally despite remote failure")
	}
	if len(backend.savedLevels) != 1 {
		t.Fatal("expected a remote write attempt")
	}

	store.SetCategories(context.Background(), []string{" Dining", "coffee", "dining"})
	got := store.Settings().SelectedCategories
	if len(got) != 2 || got[0] != "coffee" || got[1] != "dining" {
		t.Fatalf("unexpected categories %v", got)
	}

	if err := store.SetPrivacyLevel(context.Background(), "secret"); !errors.Is(err, finance.ErrInvalidPrivacyLevel) {
		t.Fatalf("expected ErrInvalidPrivacyLevel, got %v", err)
	}
	if store.Settings().PrivacyLevel != finance.PrivacyHigh {
		t.Fatal("invalid level must not change state")
	}
}

func TestShareSurfacesFailure(t *testing.T) {
	backend := newFakeBackend()
	store := wrapped.NewStore(backend)
	_ = store.Load(context.Background(), "1")

	res, err := store.Share(context.Background(), "story")
	if err != nil || res.ShareURL != "https://share.local/1/story" {
		t.Fatalf("unexpected share result %+v err=%v", res, err)
	}

	backend.shareErr = errBackendDown
	if _, err := store.Share(context.Background(), "story"); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected share failure to propagate, got %v", err)
	}
}
