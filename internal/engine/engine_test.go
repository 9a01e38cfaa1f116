package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/lewtec/stargaze/internal/domain"
	"github.com/lewtec/stargaze/internal/repository"
)

// fakeSource serves canned records and remembers every requested
// date. With synthesize set, unknown dates get a generated record so
// random discovery always lands somewhere.
type fakeSource struct {
	records    map[string]*domain.ImageRecord
	calls      []string
	err        error
	synthesize bool
}

func (f *fakeSource) Fetch(ctx context.Context, date string) (*domain.ImageRecord, error) {
	f.calls = append(f.calls, date)
	if f.err != nil {
		return nil, f.err
	}
	if rec, ok := f.records[date]; ok {
		cp := *rec
		return &cp, nil
	}
	if f.synthesize {
		return &domain.ImageRecord{
			Date:      date,
			Title:     "Synthesized " + date,
			URL:       "https://example.com/" + date + ".jpg",
			MediaType: "image",
		}, nil
	}
	return nil, fmt.Errorf("no record for %q", date)
}

func testRecord(date, title string) *domain.ImageRecord {
	return &domain.ImageRecord{
		Date:        date,
		Title:       title,
		Explanation: "About " + title,
		URL:         "https://example.com/" + date + ".jpg",
		MediaType:   "image",
	}
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, source domain.ImageSource) (*Engine, *repository.CollectionRepository) {
	t.Helper()

	db := repository.SetupTestDB(t)
	t.Cleanup(func() { repository.CleanupTestDB(t, db) })

	repo := repository.NewCollectionRepository(db)
	e, err := New(context.Background(), source, repo, Options{
		Now:  func() time.Time { return testNow },
		Rand: rand.New(rand.NewSource(42)),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e, repo
}

func TestEngine_FetchSuccess(t *testing.T) {
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-04": testRecord("2024-01-04", "Nebula"),
	}}
	e, _ := newTestEngine(t, source)

	if err := e.Fetch(context.Background(), "2024-01-04"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	snap := e.Snapshot()
	if snap.Current == nil || snap.Current.ID != "image_2024-01-04" {
		t.Fatalf("unexpected current image: %+v", snap.Current)
	}
	if snap.Loading || snap.Error != "" {
		t.Errorf("expected settled status, got loading=%v error=%q", snap.Loading, snap.Error)
	}
	if len(snap.Seen) != 1 || snap.Seen[0].ID != "image_2024-01-04" {
		t.Errorf("expected one seen entry, got %+v", snap.Seen)
	}
}

func TestEngine_SeenIdempotence(t *testing.T) {
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-04": testRecord("2024-01-04", "Nebula"),
	}}
	e, _ := newTestEngine(t, source)

	e.Fetch(context.Background(), "2024-01-04")
	e.Fetch(context.Background(), "2024-01-04")

	if got := len(e.Snapshot().Seen); got != 1 {
		t.Errorf("len(Seen) = %d after fetching the same date twice, want 1", got)
	}
}

func TestEngine_BannedWalk(t *testing.T) {
	// Scenario A: 2024-01-05 is banned, so a fetch for it must step
	// back to 2024-01-04 and never surface the banned date.
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-05": testRecord("2024-01-05", "Banned one"),
		"2024-01-04": testRecord("2024-01-04", "Fine one"),
	}}
	e, _ := newTestEngine(t, source)

	e.mu.Lock()
	e.cols.AddBanned(domain.BannedEntry{
		ImageRecord: *testRecord("2024-01-05", "Banned one"),
		ID:          domain.BannedID("2024-01-05"),
	})
	e.mu.Unlock()

	if err := e.Fetch(context.Background(), "2024-01-05"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	snap := e.Snapshot()
	if snap.Current == nil || snap.Current.Date != "2024-01-04" {
		t.Fatalf("current should be the prior day, got %+v", snap.Current)
	}
	if len(source.calls) != 2 || source.calls[0] != "2024-01-05" || source.calls[1] != "2024-01-04" {
		t.Errorf("unexpected call sequence: %v", source.calls)
	}
	for _, entry := range snap.Seen {
		if entry.Date == "2024-01-05" {
			t.Error("banned date must never enter the seen history via fetch")
		}
	}
}

func TestEngine_BannedWalkAnchorsAtYesterday(t *testing.T) {
	// An absent date means "today"; if today's record is banned, the
	// walk starts from yesterday relative to now.
	today := testNow.Format(domain.DateLayout)
	yesterday := "2024-05-31"
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"":        testRecord(today, "Today"),
		yesterday: testRecord(yesterday, "Yesterday"),
	}}
	e, _ := newTestEngine(t, source)

	e.mu.Lock()
	e.cols.AddBanned(domain.BannedEntry{ImageRecord: *testRecord(today, "Today"), ID: domain.BannedID(today)})
	e.mu.Unlock()

	if err := e.Fetch(context.Background(), ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(source.calls) != 2 || source.calls[1] != yesterday {
		t.Errorf("expected retry with %s, got calls %v", yesterday, source.calls)
	}
}

func TestEngine_CandidatesExhausted(t *testing.T) {
	source := &fakeSource{synthesize: true}
	db := repository.SetupTestDB(t)
	t.Cleanup(func() { repository.CleanupTestDB(t, db) })
	repo := repository.NewCollectionRepository(db)

	e, err := New(context.Background(), source, repo, Options{
		MaxBackwardSteps: 2,
		Now:              func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, date := range []string{"2024-01-05", "2024-01-04", "2024-01-03"} {
		e.mu.Lock()
		e.cols.AddBanned(domain.BannedEntry{ImageRecord: *testRecord(date, date), ID: domain.BannedID(date)})
		e.mu.Unlock()
	}

	err = e.Fetch(context.Background(), "2024-01-05")
	if !errors.Is(err, domain.ErrCandidatesExhausted) {
		t.Fatalf("expected ErrCandidatesExhausted, got %v", err)
	}

	snap := e.Snapshot()
	if snap.Current != nil {
		t.Error("no banned date may become current, even when the walk gives up")
	}
	if snap.Error == "" || snap.Loading {
		t.Errorf("expected error status, got loading=%v error=%q", snap.Loading, snap.Error)
	}
}

func TestEngine_TransportFailure(t *testing.T) {
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-04": testRecord("2024-01-04", "Nebula"),
	}}
	e, _ := newTestEngine(t, source)
	e.Fetch(context.Background(), "2024-01-04")

	source.err = errors.New("connection refused")
	if err := e.Fetch(context.Background(), "2024-01-03"); err == nil {
		t.Fatal("expected transport error")
	}

	snap := e.Snapshot()
	if snap.Error != msgTransportFailure {
		t.Errorf("error = %q, want transport failure message", snap.Error)
	}
	// Prior state stays intact.
	if snap.Current == nil || snap.Current.Date != "2024-01-04" {
		t.Errorf("current image should be untouched, got %+v", snap.Current)
	}
	if len(snap.Seen) != 1 {
		t.Errorf("seen history should be untouched, got %d entries", len(snap.Seen))
	}
}

func TestEngine_InvalidUpstreamData(t *testing.T) {
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-04": {Title: "No date", URL: "https://example.com/x.jpg", MediaType: "image"},
	}}
	e, _ := newTestEngine(t, source)

	err := e.Fetch(context.Background(), "2024-01-04")
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	snap := e.Snapshot()
	if snap.Error != msgInvalidUpstream {
		t.Errorf("error = %q, want invalid upstream message", snap.Error)
	}
	if len(snap.Seen) != 0 || snap.Current != nil {
		t.Error("invalid upstream data must not mutate state")
	}
}

func TestEngine_BanCurrent(t *testing.T) {
	source := &fakeSource{
		records: map[string]*domain.ImageRecord{
			"2024-01-04": testRecord("2024-01-04", "Nebula"),
		},
		synthesize: true,
	}
	e, _ := newTestEngine(t, source)
	e.Fetch(context.Background(), "2024-01-04")

	if err := e.BanCurrent(context.Background()); err != nil {
		t.Fatalf("BanCurrent() error = %v", err)
	}

	snap := e.Snapshot()
	if len(snap.Banned) != 1 || snap.Banned[0].ID != "banned_2024-01-04" {
		t.Fatalf("unexpected banned list: %+v", snap.Banned)
	}
	if snap.Current == nil {
		t.Fatal("ban should advance to a new candidate")
	}
	if snap.Current.Date == "2024-01-04" {
		t.Error("banned date resurfaced as current")
	}

	t.Run("without a current image", func(t *testing.T) {
		e.ClearAll(context.Background())
		if err := e.BanCurrent(context.Background()); !errors.Is(err, domain.ErrNoCurrentImage) {
			t.Errorf("expected ErrNoCurrentImage, got %v", err)
		}
	})
}

func TestEngine_Unban(t *testing.T) {
	source := &fakeSource{synthesize: true}
	e, repo := newTestEngine(t, source)

	e.mu.Lock()
	e.cols.AddBanned(domain.BannedEntry{ImageRecord: *testRecord("2024-01-05", "Banned"), ID: domain.BannedID("2024-01-05")})
	e.mu.Unlock()
	e.repo.SaveBanned(context.Background(), e.Snapshot().Banned)

	if err := e.Unban(context.Background(), "banned_2024-01-05"); err != nil {
		t.Fatalf("Unban() error = %v", err)
	}
	if len(e.Snapshot().Banned) != 0 {
		t.Error("banned entry should be gone")
	}

	cols, err := repo.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cols.Banned) != 0 {
		t.Error("unban should be written through to storage")
	}
}

func TestEngine_View(t *testing.T) {
	t.Run("cached record sets current without a fetch", func(t *testing.T) {
		source := &fakeSource{}
		e, _ := newTestEngine(t, source)

		rec := *testRecord("2023-03-03", "Cached")
		if err := e.View(context.Background(), rec, "image_2023-03-03", false); err != nil {
			t.Fatalf("View() error = %v", err)
		}
		if len(source.calls) != 0 {
			t.Error("cached view must not hit the source")
		}
		snap := e.Snapshot()
		if snap.Current == nil || snap.Current.Title != "Cached" {
			t.Errorf("unexpected current: %+v", snap.Current)
		}
		if len(snap.Seen) != 1 {
			t.Errorf("cached view should join the seen history, got %d entries", len(snap.Seen))
		}
	})

	t.Run("banned id is shown but not recorded as seen", func(t *testing.T) {
		source := &fakeSource{}
		e, _ := newTestEngine(t, source)

		rec := *testRecord("2023-03-03", "Banned view")
		e.View(context.Background(), rec, "banned_2023-03-03", false)

		snap := e.Snapshot()
		if snap.Current == nil {
			t.Fatal("view should still display the record")
		}
		if len(snap.Seen) != 0 {
			t.Error("banned-derived ids must not enter the seen history")
		}
	})

	t.Run("dashboard view re-fetches by date only", func(t *testing.T) {
		// Scenario C: the passed-in record's other fields are stale
		// and must be ignored in favor of a fresh fetch.
		source := &fakeSource{records: map[string]*domain.ImageRecord{
			"2023-03-03": testRecord("2023-03-03", "Fresh"),
		}}
		e, _ := newTestEngine(t, source)

		stale := domain.ImageRecord{Date: "2023-03-03", Title: "Stale", URL: "stale://", MediaType: "video"}
		if err := e.View(context.Background(), stale, "image_2023-03-03", true); err != nil {
			t.Fatalf("View() error = %v", err)
		}
		if len(source.calls) != 1 || source.calls[0] != "2023-03-03" {
			t.Fatalf("expected a single fetch by date, got %v", source.calls)
		}
		snap := e.Snapshot()
		if snap.Current == nil || snap.Current.Title != "Fresh" || snap.Current.MediaType != "image" {
			t.Errorf("current must come from the fresh fetch, got %+v", snap.Current)
		}
	})

	t.Run("record without a date is ignored", func(t *testing.T) {
		source := &fakeSource{}
		e, _ := newTestEngine(t, source)

		if err := e.View(context.Background(), domain.ImageRecord{Title: "No date"}, "", false); err != nil {
			t.Fatalf("View() should swallow invalid targets, got %v", err)
		}
		snap := e.Snapshot()
		if snap.Current != nil || len(snap.Seen) != 0 {
			t.Error("invalid view target must not mutate state")
		}
	})
}

func TestEngine_Rate(t *testing.T) {
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-04": testRecord("2024-01-04", "Nebula"),
		"2024-01-03": testRecord("2024-01-03", "Galaxy"),
	}}
	e, _ := newTestEngine(t, source)

	t.Run("no current image is a no-op", func(t *testing.T) {
		if err := e.Rate(context.Background(), 5); err != nil {
			t.Fatalf("Rate() error = %v", err)
		}
		if len(e.Snapshot().Favorites) != 0 {
			t.Error("rating without a current image must not add favorites")
		}
	})

	t.Run("rejects out-of-domain ratings", func(t *testing.T) {
		e.Fetch(context.Background(), "2024-01-04")
		for _, rating := range []int{0, 1, 2, 6} {
			if err := e.Rate(context.Background(), rating); !errors.Is(err, domain.ErrInvalidRating) {
				t.Errorf("Rate(%d) = %v, want ErrInvalidRating", rating, err)
			}
		}
	})

	t.Run("re-rating replaces in place with a fresh stamp", func(t *testing.T) {
		e.Fetch(context.Background(), "2024-01-03")
		e.Rate(context.Background(), 3)
		e.Fetch(context.Background(), "2024-01-04")
		e.Rate(context.Background(), 4)
		e.Rate(context.Background(), 5)

		favs := e.Snapshot().Favorites
		if len(favs) != 2 {
			t.Fatalf("len(Favorites) = %d, want 2", len(favs))
		}
		// The 2024-01-04 entry was prepended after 2024-01-03 and must
		// keep position 0 through the re-rating.
		if favs[0].Date != "2024-01-04" || favs[0].Rating != 5 {
			t.Errorf("favorite not replaced in place: %+v", favs[0])
		}
		if !favs[0].AddedToFavoritesAt.Equal(testNow) {
			t.Errorf("timestamp should be restamped, got %v", favs[0].AddedToFavoritesAt)
		}
		if e.CurrentRating() != 5 {
			t.Errorf("CurrentRating() = %d, want 5", e.CurrentRating())
		}
	})
}

func TestEngine_ClearAll(t *testing.T) {
	// Scenario D: clearing empties memory, the current image and the
	// durable slots together.
	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-04": testRecord("2024-01-04", "Nebula"),
	}, synthesize: true}
	e, repo := newTestEngine(t, source)

	e.Fetch(context.Background(), "2024-01-04")
	e.Rate(context.Background(), 5)
	e.BanCurrent(context.Background())

	if err := e.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	snap := e.Snapshot()
	if snap.Current != nil || len(snap.Seen) != 0 || len(snap.Banned) != 0 || len(snap.Favorites) != 0 {
		t.Errorf("state should be empty after clear: %+v", snap)
	}

	cols, err := repo.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cols.Seen) != 0 || len(cols.Banned) != 0 || len(cols.Favorites) != 0 {
		t.Error("durable storage should be empty after clear")
	}
}

func TestEngine_PersistsAcrossRestart(t *testing.T) {
	db := repository.SetupTestDB(t)
	t.Cleanup(func() { repository.CleanupTestDB(t, db) })
	repo := repository.NewCollectionRepository(db)

	source := &fakeSource{records: map[string]*domain.ImageRecord{
		"2024-01-04": testRecord("2024-01-04", "Nebula"),
	}}
	e, err := New(context.Background(), source, repo, Options{Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatal(err)
	}
	e.Fetch(context.Background(), "2024-01-04")
	e.Rate(context.Background(), 4)

	e2, err := New(context.Background(), source, repo, Options{Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatal(err)
	}
	snap := e2.Snapshot()
	if len(snap.Seen) != 1 || len(snap.Favorites) != 1 {
		t.Errorf("restarted engine should load persisted collections, got %+v", snap)
	}
	if snap.Current != nil {
		t.Error("current image is transient and must not survive a restart")
	}
}

func TestIsExcluded(t *testing.T) {
	banned := []domain.BannedEntry{{
		ImageRecord: *testRecord("2024-01-05", "Banned"),
		ID:          domain.BannedID("2024-01-05"),
	}}

	if !isExcluded(testRecord("2024-01-05", "Same date"), banned) {
		t.Error("matching date should be excluded")
	}
	if isExcluded(testRecord("2024-01-06", "Other date"), banned) {
		t.Error("non-matching date should not be excluded")
	}
	if isExcluded(&domain.ImageRecord{}, banned) {
		t.Error("record without a date can never match a ban")
	}
	if isExcluded(nil, banned) {
		t.Error("nil record should not be excluded")
	}
}
