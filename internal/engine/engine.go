// Package engine implements the image acquisition and
// state-reconciliation core: fetching candidates from the remote
// feed, resolving them against the ban list, deduplicating viewing
// history and curating rated favorites.
package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/lewtec/stargaze/internal/domain"
)

// User-facing status messages. Transport and upstream-data failures
// surface differently so the user knows whether retrying makes sense.
const (
	msgTransportFailure = "Failed to fetch NASA image. Please try again later."
	msgInvalidUpstream  = "Invalid data received from NASA API. Please try again."
	msgExhausted        = "Every candidate date nearby is banned. Unban something and try again."
)

const (
	defaultFeedStart        = "1995-06-16"
	defaultMaxBackwardSteps = 365
)

// Options configures an Engine. Zero values pick sensible defaults.
type Options struct {
	// FeedStart is the first date the feed knows about (ISO date).
	FeedStart string

	// MaxBackwardSteps bounds the backward walk past banned dates.
	MaxBackwardSteps int

	// Now overrides the clock, for tests.
	Now func() time.Time

	// Rand overrides the random source used by Discover, for tests.
	Rand *rand.Rand
}

// Engine owns the current image plus loading/error status and
// orchestrates every user intent against the collections and the
// remote source. Collection state lives in memory and is written
// through to the repository after each mutation.
type Engine struct {
	mu      sync.Mutex
	source  domain.ImageSource
	repo    domain.CollectionRepository
	cols    *domain.Collections
	current *domain.CurrentImage
	loading bool
	lastErr string

	feedStart        time.Time
	maxBackwardSteps int
	now              func() time.Time
	rng              *rand.Rand
}

// Snapshot is a read-only projection of the engine state for display
// collaborators.
type Snapshot struct {
	Current   *domain.CurrentImage   `json:"current"`
	Loading   bool                   `json:"loading"`
	Error     string                 `json:"error,omitempty"`
	Seen      []domain.SeenEntry     `json:"seen"`
	Banned    []domain.BannedEntry   `json:"banned"`
	Favorites []domain.FavoriteEntry `json:"favorites"`
}

// New creates an Engine and loads the persisted collections, falling
// back to empty ones on a fresh store.
func New(ctx context.Context, source domain.ImageSource, repo domain.CollectionRepository, opts Options) (*Engine, error) {
	if opts.FeedStart == "" {
		opts.FeedStart = defaultFeedStart
	}
	feedStart, err := time.Parse(domain.DateLayout, opts.FeedStart)
	if err != nil {
		return nil, fmt.Errorf("invalid feed start date: %w", err)
	}
	if opts.MaxBackwardSteps <= 0 {
		opts.MaxBackwardSteps = defaultMaxBackwardSteps
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cols, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("while loading collections: %w", err)
	}

	return &Engine{
		source:           source,
		repo:             repo,
		cols:             cols,
		feedStart:        feedStart,
		maxBackwardSteps: opts.MaxBackwardSteps,
		now:              opts.Now,
		rng:              opts.Rand,
	}, nil
}

// Fetch resolves a candidate image for date (empty = the feed's
// "today"). Banned dates push the candidate backward one day at a
// time, bounded by MaxBackwardSteps. On success the record becomes
// the current image and joins the seen history unless already there.
func (e *Engine) Fetch(ctx context.Context, date string) error {
	e.mu.Lock()
	e.loading = true
	e.lastErr = ""
	e.mu.Unlock()

	candidate := date
	for step := 0; step <= e.maxBackwardSteps; step++ {
		record, err := e.source.Fetch(ctx, candidate)
		if err != nil {
			e.fail(msgTransportFailure)
			return fmt.Errorf("fetching candidate: %w", err)
		}

		e.mu.Lock()
		excluded := isExcluded(record, e.cols.Banned)
		e.mu.Unlock()
		if excluded {
			// Walk back one day. An absent date anchors at yesterday
			// relative to now, matching the feed's "today" default.
			if candidate == "" {
				candidate = e.now().Format(domain.DateLayout)
			}
			candidate, err = domain.PreviousDay(candidate)
			if err != nil {
				e.fail(msgInvalidUpstream)
				return fmt.Errorf("stepping past banned date: %w", err)
			}
			continue
		}

		if record.Date == "" {
			log.Printf("engine: upstream record has no date: %+v", record)
			e.fail(msgInvalidUpstream)
			return domain.ErrInvalidRecord
		}

		e.accept(ctx, record)
		return nil
	}

	e.fail(msgExhausted)
	return domain.ErrCandidatesExhausted
}

// Discover fetches a uniformly random date between the feed start and
// now, clearing the current image first.
func (e *Engine) Discover(ctx context.Context) error {
	e.mu.Lock()
	e.current = nil
	date := e.randomDateLocked()
	e.mu.Unlock()
	return e.Fetch(ctx, date)
}

// BanCurrent moves the current image onto the ban list (idempotent by
// banned id) and always advances to a fresh random candidate.
func (e *Engine) BanCurrent(ctx context.Context) error {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return domain.ErrNoCurrentImage
	}
	entry := domain.BannedEntry{
		ImageRecord: e.current.ImageRecord,
		ID:          domain.BannedID(e.current.Date),
	}
	changed := e.cols.AddBanned(entry)
	banned := e.bannedCopyLocked()
	e.mu.Unlock()

	if changed {
		e.persist("banned", func() error { return e.repo.SaveBanned(ctx, banned) })
	}
	return e.Discover(ctx)
}

// Unban removes a banned entry by id.
func (e *Engine) Unban(ctx context.Context, id string) error {
	e.mu.Lock()
	changed := e.cols.RemoveBanned(id)
	banned := e.bannedCopyLocked()
	e.mu.Unlock()

	if changed {
		e.persist("banned", func() error { return e.repo.SaveBanned(ctx, banned) })
	}
	return nil
}

// View displays a record the user picked from a list. With a full
// cached record it sets the current image directly, adding it to the
// seen history unless already there or carrying a banned id. From the
// dashboard only the date is trusted: the current image is cleared
// and a fresh record is fetched. A record without a date is logged
// and ignored.
func (e *Engine) View(ctx context.Context, record domain.ImageRecord, id string, fromDashboard bool) error {
	if record.Date == "" {
		log.Printf("engine: ignoring view request without a date (id=%q)", id)
		return nil
	}

	if fromDashboard {
		e.mu.Lock()
		e.current = nil
		e.mu.Unlock()
		return e.Fetch(ctx, record.Date)
	}

	if id == "" {
		id = domain.SeenID(record.Date)
	}

	e.mu.Lock()
	e.current = &domain.CurrentImage{ImageRecord: record, ID: id}
	changed := false
	if !strings.HasPrefix(id, "banned_") {
		changed = e.cols.AddSeen(domain.SeenEntry{ImageRecord: record, ID: id})
	}
	seen := e.seenCopyLocked()
	e.mu.Unlock()

	if changed {
		e.persist("seen", func() error { return e.repo.SaveSeen(ctx, seen) })
	}
	return nil
}

// Rate adds the current image to favorites at the given rating, or
// replaces the existing favorite in place. The timestamp is restamped
// even on update. A nil current image is a no-op.
func (e *Engine) Rate(ctx context.Context, rating int) error {
	if rating < 3 || rating > 5 {
		return domain.ErrInvalidRating
	}

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return nil
	}
	entry := domain.FavoriteEntry{
		ImageRecord:        e.current.ImageRecord,
		ID:                 e.current.ID,
		Rating:             rating,
		AddedToFavoritesAt: e.now(),
	}
	e.cols.UpsertFavorite(entry)
	favorites := e.favoritesCopyLocked()
	e.mu.Unlock()

	e.persist("favorites", func() error { return e.repo.SaveFavorites(ctx, favorites) })
	return nil
}

// ClearAll empties all three collections, the current image and any
// error, in memory and in durable storage. Confirmation is the
// caller's responsibility.
func (e *Engine) ClearAll(ctx context.Context) error {
	e.mu.Lock()
	e.cols.Clear()
	e.current = nil
	e.loading = false
	e.lastErr = ""
	e.mu.Unlock()

	if err := e.repo.Clear(ctx); err != nil {
		return fmt.Errorf("while clearing durable storage: %w", err)
	}
	return nil
}

// Snapshot returns a read-only copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Loading:   e.loading,
		Error:     e.lastErr,
		Seen:      e.seenCopyLocked(),
		Banned:    e.bannedCopyLocked(),
		Favorites: e.favoritesCopyLocked(),
	}
	if e.current != nil {
		cur := *e.current
		snap.Current = &cur
	}
	return snap
}

// CurrentRating returns the stored rating for the current image
// (matched by id or date), or 0 when it has no favorite entry.
func (e *Engine) CurrentRating() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return 0
	}
	if fav, _ := e.cols.FindFavorite(e.current.ID, e.current.Date); fav != nil {
		return fav.Rating
	}
	return 0
}

// accept installs a resolved record as the current image and records
// it in the seen history.
func (e *Engine) accept(ctx context.Context, record *domain.ImageRecord) {
	id := domain.SeenID(record.Date)

	e.mu.Lock()
	e.current = &domain.CurrentImage{ImageRecord: *record, ID: id}
	changed := e.cols.AddSeen(domain.SeenEntry{ImageRecord: *record, ID: id})
	seen := e.seenCopyLocked()
	e.loading = false
	e.mu.Unlock()

	if changed {
		e.persist("seen", func() error { return e.repo.SaveSeen(ctx, seen) })
	}
}

func (e *Engine) fail(message string) {
	e.mu.Lock()
	e.lastErr = message
	e.loading = false
	e.mu.Unlock()
}

// persist runs a write-through save. Failures are logged, not rolled
// back: the in-memory state stays authoritative and the next
// successful write wins.
func (e *Engine) persist(slot string, save func() error) {
	if err := save(); err != nil {
		log.Printf("engine: persisting %s failed: %v", slot, err)
	}
}

func (e *Engine) randomDateLocked() string {
	start := e.feedStart.Unix()
	end := e.now().Unix()
	if end <= start {
		return e.feedStart.Format(domain.DateLayout)
	}
	sec := start + e.rng.Int63n(end-start)
	return time.Unix(sec, 0).UTC().Format(domain.DateLayout)
}

func (e *Engine) seenCopyLocked() []domain.SeenEntry {
	out := make([]domain.SeenEntry, len(e.cols.Seen))
	copy(out, e.cols.Seen)
	return out
}

func (e *Engine) bannedCopyLocked() []domain.BannedEntry {
	out := make([]domain.BannedEntry, len(e.cols.Banned))
	copy(out, e.cols.Banned)
	return out
}

func (e *Engine) favoritesCopyLocked() []domain.FavoriteEntry {
	out := make([]domain.FavoriteEntry, len(e.cols.Favorites))
	copy(out, e.cols.Favorites)
	return out
}
