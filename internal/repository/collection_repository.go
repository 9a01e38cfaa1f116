package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/lewtec/stargaze/internal/domain"
)

// Slot names for the three persisted collections.
const (
	SlotSeen      = "seen_images"
	SlotBanned    = "banned_images"
	SlotFavorites = "favorite_images"
)

// CollectionRepository implements domain.CollectionRepository on a
// sqlite database. Each collection lives in one row of the
// collections table as a JSON-serialized ordered list, overwritten
// wholesale on every save.
type CollectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a new CollectionRepository.
func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Open opens (or creates) the sqlite database at path.
func Open(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// Load reads all three collections. Missing slots default to empty.
func (r *CollectionRepository) Load(ctx context.Context) (*domain.Collections, error) {
	var cols domain.Collections
	if err := r.loadSlot(ctx, SlotSeen, &cols.Seen); err != nil {
		return nil, err
	}
	if err := r.loadSlot(ctx, SlotBanned, &cols.Banned); err != nil {
		return nil, err
	}
	if err := r.loadSlot(ctx, SlotFavorites, &cols.Favorites); err != nil {
		return nil, err
	}
	return &cols, nil
}

// SaveSeen overwrites the seen slot.
func (r *CollectionRepository) SaveSeen(ctx context.Context, entries []domain.SeenEntry) error {
	return r.saveSlot(ctx, SlotSeen, entries)
}

// SaveBanned overwrites the banned slot.
func (r *CollectionRepository) SaveBanned(ctx context.Context, entries []domain.BannedEntry) error {
	return r.saveSlot(ctx, SlotBanned, entries)
}

// SaveFavorites overwrites the favorites slot.
func (r *CollectionRepository) SaveFavorites(ctx context.Context, entries []domain.FavoriteEntry) error {
	return r.saveSlot(ctx, SlotFavorites, entries)
}

// Clear deletes all three slots in a single transaction.
func (r *CollectionRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("while starting clear transaction: %w", err)
	}
	defer tx.Rollback()
	for _, slot := range []string{SlotSeen, SlotBanned, SlotFavorites} {
		if _, err := tx.ExecContext(ctx, `delete from collections where slot = ?`, slot); err != nil {
			return fmt.Errorf("while clearing slot %s: %w", slot, err)
		}
	}
	return tx.Commit()
}

func (r *CollectionRepository) loadSlot(ctx context.Context, slot string, dst interface{}) error {
	var raw string
	err := r.db.QueryRowContext(ctx, `select entries from collections where slot = ?`, slot).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("while reading slot %s: %w", slot, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("while decoding slot %s: %w", slot, err)
	}
	return nil
}

func (r *CollectionRepository) saveSlot(ctx context.Context, slot string, entries interface{}) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("while encoding slot %s: %w", slot, err)
	}
	_, err = r.db.ExecContext(ctx, `
insert into collections (slot, entries, updated_at) values (?, ?, ?)
on conflict(slot) do update set entries = excluded.entries, updated_at = excluded.updated_at
	`, slot, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("while writing slot %s: %w", slot, err)
	}
	return nil
}

// Verify that CollectionRepository implements domain.CollectionRepository
var _ domain.CollectionRepository = (*CollectionRepository)(nil)
