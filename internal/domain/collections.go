package domain

import (
	"context"
	"time"
)

// SeenEntry is an image the user has viewed, keyed by its SeenID.
type SeenEntry struct {
	ImageRecord
	ID string `json:"id"`
}

// BannedEntry is an image the user never wants surfaced again, keyed
// by its BannedID.
type BannedEntry struct {
	ImageRecord
	ID string `json:"id"`
}

// FavoriteEntry is a rated image in the curation collection. The ID
// reuses the image_-prefixed history id when one is available.
type FavoriteEntry struct {
	ImageRecord
	ID                 string    `json:"id"`
	Rating             int       `json:"rating"`
	AddedToFavoritesAt time.Time `json:"addedToFavoritesAt"`
}

// Collections holds the three ordered collections. All slices are
// most-recent-first. Collections is pure in-memory state: it never
// touches storage, the engine persists through a CollectionRepository
// after each mutation.
type Collections struct {
	Seen      []SeenEntry
	Banned    []BannedEntry
	Favorites []FavoriteEntry
}

// AddSeen prepends entry unless an entry with the same id already
// exists. Returns whether the collection changed.
func (c *Collections) AddSeen(entry SeenEntry) bool {
	for _, e := range c.Seen {
		if e.ID == entry.ID {
			return false
		}
	}
	c.Seen = append([]SeenEntry{entry}, c.Seen...)
	return true
}

// AddBanned prepends entry unless an entry with the same id already
// exists. Returns whether the collection changed.
func (c *Collections) AddBanned(entry BannedEntry) bool {
	for _, e := range c.Banned {
		if e.ID == entry.ID {
			return false
		}
	}
	c.Banned = append([]BannedEntry{entry}, c.Banned...)
	return true
}

// RemoveBanned deletes the banned entry with the given id. Returns
// whether an entry was removed.
func (c *Collections) RemoveBanned(id string) bool {
	for i, e := range c.Banned {
		if e.ID == id {
			c.Banned = append(c.Banned[:i], c.Banned[i+1:]...)
			return true
		}
	}
	return false
}

// FindFavorite locates a favorite matching the given id or date.
// Either match is sufficient: the two id namespaces can drift for the
// same underlying image, so date equality is the fallback identity.
func (c *Collections) FindFavorite(id, date string) (*FavoriteEntry, int) {
	for i := range c.Favorites {
		if c.Favorites[i].ID == id || c.Favorites[i].Date == date {
			return &c.Favorites[i], i
		}
	}
	return nil, -1
}

// UpsertFavorite replaces an existing favorite for the same logical
// image in place (same position), or prepends a new one. Returns
// whether an existing entry was replaced.
func (c *Collections) UpsertFavorite(entry FavoriteEntry) bool {
	if _, i := c.FindFavorite(entry.ID, entry.Date); i >= 0 {
		c.Favorites[i] = entry
		return true
	}
	c.Favorites = append([]FavoriteEntry{entry}, c.Favorites...)
	return false
}

// IsBannedDate reports whether any banned entry carries this date.
func (c *Collections) IsBannedDate(date string) bool {
	for _, e := range c.Banned {
		if e.Date == date {
			return true
		}
	}
	return false
}

// Clear empties all three collections.
func (c *Collections) Clear() {
	c.Seen = nil
	c.Banned = nil
	c.Favorites = nil
}

// CollectionRepository is the durable-storage contract: three named
// slots, each read at startup and overwritten wholesale on every
// mutation.
type CollectionRepository interface {
	// Load reads all three collections, defaulting missing slots to
	// empty.
	Load(ctx context.Context) (*Collections, error)

	// SaveSeen overwrites the seen slot with the given ordered list.
	SaveSeen(ctx context.Context, entries []SeenEntry) error

	// SaveBanned overwrites the banned slot.
	SaveBanned(ctx context.Context, entries []BannedEntry) error

	// SaveFavorites overwrites the favorites slot.
	SaveFavorites(ctx context.Context, entries []FavoriteEntry) error

	// Clear empties all three slots in one logical operation.
	Clear(ctx context.Context) error
}
