package analytics

import (
	"strings"

	"github.com/lewtec/stargaze/internal/domain"
)

// Filter narrows a favorites snapshot for the dashboard. Zero values
// mean "no constraint" for their field.
type Filter struct {
	// Query matches case-insensitively against the author or as a
	// substring of the date.
	Query string

	// Author matches the copyright exactly; the special value
	// "unknown" selects favorites without one.
	Author string

	// MinRating keeps favorites rated at least this value.
	MinRating int

	// MediaType keeps only "image" or "video" favorites.
	MediaType string
}

// Apply returns the favorites matching every set constraint, in their
// original order.
func (f Filter) Apply(favorites []domain.FavoriteEntry) []domain.FavoriteEntry {
	out := make([]domain.FavoriteEntry, 0, len(favorites))
	for _, fav := range favorites {
		if f.matches(fav) {
			out = append(out, fav)
		}
	}
	return out
}

func (f Filter) matches(fav domain.FavoriteEntry) bool {
	if f.Query != "" {
		query := strings.ToLower(f.Query)
		byAuthor := fav.Copyright != "" && strings.Contains(strings.ToLower(fav.Copyright), query)
		byDate := strings.Contains(fav.Date, f.Query)
		if !byAuthor && !byDate {
			return false
		}
	}
	switch {
	case f.Author == "":
	case f.Author == "unknown":
		if strings.TrimSpace(fav.Copyright) != "" {
			return false
		}
	default:
		if fav.Copyright != f.Author {
			return false
		}
	}
	if f.MinRating > 0 && fav.Rating < f.MinRating {
		return false
	}
	if f.MediaType != "" && fav.MediaType != f.MediaType {
		return false
	}
	return true
}

// UniqueAuthors lists the distinct raw copyright strings present in
// the snapshot, in first-seen order, for filter dropdowns.
func UniqueAuthors(favorites []domain.FavoriteEntry) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, fav := range favorites {
		if fav.Copyright == "" {
			continue
		}
		if _, ok := seen[fav.Copyright]; ok {
			continue
		}
		seen[fav.Copyright] = struct{}{}
		out = append(out, fav.Copyright)
	}
	return out
}
