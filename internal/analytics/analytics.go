// Package analytics derives aggregate views over a favorites
// snapshot. Everything here is a pure function: nothing is cached or
// stored, callers recompute from the canonical list on demand.
package analytics

import (
	"sort"

	"github.com/lewtec/stargaze/internal/domain"
)

// RatingHistogram counts favorites per rating value. The keys 3, 4
// and 5 are always present; anything outside that range in stored
// data is ignored, not clamped.
func RatingHistogram(favorites []domain.FavoriteEntry) map[int]int {
	counts := map[int]int{3: 0, 4: 0, 5: 0}
	for _, fav := range favorites {
		if fav.Rating >= 3 && fav.Rating <= 5 {
			counts[fav.Rating]++
		}
	}
	return counts
}

// MediaSplit is the image/video breakdown of a favorites snapshot.
type MediaSplit struct {
	Images int `json:"images"`
	Videos int `json:"videos"`
}

// MediaTypeSplit counts favorites per media type. Unrecognized media
// types fall into neither bucket.
func MediaTypeSplit(favorites []domain.FavoriteEntry) MediaSplit {
	var split MediaSplit
	for _, fav := range favorites {
		switch fav.MediaType {
		case "image":
			split.Images++
		case "video":
			split.Videos++
		}
	}
	return split
}

// AuthorStats ranks one author bucket.
type AuthorStats struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	MeanRating float64 `json:"avgRating"`
}

// DisplayAuthor shortens an author name for display: more than ten
// characters become the first ten plus an "Et al." marker. An empty
// copyright is the "Unknown" bucket.
func DisplayAuthor(copyright string) string {
	if copyright == "" {
		copyright = "Unknown"
	}
	runes := []rune(copyright)
	if len(runes) > 10 {
		return string(runes[:10]) + " , Et al."
	}
	return copyright
}

// TopAuthors groups favorites by display author and returns the five
// biggest buckets by count, with the mean rating per bucket. The
// truncation happens before grouping, so two long names sharing their
// first ten characters collapse into one bucket. That mirrors the
// display rule on purpose; do not "fix" it here.
func TopAuthors(favorites []domain.FavoriteEntry) []AuthorStats {
	counts := make(map[string]int)
	ratingSums := make(map[string]int)
	var order []string

	for _, fav := range favorites {
		name := DisplayAuthor(fav.Copyright)
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
		ratingSums[name] += fav.Rating
	}

	stats := make([]AuthorStats, 0, len(order))
	for _, name := range order {
		stats = append(stats, AuthorStats{
			Name:       name,
			Count:      counts[name],
			MeanRating: float64(ratingSums[name]) / float64(counts[name]),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })

	if len(stats) > 5 {
		stats = stats[:5]
	}
	return stats
}

// YearStats aggregates one calendar year of favorites.
type YearStats struct {
	Year       int     `json:"year"`
	Count      int     `json:"count"`
	MeanRating float64 `json:"avgRating"`
}

// YearlyTimeline groups favorites by the year of their date and
// returns the years in ascending order with count and mean rating.
func YearlyTimeline(favorites []domain.FavoriteEntry) []YearStats {
	counts := make(map[int]int)
	ratingSums := make(map[int]int)

	for _, fav := range favorites {
		year := domain.Year(fav.Date)
		counts[year]++
		ratingSums[year] += fav.Rating
	}

	years := make([]int, 0, len(counts))
	for year := range counts {
		years = append(years, year)
	}
	sort.Ints(years)

	timeline := make([]YearStats, 0, len(years))
	for _, year := range years {
		timeline = append(timeline, YearStats{
			Year:       year,
			Count:      counts[year],
			MeanRating: float64(ratingSums[year]) / float64(counts[year]),
		})
	}
	return timeline
}

// Summary is the headline stat block for the favorites dashboard.
type Summary struct {
	Total         int     `json:"total"`
	MeanRating    float64 `json:"avgRating"`
	Images        int     `json:"images"`
	Videos        int     `json:"videos"`
	UniqueAuthors int     `json:"uniqueAuthors"`
}

// Summarize computes the dashboard stat block. Unique authors are
// counted on the raw copyright string, before display truncation.
func Summarize(favorites []domain.FavoriteEntry) Summary {
	summary := Summary{Total: len(favorites)}

	split := MediaTypeSplit(favorites)
	summary.Images = split.Images
	summary.Videos = split.Videos

	authors := make(map[string]struct{})
	ratingSum := 0
	for _, fav := range favorites {
		ratingSum += fav.Rating
		if fav.Copyright != "" {
			authors[fav.Copyright] = struct{}{}
		}
	}
	summary.UniqueAuthors = len(authors)
	if summary.Total > 0 {
		summary.MeanRating = float64(ratingSum) / float64(summary.Total)
	}
	return summary
}
