// Package export writes favorites reports onto a filesystem
// abstraction, so the CLI can target a real directory and tests an
// in-memory one.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"
	"github.com/russross/blackfriday/v2"

	"github.com/lewtec/stargaze/internal/analytics"
	"github.com/lewtec/stargaze/internal/domain"
)

// Exporter renders a favorites snapshot as a markdown report plus an
// HTML rendering of the same document.
type Exporter struct {
	FS billy.Filesystem
}

// NewExporter creates an Exporter writing through fs.
func NewExporter(fs billy.Filesystem) *Exporter {
	return &Exporter{FS: fs}
}

// WriteFavoritesReport writes favorites.md and favorites.html into
// the root of the exporter's filesystem.
func (e *Exporter) WriteFavoritesReport(favorites []domain.FavoriteEntry, generatedAt time.Time) error {
	markdown := renderMarkdown(favorites, generatedAt)
	if err := util.WriteFile(e.FS, "favorites.md", []byte(markdown), 0644); err != nil {
		return fmt.Errorf("while writing favorites.md: %w", err)
	}

	html := blackfriday.Run([]byte(markdown))
	if err := util.WriteFile(e.FS, "favorites.html", html, 0644); err != nil {
		return fmt.Errorf("while writing favorites.html: %w", err)
	}
	return nil
}

func renderMarkdown(favorites []domain.FavoriteEntry, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Favorite astronomy pictures\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", generatedAt.Format("2006-01-02 15:04 MST"))

	summary := analytics.Summarize(favorites)
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- Total favorites: %d\n", summary.Total)
	fmt.Fprintf(&b, "- Average rating: %.2f\n", summary.MeanRating)
	fmt.Fprintf(&b, "- Images / videos: %d / %d\n", summary.Images, summary.Videos)
	fmt.Fprintf(&b, "- Known authors: %d\n\n", summary.UniqueAuthors)

	fmt.Fprintf(&b, "## Entries\n\n")
	if len(favorites) == 0 {
		fmt.Fprintf(&b, "No favorites saved yet.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "| Date | Title | Author | Type | Rating |\n")
	fmt.Fprintf(&b, "|------|-------|--------|------|--------|\n")
	for _, fav := range favorites {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
			fav.Date, fav.Title, analytics.DisplayAuthor(fav.Copyright), fav.MediaType, fav.Rating)
	}
	return b.String()
}
