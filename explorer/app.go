package explorer

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/lewtec/stargaze/internal/analytics"
	"github.com/lewtec/stargaze/internal/domain"
	"github.com/lewtec/stargaze/internal/engine"
)

// ExplorerApp is the display collaborator adapter: it projects
// engine snapshots into pages and JSON, and translates user intents
// back into engine calls.
type ExplorerApp struct {
	Engine *engine.Engine
	Config *Config
}

// aggregates bundles every analytics derivation for one snapshot.
type aggregates struct {
	Summary    analytics.Summary       `json:"summary"`
	Histogram  map[int]int             `json:"ratingHistogram"`
	MediaSplit analytics.MediaSplit    `json:"mediaSplit"`
	TopAuthors []analytics.AuthorStats `json:"topAuthors"`
	Timeline   []analytics.YearStats   `json:"timeline"`
}

func computeAggregates(favorites []domain.FavoriteEntry) aggregates {
	return aggregates{
		Summary:    analytics.Summarize(favorites),
		Histogram:  analytics.RatingHistogram(favorites),
		MediaSplit: analytics.MediaTypeSplit(favorites),
		TopAuthors: analytics.TopAuthors(favorites),
		Timeline:   analytics.YearlyTimeline(favorites),
	}
}

// GetHTTPHandler builds the full route table.
func (a *ExplorerApp) GetHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", a.handleExplorerPage)
	mux.HandleFunc("GET /dashboard", a.handleDashboardPage)
	mux.HandleFunc("GET /analytics", a.handleAnalyticsPage)
	mux.HandleFunc("GET /help", a.handleHelpPage)

	// Form intents, redirecting back to the explorer
	mux.HandleFunc("POST /discover", a.redirecting(a.intentDiscover))
	mux.HandleFunc("POST /ban", a.redirecting(a.intentBan))
	mux.HandleFunc("POST /unban", a.redirecting(a.intentUnban))
	mux.HandleFunc("POST /view", a.redirecting(a.intentView))
	mux.HandleFunc("POST /rate", a.redirecting(a.intentRate))
	mux.HandleFunc("POST /clear", a.redirecting(a.intentClear))

	// JSON API: intents respond with the fresh snapshot; fetch
	// failures ride along as the snapshot's error status.
	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.Engine.Snapshot())
	})
	mux.HandleFunc("GET /api/analytics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, computeAggregates(a.Engine.Snapshot().Favorites))
	})
	mux.HandleFunc("POST /api/discover", a.snapshotting(a.intentDiscover))
	mux.HandleFunc("POST /api/ban", a.snapshotting(a.intentBan))
	mux.HandleFunc("POST /api/unban", a.snapshotting(a.intentUnban))
	mux.HandleFunc("POST /api/view", a.snapshotting(a.intentView))
	mux.HandleFunc("POST /api/rate", a.snapshotting(a.intentRate))
	mux.HandleFunc("POST /api/clear", a.snapshotting(a.intentClear))

	return HTTPLogger(mux)
}

// intentError distinguishes a bad request from an upstream outcome
// already reflected in the snapshot.
type intentError struct {
	message string
}

func (e *intentError) Error() string { return e.message }

func badIntent(message string) error { return &intentError{message: message} }

// intent handlers: parse the request, drive the engine. Fetch-cycle
// failures are not returned; they surface in the snapshot's status
// field instead.

func (a *ExplorerApp) intentDiscover(r *http.Request) error {
	if err := a.Engine.Discover(r.Context()); err != nil {
		log.Printf("explorer: discover failed: %v", err)
	}
	return nil
}

func (a *ExplorerApp) intentBan(r *http.Request) error {
	err := a.Engine.BanCurrent(r.Context())
	if err == domain.ErrNoCurrentImage {
		return badIntent("nothing is currently displayed")
	}
	if err != nil {
		log.Printf("explorer: ban failed: %v", err)
	}
	return nil
}

func (a *ExplorerApp) intentUnban(r *http.Request) error {
	id := a.field(r, "id")
	if id == "" {
		return badIntent("id is required")
	}
	return a.Engine.Unban(r.Context(), id)
}

func (a *ExplorerApp) intentView(r *http.Request) error {
	record := domain.ImageRecord{
		Date:        a.field(r, "date"),
		Title:       a.field(r, "title"),
		Explanation: a.field(r, "explanation"),
		URL:         a.field(r, "url"),
		MediaType:   a.field(r, "media_type"),
		Copyright:   a.field(r, "copyright"),
	}
	fromDashboard := a.field(r, "from_dashboard") == "true"
	if err := a.Engine.View(r.Context(), record, a.field(r, "id"), fromDashboard); err != nil {
		log.Printf("explorer: view failed: %v", err)
	}
	return nil
}

func (a *ExplorerApp) intentRate(r *http.Request) error {
	rating, err := strconv.Atoi(a.field(r, "rating"))
	if err != nil {
		return badIntent("rating must be a number")
	}
	if err := a.Engine.Rate(r.Context(), rating); err == domain.ErrInvalidRating {
		return badIntent("rating must be 3, 4 or 5")
	} else if err != nil {
		return err
	}
	return nil
}

func (a *ExplorerApp) intentClear(r *http.Request) error {
	// The confirmation gate lives here, in the display adapter; the
	// store and engine clear unconditionally.
	if a.field(r, "confirm") != "true" {
		return badIntent("clearing requires confirm=true")
	}
	return a.Engine.ClearAll(r.Context())
}

// redirecting wraps an intent for the form endpoints.
func (a *ExplorerApp) redirecting(intent func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := intent(r); err != nil {
			status := http.StatusInternalServerError
			if _, ok := err.(*intentError); ok {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		target := r.FormValue("back")
		if target == "" || !strings.HasPrefix(target, "/") {
			target = "/"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// snapshotting wraps an intent for the JSON endpoints.
func (a *ExplorerApp) snapshotting(intent func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := intent(r); err != nil {
			status := http.StatusInternalServerError
			if _, ok := err.(*intentError); ok {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, a.Engine.Snapshot())
	}
}

// field reads a request parameter from a JSON body or a form field,
// whichever the caller sent.
func (a *ExplorerApp) field(r *http.Request, name string) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if r.Form == nil {
			body := make(map[string]any)
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				r.Form = make(map[string][]string)
				for key, value := range body {
					switch v := value.(type) {
					case string:
						r.Form.Set(key, v)
					case bool:
						r.Form.Set(key, strconv.FormatBool(v))
					case float64:
						r.Form.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
					}
				}
			} else {
				r.Form = make(map[string][]string)
			}
		}
		return r.Form.Get(name)
	}
	return r.FormValue(name)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("explorer: encoding response: %v", err)
	}
}

// page handlers

func (a *ExplorerApp) handleExplorerPage(w http.ResponseWriter, r *http.Request) {
	snap := a.Engine.Snapshot()
	err := RenderPage(w, "explorer.html", map[string]any{
		"Title":         "NASA Astronomy Picture of the Day",
		"Snapshot":      snap,
		"CurrentRating": a.Engine.CurrentRating(),
	})
	if err != nil {
		log.Printf("explorer: rendering explorer page: %v", err)
	}
}

func (a *ExplorerApp) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	snap := a.Engine.Snapshot()

	filter := analytics.Filter{
		Query:     r.URL.Query().Get("q"),
		Author:    r.URL.Query().Get("author"),
		MediaType: r.URL.Query().Get("media"),
	}
	if rating, err := strconv.Atoi(r.URL.Query().Get("rating")); err == nil {
		filter.MinRating = rating
	}

	err := RenderPage(w, "dashboard.html", map[string]any{
		"Title":     "Your Favorite Astronomy Pictures",
		"Favorites": filter.Apply(snap.Favorites),
		"Summary":   analytics.Summarize(snap.Favorites),
		"Authors":   analytics.UniqueAuthors(snap.Favorites),
		"Filter":    filter,
	})
	if err != nil {
		log.Printf("explorer: rendering dashboard page: %v", err)
	}
}

func (a *ExplorerApp) handleAnalyticsPage(w http.ResponseWriter, r *http.Request) {
	snap := a.Engine.Snapshot()
	agg := computeAggregates(snap.Favorites)
	err := RenderPage(w, "analytics.html", map[string]any{
		"Title":      "Astronomy Collection Analytics",
		"Aggregates": agg,
		"HasData":    agg.Summary.Total > 0,
	})
	if err != nil {
		log.Printf("explorer: rendering analytics page: %v", err)
	}
}

const helpMarkdown = `# Stargaze help

Stargaze browses NASA's Astronomy Picture of the Day feed.

## Explorer

- **Discover** fetches a random picture from the feed's full history.
- **Don't show again** bans the current picture's date permanently and
  moves on. Banned dates never come back, even by random discovery:
  the engine walks backward day by day until it finds something you
  haven't banned.
- Rating a picture (3 to 5 hearts) saves it to the favorites
  dashboard. Rating it again just updates the hearts.

## Dashboard and analytics

The dashboard lists favorites with search and filters. Analytics
derives rating, media, author and per-year breakdowns from the same
collection. Both recompute on every visit, nothing is cached.

## Clearing

"Clear everything" wipes seen history, bans and favorites, including
what is on disk. There is no undo.
`

func (a *ExplorerApp) handleHelpPage(w http.ResponseWriter, r *http.Request) {
	err := RenderPage(w, "help.html", map[string]any{
		"Title":   "Help",
		"Content": helpMarkdown,
	})
	if err != nil {
		log.Printf("explorer: rendering help page: %v", err)
	}
}
