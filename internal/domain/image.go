package domain

import (
	"context"
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format used by the APOD feed.
const DateLayout = "2006-01-02"

// ImageRecord is one astronomy picture of the day as returned by the
// remote feed. Records are immutable once fetched; the date is the
// natural key.
type ImageRecord struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright,omitempty"`
}

// CurrentImage is the transient image presently displayed. It is owned
// by the discovery engine and never persisted on its own.
type CurrentImage struct {
	ImageRecord
	ID string `json:"id"`
}

// SeenID derives the history identity for a date.
func SeenID(date string) string {
	return "image_" + date
}

// BannedID derives the exclusion identity for a date. It is a separate
// namespace from SeenID: the same date can be seen and banned at once.
func BannedID(date string) string {
	return "banned_" + date
}

// PreviousDay returns the ISO date one calendar day before date.
func PreviousDay(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.AddDate(0, 0, -1).Format(DateLayout), nil
}

// Year extracts the calendar year from an ISO date, or 0 if the date
// does not parse.
func Year(date string) int {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// ImageSource is the remote request/response provider for image
// records. An empty date asks for the source's default ("today").
type ImageSource interface {
	Fetch(ctx context.Context, date string) (*ImageRecord, error)
}
