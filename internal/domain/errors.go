package domain

import "errors"

var (
	// ErrInvalidRecord marks a well-formed feed response that lacks a
	// usable date. Distinct from transport failures.
	ErrInvalidRecord = errors.New("upstream record has no date")

	// ErrCandidatesExhausted means the backward walk through the feed
	// ran out of steps without finding an unbanned date.
	ErrCandidatesExhausted = errors.New("no unbanned candidate within step limit")

	// ErrNoCurrentImage is returned by operations that require a
	// currently displayed image.
	ErrNoCurrentImage = errors.New("no current image")

	// ErrInvalidRating is returned for ratings outside {3,4,5}.
	ErrInvalidRating = errors.New("rating must be 3, 4 or 5")
)
