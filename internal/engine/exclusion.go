package engine

import "github.com/lewtec/stargaze/internal/domain"

// isExcluded reports whether record must be discarded because a
// banned entry carries the same underlying date. The banned id itself
// is irrelevant here: exclusion is by date, ids only namespace the
// collections.
func isExcluded(record *domain.ImageRecord, banned []domain.BannedEntry) bool {
	if record == nil || record.Date == "" {
		return false
	}
	for _, entry := range banned {
		if entry.Date == record.Date {
			return true
		}
	}
	return false
}
