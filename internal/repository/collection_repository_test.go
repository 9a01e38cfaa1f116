package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lewtec/stargaze/internal/domain"
)

func seenEntry(date string) domain.SeenEntry {
	return domain.SeenEntry{
		ImageRecord: domain.ImageRecord{
			Date:      date,
			Title:     "Picture of " + date,
			URL:       "https://example.com/" + date + ".jpg",
			MediaType: "image",
		},
		ID: domain.SeenID(date),
	}
}

func TestCollectionRepository_LoadEmpty(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewCollectionRepository(db)
	cols, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cols.Seen) != 0 || len(cols.Banned) != 0 || len(cols.Favorites) != 0 {
		t.Errorf("fresh database should load empty collections, got %+v", cols)
	}
}

func TestCollectionRepository_Roundtrip(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewCollectionRepository(db)
	ctx := context.Background()

	seen := []domain.SeenEntry{seenEntry("2024-01-02"), seenEntry("2024-01-01")}
	banned := []domain.BannedEntry{{
		ImageRecord: domain.ImageRecord{Date: "2023-12-25", Title: "Nope", MediaType: "video"},
		ID:          domain.BannedID("2023-12-25"),
	}}
	favorites := []domain.FavoriteEntry{{
		ImageRecord:        domain.ImageRecord{Date: "2023-05-01", Title: "Keeper", MediaType: "image", Copyright: "Jane Doe"},
		ID:                 domain.SeenID("2023-05-01"),
		Rating:             5,
		AddedToFavoritesAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}}

	if err := repo.SaveSeen(ctx, seen); err != nil {
		t.Fatalf("SaveSeen() error = %v", err)
	}
	if err := repo.SaveBanned(ctx, banned); err != nil {
		t.Fatalf("SaveBanned() error = %v", err)
	}
	if err := repo.SaveFavorites(ctx, favorites); err != nil {
		t.Fatalf("SaveFavorites() error = %v", err)
	}

	cols, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	t.Run("preserves order", func(t *testing.T) {
		if len(cols.Seen) != 2 || cols.Seen[0].Date != "2024-01-02" || cols.Seen[1].Date != "2024-01-01" {
			t.Errorf("seen order not preserved: %+v", cols.Seen)
		}
	})

	t.Run("preserves entry fields", func(t *testing.T) {
		if len(cols.Favorites) != 1 {
			t.Fatalf("len(Favorites) = %d, want 1", len(cols.Favorites))
		}
		fav := cols.Favorites[0]
		if fav.Rating != 5 || fav.Copyright != "Jane Doe" || fav.ID != "image_2023-05-01" {
			t.Errorf("favorite fields lost in roundtrip: %+v", fav)
		}
		if !fav.AddedToFavoritesAt.Equal(favorites[0].AddedToFavoritesAt) {
			t.Errorf("timestamp lost: %v", fav.AddedToFavoritesAt)
		}
	})

	t.Run("banned slot independent of seen", func(t *testing.T) {
		if len(cols.Banned) != 1 || cols.Banned[0].ID != "banned_2023-12-25" {
			t.Errorf("unexpected banned slot: %+v", cols.Banned)
		}
	})
}

func TestCollectionRepository_SaveOverwritesWholesale(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewCollectionRepository(db)
	ctx := context.Background()

	if err := repo.SaveSeen(ctx, []domain.SeenEntry{seenEntry("2024-01-01"), seenEntry("2024-01-02")}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveSeen(ctx, []domain.SeenEntry{seenEntry("2024-01-03")}); err != nil {
		t.Fatal(err)
	}

	cols, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols.Seen) != 1 || cols.Seen[0].Date != "2024-01-03" {
		t.Errorf("slot should hold only the last written list, got %+v", cols.Seen)
	}
}

func TestCollectionRepository_Clear(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewCollectionRepository(db)
	ctx := context.Background()

	repo.SaveSeen(ctx, []domain.SeenEntry{seenEntry("2024-01-01")})
	repo.SaveBanned(ctx, []domain.BannedEntry{{ImageRecord: domain.ImageRecord{Date: "2024-01-02"}, ID: domain.BannedID("2024-01-02")}})
	repo.SaveFavorites(ctx, []domain.FavoriteEntry{{ImageRecord: domain.ImageRecord{Date: "2024-01-03"}, ID: domain.SeenID("2024-01-03"), Rating: 4}})

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	cols, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols.Seen) != 0 || len(cols.Banned) != 0 || len(cols.Favorites) != 0 {
		t.Errorf("collections should be empty after Clear, got %+v", cols)
	}
}
