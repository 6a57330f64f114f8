package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

func addItem(t *testing.T, s *Store, wlID, title, status string) *models.MediaItem {
	t.Helper()
	it := &models.MediaItem{WatchlistID: wlID, Title: title, Medium: models.MediumMovie, Status: status}
	require.NoError(t, s.AddItem(context.Background(), it, "owner"))
	return it
}

func TestAddItemAppendsAtEnd(t *testing.T) {
	s := testStore(t)
	seedProfile(t, s, "owner", "olive")
	wl := seedWatchlist(t, s, "owner", "queue")

	a := addItem(t, s, wl.ID, "Alien", models.StatusToConsume)
	b := addItem(t, s, wl.ID, "Blade Runner", models.StatusToConsume)
	c := addItem(t, s, wl.ID, "Coherence", models.StatusToConsume)

	require.Equal(t, 0, a.Position)
	require.Equal(t, 1, b.Position)
	require.Equal(t, 2, c.Position)
	require.Equal(t, "owner", a.AddedBy)
}

func TestAddItemOwnerOnly(t *testing.T) {
	s := testStore(t)
	seedProfile(t, s, "owner", "olive")
	seedProfile(t, s, "intruder", "ivan")
	wl := seedWatchlist(t, s, "owner", "queue")

	it := &models.MediaItem{WatchlistID: wl.ID, Title: "Alien", Medium: models.MediumMovie}
	err := s.AddItem(context.Background(), it, "intruder")
	require.Equal(t, apperr.CodeForbidden, apperr.Code(err))
}

func TestReorderItems(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedProfile(t, s, "owner", "olive")
	wl := seedWatchlist(t, s, "owner", "queue")

	a := addItem(t, s, wl.ID, "Alien", models.StatusToConsume)
	b := addItem(t, s, wl.ID, "Blade Runner", models.StatusToConsume)
	c := addItem(t, s, wl.ID, "Coherence", models.StatusToConsume)

	require.NoError(t, s.ReorderItems(ctx, wl.ID, "owner", []string{c.ID, a.ID, b.ID}))

	got, err := s.GetWatchlist(ctx, wl.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)

	// Items come back position-ordered; each position is its index in
	// the submitted sequence.
	titles := []string{got.Items[0].Title, got.Items[1].Title, got.Items[2].Title}
	require.Equal(t, []string{"Coherence", "Alien", "Blade Runner"}, titles)
	for i, it := range got.Items {
		require.Equal(t, i, it.Position)
	}
}

func TestReorderItemsValidatesSequence(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedProfile(t, s, "owner", "olive")
	wl := seedWatchlist(t, s, "owner", "queue")

	a := addItem(t, s, wl.ID, "Alien", models.StatusToConsume)
	b := addItem(t, s, wl.ID, "Blade Runner", models.StatusToConsume)

	tests := []struct {
		name string
		ids  []string
	}{
		{"missing item", []string{a.ID}},
		{"unknown id", []string{a.ID, "nope"}},
		{"duplicate id", []string{a.ID, a.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ReorderItems(ctx, wl.ID, "owner", tt.ids)
			require.Equal(t, apperr.CodeValidation, apperr.Code(err))
		})
	}

	// Positions untouched by the failed attempts.
	got, err := s.GetWatchlist(ctx, wl.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.Items[0].ID)
	require.Equal(t, b.ID, got.Items[1].ID)
}

func TestCountersTrackStatuses(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedProfile(t, s, "owner", "olive")
	wl := seedWatchlist(t, s, "owner", "queue")

	addItem(t, s, wl.ID, "Alien", models.StatusToConsume)
	addItem(t, s, wl.ID, "Blade Runner", models.StatusToConsume)
	addItem(t, s, wl.ID, "Coherence", models.StatusConsuming)
	addItem(t, s, wl.ID, "Dune", models.StatusConsumed)
	addItem(t, s, wl.ID, "Eraserhead", models.StatusConsumed)
	addItem(t, s, wl.ID, "Fargo", models.StatusConsumed)

	got, err := s.GetWatchlist(ctx, wl.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.ToConsumeCount)
	require.Equal(t, 1, got.ConsumingCount)
	require.Equal(t, 3, got.ConsumedCount)
	require.Equal(t, len(got.Items), got.ToConsumeCount+got.ConsumingCount+got.ConsumedCount)
}

func TestUpdateItemStatusRecounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedProfile(t, s, "owner", "olive")
	wl := seedWatchlist(t, s, "owner", "queue")

	it := addItem(t, s, wl.ID, "Alien", models.StatusToConsume)

	updated, err := s.UpdateItem(ctx, wl.ID, it.ID, "owner", map[string]any{
		"status": models.StatusConsumed, "rating": 4.5,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusConsumed, updated.Status)
	require.Equal(t, 4.5, updated.Rating)

	got, err := s.GetWatchlist(ctx, wl.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.ToConsumeCount)
	require.Equal(t, 1, got.ConsumedCount)
}

func TestRemoveItemRecounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedProfile(t, s, "owner", "olive")
	wl := seedWatchlist(t, s, "owner", "queue")

	it := addItem(t, s, wl.ID, "Alien", models.StatusConsumed)
	addItem(t, s, wl.ID, "Blade Runner", models.StatusConsumed)

	require.NoError(t, s.RemoveItem(ctx, wl.ID, it.ID, "owner"))

	got, err := s.GetWatchlist(ctx, wl.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.ConsumedCount)
	require.Len(t, got.Items, 1)

	err = s.RemoveItem(ctx, wl.ID, it.ID, "owner")
	require.Equal(t, apperr.CodeNotFound, apperr.Code(err))
}

func TestUpdateItemOwnerOnly(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedProfile(t, s, "owner", "olive")
	seedProfile(t, s, "intruder", "ivan")
	wl := seedWatchlist(t, s, "owner", "queue")
	it := addItem(t, s, wl.ID, "Alien", models.StatusToConsume)

	_, err := s.UpdateItem(ctx, wl.ID, it.ID, "intruder", map[string]any{"status": models.StatusConsumed})
	require.Equal(t, apperr.CodeForbidden, apperr.Code(err))

	err = s.RemoveItem(ctx, wl.ID, it.ID, "intruder")
	require.Equal(t, apperr.CodeForbidden, apperr.Code(err))

	err = s.ReorderItems(ctx, wl.ID, "intruder", []string{it.ID})
	require.Equal(t, apperr.CodeForbidden, apperr.Code(err))
}

func TestDeleteWatchlistCascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedProfile(t, s, "owner", "olive")
	seedProfile(t, s, "viewer_1", "vera")
	wl := seedWatchlist(t, s, "owner", "queue")
	addItem(t, s, wl.ID, "Alien", models.StatusToConsume)
	require.NoError(t, s.ReconcileShares(ctx, wl.ID, "owner", []string{"viewer_1"}))

	require.NoError(t, s.DeleteWatchlist(ctx, wl.ID, "owner"))

	_, err := s.GetWatchlist(ctx, wl.ID)
	require.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	var items int64
	require.NoError(t, s.DB.Model(&models.MediaItem{}).Where("watchlist_id = ?", wl.ID).Count(&items).Error)
	require.Zero(t, items)
	require.Empty(t, shareRows(t, s, wl.ID))
}
