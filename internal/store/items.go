package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

// recountStatuses rewrites the watchlist's per-status counters from a
// full scan of its items. Runs inside the caller's transaction so the
// counters and the triggering item write land together.
func recountStatuses(tx *gorm.DB, wlID string) error {
	type row struct {
		Status string
		N      int
	}
	var rows []row
	err := tx.Model(&models.MediaItem{}).
		Select("status, COUNT(*) AS n").
		Where("watchlist_id = ?", wlID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	counts := map[string]int{}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return tx.Model(&models.Watchlist{}).Where("id = ?", wlID).Updates(map[string]any{
		"to_consume_count": counts[models.StatusToConsume],
		"consuming_count":  counts[models.StatusConsuming],
		"consumed_count":   counts[models.StatusConsumed],
	}).Error
}

// AddItem appends an item at the end of the list and refreshes the
// counters, all in one transaction.
func (s *Store) AddItem(ctx context.Context, it *models.MediaItem, callerID string) error {
	if err := s.EnsureWatchlistOwner(ctx, it.WatchlistID, callerID); err != nil {
		return err
	}
	it.AddedBy = callerID
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pos int
		err := tx.Model(&models.MediaItem{}).
			Where("watchlist_id = ?", it.WatchlistID).
			Select("COALESCE(MAX(position), -1)+1").
			Scan(&pos).Error
		if err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		it.Position = pos
		if err := tx.Create(it).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		return recountStatuses(tx, it.WatchlistID)
	})
}

func (s *Store) GetItem(ctx context.Context, wlID, itemID string) (*models.MediaItem, error) {
	var it models.MediaItem
	err := s.DB.WithContext(ctx).First(&it, "id = ? AND watchlist_id = ?", itemID, wlID).Error
	if err != nil {
		return nil, notFound(err, "media item")
	}
	return &it, nil
}

// UpdateItem applies the given fields and, since status may be among
// them, recounts the watchlist counters in the same transaction.
func (s *Store) UpdateItem(ctx context.Context, wlID, itemID, callerID string, fields map[string]any) (*models.MediaItem, error) {
	if err := s.EnsureWatchlistOwner(ctx, wlID, callerID); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MediaItem{}).
			Where("id = ? AND watchlist_id = ?", itemID, wlID).
			Updates(fields)
		if res.Error != nil {
			return apperr.Wrap(res.Error, apperr.CodeInternal, "datastore failure")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.CodeNotFound, "media item not found")
		}
		return recountStatuses(tx, wlID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetItem(ctx, wlID, itemID)
}

func (s *Store) RemoveItem(ctx context.Context, wlID, itemID, callerID string) error {
	if err := s.EnsureWatchlistOwner(ctx, wlID, callerID); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND watchlist_id = ?", itemID, wlID).Delete(&models.MediaItem{})
		if res.Error != nil {
			return apperr.Wrap(res.Error, apperr.CodeInternal, "datastore failure")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.CodeNotFound, "media item not found")
		}
		return recountStatuses(tx, wlID)
	})
}

// ReorderItems rewrites every item's position to its zero-based index
// in the submitted sequence. The sequence must cover the watchlist's
// items exactly; the renumber happens in one transaction so a partial
// ordering is never visible.
func (s *Store) ReorderItems(ctx context.Context, wlID, callerID string, itemIDs []string) error {
	if err := s.EnsureWatchlistOwner(ctx, wlID, callerID); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.MediaItem
		if err := tx.Select("id").Where("watchlist_id = ?", wlID).Find(&existing).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		if len(existing) != len(itemIDs) {
			return apperr.New(apperr.CodeValidation, "item ids must cover the watchlist exactly")
		}
		known := make(map[string]struct{}, len(existing))
		for _, it := range existing {
			known[it.ID] = struct{}{}
		}
		seen := make(map[string]struct{}, len(itemIDs))
		for _, id := range itemIDs {
			if _, ok := known[id]; !ok {
				return apperr.New(apperr.CodeValidation, "unknown item id: "+id)
			}
			if _, dup := seen[id]; dup {
				return apperr.New(apperr.CodeValidation, "duplicate item id: "+id)
			}
			seen[id] = struct{}{}
		}
		for i, id := range itemIDs {
			err := tx.Model(&models.MediaItem{}).
				Where("id = ? AND watchlist_id = ?", id, wlID).
				Update("position", i).Error
			if err != nil {
				return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
			}
		}
		return nil
	})
}
