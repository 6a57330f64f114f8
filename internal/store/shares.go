package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

// ReconcileShares makes the persisted share rows for a watchlist equal
// the desired viewer set: insert desired-current, delete
// current-desired, in one transaction. Re-running with the same set is
// a no-op.
func (s *Store) ReconcileShares(ctx context.Context, wlID, callerID string, desired []string) error {
	if err := s.EnsureWatchlistOwner(ctx, wlID, callerID); err != nil {
		return err
	}

	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if id == "" || id == callerID {
			continue // never share with yourself
		}
		want[id] = struct{}{}
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []models.WatchlistShare
		if err := tx.Where("watchlist_id = ?", wlID).Find(&current).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		have := make(map[string]struct{}, len(current))
		for _, row := range current {
			have[row.SharedWithID] = struct{}{}
		}

		var toAdd []models.WatchlistShare
		for id := range want {
			if _, ok := have[id]; !ok {
				toAdd = append(toAdd, models.WatchlistShare{WatchlistID: wlID, SharedWithID: id})
			}
		}
		var toRemove []string
		for id := range have {
			if _, ok := want[id]; !ok {
				toRemove = append(toRemove, id)
			}
		}

		if len(toAdd) > 0 {
			if err := tx.Create(&toAdd).Error; err != nil {
				if isUniqueViolation(err) {
					// A concurrent reconcile already granted it.
					return apperr.New(apperr.CodeConflict, "share list changed concurrently")
				}
				return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
			}
		}
		if len(toRemove) > 0 {
			if err := tx.Where("watchlist_id = ? AND shared_with_id IN ?", wlID, toRemove).
				Delete(&models.WatchlistShare{}).Error; err != nil {
				return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
			}
		}
		return nil
	})
}

// ListShares returns the viewer ids currently granted on a watchlist.
func (s *Store) ListShares(ctx context.Context, wlID, callerID string) ([]string, error) {
	if err := s.EnsureWatchlistOwner(ctx, wlID, callerID); err != nil {
		return nil, err
	}
	var rows []models.WatchlistShare
	if err := s.DB.WithContext(ctx).Where("watchlist_id = ?", wlID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.SharedWithID)
	}
	return out, nil
}
