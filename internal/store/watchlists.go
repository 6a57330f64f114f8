package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

func (s *Store) CreateWatchlist(ctx context.Context, wl *models.Watchlist) error {
	if err := s.DB.WithContext(ctx).Create(wl).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return nil
}

func (s *Store) GetWatchlist(ctx context.Context, id string) (*models.Watchlist, error) {
	var wl models.Watchlist
	err := s.DB.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		First(&wl, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "watchlist")
	}
	return &wl, nil
}

// EnsureWatchlistOwner verifies the caller owns the list. Every
// mutating watchlist operation goes through this first.
func (s *Store) EnsureWatchlistOwner(ctx context.Context, wlID, callerID string) error {
	var wl models.Watchlist
	if err := s.DB.WithContext(ctx).Select("id", "owner_id").First(&wl, "id = ?", wlID).Error; err != nil {
		return notFound(err, "watchlist")
	}
	if wl.OwnerID != callerID {
		return apperr.New(apperr.CodeForbidden, "not the watchlist owner")
	}
	return nil
}

// CanViewWatchlist reports read access: owner, public, or shared-with.
func (s *Store) CanViewWatchlist(ctx context.Context, wl *models.Watchlist, callerID string) (bool, error) {
	if wl.IsPublic || wl.OwnerID == callerID {
		return true, nil
	}
	if callerID == "" {
		return false, nil
	}
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.WatchlistShare{}).
		Where("watchlist_id = ? AND shared_with_id = ?", wl.ID, callerID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return count > 0, nil
}

// UpdateWatchlist applies the given fields after an ownership check.
// OwnerID is never among the updatable fields.
func (s *Store) UpdateWatchlist(ctx context.Context, id, callerID string, fields map[string]any) (*models.Watchlist, error) {
	if err := s.EnsureWatchlistOwner(ctx, id, callerID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		err := s.DB.WithContext(ctx).Model(&models.Watchlist{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
	}
	return s.GetWatchlist(ctx, id)
}

func (s *Store) DeleteWatchlist(ctx context.Context, id, callerID string) error {
	if err := s.EnsureWatchlistOwner(ctx, id, callerID); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("watchlist_id = ?", id).Delete(&models.MediaItem{}).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		if err := tx.Where("watchlist_id = ?", id).Delete(&models.WatchlistShare{}).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		if err := tx.Delete(&models.Watchlist{}, "id = ?", id).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		return nil
	})
}

func (s *Store) ListWatchlistsByOwner(ctx context.Context, owner string) ([]models.Watchlist, error) {
	var out []models.Watchlist
	err := s.DB.WithContext(ctx).Where("owner_id = ?", owner).Order("updated_at DESC").Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return out, nil
}

func (s *Store) ListPublicWatchlistsByOwner(ctx context.Context, owner string) ([]models.Watchlist, error) {
	var out []models.Watchlist
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND is_public = ?", owner, true).
		Order("updated_at DESC").Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return out, nil
}

// ListSharedWithUser returns lists other users have shared with userID.
func (s *Store) ListSharedWithUser(ctx context.Context, userID string) ([]models.Watchlist, error) {
	var out []models.Watchlist
	err := s.DB.WithContext(ctx).
		Table("watchlists").
		Select("watchlists.*").
		Joins("JOIN watchlist_shares ON watchlist_shares.watchlist_id = watchlists.id").
		Where("watchlist_shares.shared_with_id = ? AND watchlists.deleted_at IS NULL", userID).
		Order("watchlists.updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return out, nil
}
