package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

// Store owns all persistence. It is built once per process and passed
// to handlers explicitly; there is no package-level client.
type Store struct{ DB *gorm.DB }

func New(db *gorm.DB) *Store { return &Store{DB: db} }

// Migrate creates/updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Watchlist{},
		&models.WatchlistShare{},
		&models.MediaItem{},
	)
}

// notFound translates gorm's sentinel at the store boundary so callers
// only ever see application errors.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.CodeNotFound, what+" not found")
	}
	return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// Profiles

func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		return apperr.New(apperr.CodeValidation, "profile id is required")
	}
	err := s.DB.WithContext(ctx).Where(models.Profile{ID: p.ID}).Assign(map[string]any{
		"username": p.Username, "email": p.Email, "avatar": p.Avatar,
	}).FirstOrCreate(p).Error
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.CodeConflict, "username or email already taken")
		}
		return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

func (s *Store) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).First(&p, "username = ?", username).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, fields map[string]any) (*models.Profile, error) {
	if len(fields) > 0 {
		err := s.DB.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apperr.New(apperr.CodeConflict, "username already taken")
			}
			return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
	}
	return s.GetProfile(ctx, id)
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	if err := s.DB.WithContext(ctx).Delete(&models.Profile{}, "id = ?", id).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return nil
}

// SearchProfiles matches usernames by prefix, for the add-friend box.
func (s *Store) SearchProfiles(ctx context.Context, q string, limit int) ([]models.Profile, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var out []models.Profile
	err := s.DB.WithContext(ctx).
		Where("username LIKE ?", q+"%").
		Order("username ASC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return out, nil
}
