package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/midhun-sadanand/couchd-sub001/internal/apperr"
	"github.com/midhun-sadanand/couchd-sub001/internal/models"
)

// CreateFriendRequest inserts a pending request. Any existing pending
// or accepted edge between the pair, in either direction, blocks the
// insert.
func (s *Store) CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, apperr.New(apperr.CodeValidation, "cannot send a friend request to yourself")
	}
	if _, err := s.GetProfile(ctx, receiverID); err != nil {
		return nil, err
	}

	var existing models.FriendRequest
	err := s.DB.WithContext(ctx).Where(
		"((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status IN ?",
		senderID, receiverID, receiverID, senderID,
		[]string{models.RequestPending, models.RequestAccepted},
	).First(&existing).Error
	if err == nil {
		if existing.Status == models.RequestAccepted {
			return nil, apperr.New(apperr.CodeAlreadyExists, "already friends")
		}
		return nil, apperr.New(apperr.CodeAlreadyExists, "friend request already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}

	req := &models.FriendRequest{SenderID: senderID, ReceiverID: receiverID, Status: models.RequestPending}
	if err := s.DB.WithContext(ctx).Create(req).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return req, nil
}

func (s *Store) GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := s.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "friend request")
	}
	return &req, nil
}

// AcceptFriendRequest flips the request to accepted and inserts both
// directional friendship rows in one transaction. The status update is
// a compare-and-swap on pending; losing the race is a conflict, not a
// partial write.
func (s *Store) AcceptFriendRequest(ctx context.Context, id, callerID string) error {
	req, err := s.GetFriendRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.ReceiverID != callerID {
		return apperr.New(apperr.CodeForbidden, "only the receiver may accept a friend request")
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", id, models.RequestPending).
			Update("status", models.RequestAccepted)
		if res.Error != nil {
			return apperr.Wrap(res.Error, apperr.CodeInternal, "datastore failure")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.CodeConflict, "friend request already resolved")
		}
		rows := []models.Friendship{
			{UserID: req.SenderID, FriendID: req.ReceiverID},
			{UserID: req.ReceiverID, FriendID: req.SenderID},
		}
		if err := tx.Create(&rows).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.New(apperr.CodeConflict, "already friends")
			}
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		return nil
	})
}

// RejectFriendRequest deletes the pending row. No friendship rows are
// ever created on this path.
func (s *Store) RejectFriendRequest(ctx context.Context, id, callerID string) error {
	req, err := s.GetFriendRequest(ctx, id)
	if err != nil {
		return err
	}
	if req.ReceiverID != callerID {
		return apperr.New(apperr.CodeForbidden, "only the receiver may reject a friend request")
	}
	res := s.DB.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Delete(&models.FriendRequest{})
	if res.Error != nil {
		return apperr.Wrap(res.Error, apperr.CodeInternal, "datastore failure")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeConflict, "friend request already resolved")
	}
	return nil
}

// ListFriendRequests returns pending rows for userID in the given
// direction ("incoming" or "outgoing").
func (s *Store) ListFriendRequests(ctx context.Context, userID, direction string) ([]models.FriendRequest, error) {
	q := s.DB.WithContext(ctx).Where("status = ?", models.RequestPending)
	switch direction {
	case "outgoing":
		q = q.Where("sender_id = ?", userID).Preload("Receiver")
	default:
		q = q.Where("receiver_id = ?", userID).Preload("Sender")
	}
	var out []models.FriendRequest
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return out, nil
}

func (s *Store) ListFriends(ctx context.Context, userID string) ([]models.Profile, error) {
	var out []models.Profile
	err := s.DB.WithContext(ctx).
		Table("profiles").
		Select("profiles.*").
		Joins("JOIN friendships ON friendships.friend_id = profiles.id").
		Where("friendships.user_id = ? AND profiles.deleted_at IS NULL", userID).
		Order("profiles.username ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return out, nil
}

// RemoveFriend deletes both directional rows in one transaction.
func (s *Store) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(
			"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID,
		).Delete(&models.Friendship{})
		if res.Error != nil {
			return apperr.Wrap(res.Error, apperr.CodeInternal, "datastore failure")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.CodeNotFound, "friendship not found")
		}
		// Drop the accepted request so a fresh request can be sent later.
		if err := tx.Where(
			"((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
			userID, friendID, friendID, userID, models.RequestAccepted,
		).Delete(&models.FriendRequest{}).Error; err != nil {
			return apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
		}
		return nil
	})
}

// AreFriends checks for the (userID, friendID) directional row.
func (s *Store) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(err, apperr.CodeInternal, "datastore failure")
	}
	return count > 0, nil
}
