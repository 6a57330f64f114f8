package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Media kinds a watchlist item can track.
const (
	MediumMovie   = "movie"
	MediumTV      = "tv"
	MediumYouTube = "youtube"
	MediumBook    = "book"
)

// Consumption states.
const (
	StatusToConsume = "to_consume"
	StatusConsuming = "consuming"
	StatusConsumed  = "consumed"
)

// Friend request states. Rejected requests are deleted rather than
// tombstoned; the constant exists for webhook replay tolerance.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// Profile mirrors the identity provider's user. ID is the provider's
// subject id and never changes.
type Profile struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
}

type FriendRequest struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SenderID   string `gorm:"not null;index:idx_friend_request_pair" json:"sender_id"`
	ReceiverID string `gorm:"not null;index:idx_friend_request_pair" json:"receiver_id"`
	Status     string `gorm:"type:varchar(20);default:'pending'" json:"status"`

	Sender   *Profile `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Receiver *Profile `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
}

func (r *FriendRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Friendship is one direction of an accepted pair. For every accepted
// request a (sender,receiver) and a (receiver,sender) row both exist.
type Friendship struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	FriendID  string    `gorm:"primaryKey" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`

	Friend *Profile `gorm:"foreignKey:FriendID;constraint:OnDelete:CASCADE" json:"friend,omitempty"`
}

func (Friendship) TableName() string { return "friendships" }

type Watchlist struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OwnerID     string `gorm:"not null;index" json:"owner_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsPublic    bool   `gorm:"default:false" json:"is_public"`

	// Per-status counts, recomputed on every item write.
	ToConsumeCount int `gorm:"default:0" json:"to_consume_count"`
	ConsumingCount int `gorm:"default:0" json:"consuming_count"`
	ConsumedCount  int `gorm:"default:0" json:"consumed_count"`

	Items []MediaItem `json:"items,omitempty"`
}

func (w *Watchlist) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// WatchlistShare grants one profile read access to one watchlist. Row
// existence is the grant; deleting the row revokes it.
type WatchlistShare struct {
	WatchlistID  string    `gorm:"primaryKey" json:"watchlist_id"`
	SharedWithID string    `gorm:"primaryKey" json:"shared_with_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (WatchlistShare) TableName() string { return "watchlist_shares" }

type MediaItem struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WatchlistID string  `gorm:"not null;index" json:"watchlist_id"`
	AddedBy     string  `json:"added_by"`
	Title       string  `gorm:"not null" json:"title"`
	Medium      string  `gorm:"type:varchar(20);not null" json:"medium"`
	Status      string  `gorm:"type:varchar(20);default:'to_consume'" json:"status"`
	Rating      float64 `gorm:"default:0" json:"rating"`
	Notes       string  `json:"notes"`
	Position    int     `gorm:"default:0" json:"position"`

	// Provider-side id (TMDB numeric id, YouTube video id, ISBN).
	ExternalID string `json:"external_id"`
	Image      string `json:"image"`
}

func (m *MediaItem) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ValidMedium reports whether s is a known media kind.
func ValidMedium(s string) bool {
	switch s {
	case MediumMovie, MediumTV, MediumYouTube, MediumBook:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known consumption state.
func ValidStatus(s string) bool {
	switch s {
	case StatusToConsume, StatusConsuming, StatusConsumed:
		return true
	}
	return false
}
