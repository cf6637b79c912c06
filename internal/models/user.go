package models

import (
	"time"

	"github.com/google/uuid"
)

// Номера пользователей с полными правами модератора
var ModeratorNumbers = map[int]bool{0: true, 2: true}

// User представляет пользователя в системе
type User struct {
	ID              uuid.UUID  `json:"id"`
	UserNumber      int        `json:"user_number"`
	Username        string     `json:"username,omitempty"`
	Owned           []string   `json:"owned"`
	Favourites      []string   `json:"favourites"`
	Wishlist        []string   `json:"wishlist"`
	LastSeenAt      *time.Time `json:"last_seen_at,omitempty"`
	TradeRestricted bool       `json:"trade_restricted"`
	Banned          bool       `json:"banned"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsModerator сообщает, имеет ли пользователь полные права модератора
func (u *User) IsModerator() bool {
	return ModeratorNumbers[u.UserNumber]
}

// UserInfo представляет минимальную информацию о пользователе для API
type UserInfo struct {
	ID         uuid.UUID `json:"id"`
	UserNumber int       `json:"user_number"`
	Username   string    `json:"username,omitempty"`
}
