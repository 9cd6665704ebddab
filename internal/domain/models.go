// Package domain defines the persistence models for the relay: the
// correlation table linking group-side messages back to the originating
// private conversation, and the ban list. These types are mapped with GORM
// and form the durable core of the relay.
package domain

import (
	"time"
)

// Forward is one relayed message: the row written when a private message is
// forwarded into the staff group. The group-side message ID is assigned by
// the platform and is the key used to route replies and reactions back.
//
// Fields:
//   - GroupMessageID: message ID inside the staff group (primary key).
//   - UserID: identity of the originating user (equals their private chat ID).
//   - UserMessageID: message ID inside the user's own conversation.
//   - CreatedAt: insertion timestamp managed by GORM.
//
// Rows are write-once: never updated, never deleted. The table grows for the
// lifetime of the relay.
type Forward struct {
	GroupMessageID int64     `json:"group_message_id" gorm:"primaryKey;autoIncrement:false"`
	UserID         int64     `json:"user_id"          gorm:"not null;index:idx_forward_user"`
	UserMessageID  int64     `json:"user_message_id"  gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for Forward.
func (Forward) TableName() string { return "forwards" }

// Ban marks a user identity as banned. Presence of a row is the ban; there
// is no unban, so the set is append-only.
type Ban struct {
	UserID    int64     `json:"user_id"    gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Ban.
func (Ban) TableName() string { return "bans" }
