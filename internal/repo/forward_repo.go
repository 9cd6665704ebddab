// Package repo implements the data persistence layer for the relay, backed
// by GORM. This file provides repository functions for the Forward model
// (the group-message correlation table).
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mkoval/go-anon-relay/internal/domain"
)

// CreateForward inserts the write-once correlation row for a relayed message.
// A duplicate group message ID returns ErrConflict and leaves the existing
// row untouched.
func CreateForward(ctx context.Context, db *gorm.DB, groupMessageID, userID, userMessageID int64) error {
	f := &domain.Forward{
		GroupMessageID: groupMessageID,
		UserID:         userID,
		UserMessageID:  userMessageID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetForward fetches the correlation row for a group message ID. Absence is
// a normal outcome (a reply to a message the relay never forwarded) and is
// reported as (nil, nil), not as an error.
func GetForward(ctx context.Context, db *gorm.DB, groupMessageID int64) (*domain.Forward, error) {
	var f domain.Forward
	err := db.WithContext(ctx).Where("group_message_id = ?", groupMessageID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CountForwards returns the total number of correlation rows. The relay
// itself never enumerates the table; this exists for operational inspection.
func CountForwards(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM forwards").Scan(&total).Error
	return total, err
}
