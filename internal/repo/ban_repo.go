// Package repo implements the data persistence layer for the relay, backed
// by GORM. This file provides repository functions for the Ban model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mkoval/go-anon-relay/internal/domain"
)

// IsBanned reports whether the user identity is present in the ban set.
func IsBanned(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Ban{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n > 0, err
}

// BanUser adds the user identity to the ban set. Re-banning an already
// banned user is a silent no-op: the duplicate-key conflict is swallowed so
// callers see idempotent success.
func BanUser(ctx context.Context, db *gorm.DB, userID int64) error {
	b := &domain.Ban{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		if isDuplicate(err) {
			return nil
		}
		return err
	}
	return nil
}
