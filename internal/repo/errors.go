// Package repo implements the data persistence layer for the relay, backed
// by GORM. This file centralizes repository error values and the
// driver-agnostic detection of unique-constraint violations.
package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrConflict indicates that a row with the same primary key already exists.
// For the forwards table this means a second record attempt for a group
// message ID that was already written; callers must treat the first row as
// authoritative.
var ErrConflict = errors.New("repo: conflict")

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}
