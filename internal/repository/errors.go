package repository

import (
	"errors"
	"strings"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidInput   = errors.New("invalid input")
)

// Unique-violation markers for PostgreSQL (production) and SQLite
// (tests). 23505 is the PostgreSQL unique_violation SQLSTATE.
var duplicateKeyMarkers = []string{
	"duplicate key",
	"UNIQUE constraint",
	"23505",
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
