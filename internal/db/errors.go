package db

import (
	"errors"
	"strings"
	"time"
)

// Sentinel errors shared by the SQL stores. Handlers map them to HTTP status codes.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid input")
)

// IsUniqueViolation reports whether err comes from a UNIQUE constraint on either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite + postgres
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "sqlstate 23505")
}

// Now returns the unix timestamp used for created_at columns.
func Now() int64 { return time.Now().Unix() }

// DateLayout is the text layout of calendar date columns.
const DateLayout = "2006-01-02"
