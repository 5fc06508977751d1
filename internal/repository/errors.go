// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts to read a resource
// owned by someone else, such as another user's booking.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an optimistic update matched no row
// because another transaction changed it first (seat already claimed,
// user version moved on).  The caller should abort the transaction.
var ErrConflict = errors.New("conflict")

var (
	ErrConcertNotFound   = errors.New("concert not found")
	ErrPerformerNotFound = errors.New("performer not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrSessionNotFound   = errors.New("session not found or expired")
	ErrUsernameExists    = errors.New("username already exists")
)

// isDuplicate reports whether err is a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// placeholders returns "?,?,?" with n marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
