// Package service holds the booking and authentication workflows.  Every
// error it returns is classified by wrapping one of the category
// sentinels below, so handlers map errors to status codes with errors.Is
// without knowing each specific failure.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	ErrLoginContention    = fmt.Errorf("%w: too many concurrent logins, try again", ErrConflict)

	ErrUnknownConcert    = fmt.Errorf("%w: concert does not exist", ErrBadRequest)
	ErrDateNotScheduled  = fmt.Errorf("%w: concert is not scheduled on that date", ErrBadRequest)
	ErrUnknownSeat       = fmt.Errorf("%w: one or more seats do not exist for that date", ErrBadRequest)
	ErrNoSeats           = fmt.Errorf("%w: at least one seat label is required", ErrBadRequest)
	ErrSeatAlreadyBooked = fmt.Errorf("%w: one or more seats are already booked", ErrForbidden)
	ErrSeatConflict      = fmt.Errorf("%w: seats were booked by a concurrent request", ErrForbidden)
	ErrNotOwner          = fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	ErrBookingNotFound   = fmt.Errorf("%w: booking does not exist", ErrNotFound)
)
