// Package user carries the administrative account operations: listing,
// blocking/unblocking, and removal. Blocking flips the account state that
// Login checks; a blocked user keeps their bookings and fine, they just
// cannot sign in until unblocked.
package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/VetalSh/library/model"
	userrepo "github.com/VetalSh/library/repository/user"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrBadState = errors.New("unknown user state")

	// ErrOutstandingFine refuses deletion while the account still owes money.
	ErrOutstandingFine = errors.New("user has an outstanding fine")

	// ErrActiveBookings refuses deletion while a BOOKED or DELIVERED booking
	// exists: dropping it would strand the book counters it adjusted.
	ErrActiveBookings = errors.New("user has active bookings")
)

// BookingReader lists a user's committed bookings.
type BookingReader interface {
	FindByUser(ctx context.Context, userID int64) ([]model.Booking, error)
}

type Service interface {
	List(ctx context.Context) ([]model.User, error)
	SetState(ctx context.Context, id int64, state model.UserState) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	ur       userrepo.Repo
	bookings BookingReader
	now      func() time.Time
}

func New(ur userrepo.Repo, bookings BookingReader) Service {
	return &service{ur: ur, bookings: bookings, now: time.Now}
}

func (s *service) List(ctx context.Context) ([]model.User, error) {
	return s.ur.GetAll(ctx)
}

func (s *service) SetState(ctx context.Context, id int64, state model.UserState) (*model.User, error) {
	if state != model.UserValid && state != model.UserBlocked {
		return nil, ErrBadState
	}

	u, err := s.ur.Read(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.State == state {
		return u, nil
	}

	u.State = state
	u.Modified = s.now()
	if err := s.ur.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	u, err := s.ur.Read(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if u.Fine > 0 {
		return ErrOutstandingFine
	}

	bookings, err := s.bookings.FindByUser(ctx, id)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.State == model.BookingBooked || b.State == model.BookingDelivered {
			return ErrActiveBookings
		}
	}

	return s.ur.Delete(ctx, id)
}
