package booking

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/VetalSh/library/model"
	bookrepo "github.com/VetalSh/library/repository/booking"
	"github.com/VetalSh/library/repository/session"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidState ErrCode = "INVALID_STATE"
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrForbidden    ErrCode = "FORBIDDEN"
	ErrNoCopies     ErrCode = "NO_COPIES"
	ErrPersistence  ErrCode = "PERSISTENCE"
)

type codedError struct {
	code ErrCode
	err  error
}

func (e codedError) Error() string {
	if e.err != nil {
		return string(e.code) + ": " + e.err.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.err }

func makeErr(c ErrCode) error            { return codedError{code: c} }
func wrapErr(c ErrCode, err error) error { return codedError{code: c, err: err} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	ID   int64
	Role model.Role
}

// BookReader is the catalog lookup the state machine needs.
type BookReader interface {
	Read(ctx context.Context, id int64) (*model.Book, error)
}

// UserReader resolves the acting user, for the outstanding-fine check.
type UserReader interface {
	Read(ctx context.Context, id int64) (*model.User, error)
}

// Service is the booking lifecycle state machine.
//
// A USER assembles a working NEW booking which lives only in the session
// store until committed; commit is the first durable write. A LIBRARIAN
// operates on committed bookings by explicit id. Every transition stamps
// Modified and applies its counter side effects in the same transaction as
// the state write (the repository is the serialization point).
//
// Counter invariant: a book's reserved counter equals the number of member
// slots in bookings currently in state BOOKED. Commit adds one per member
// book, cancel-from-BOOKED and deliver release one; deliver and complete
// move inStock down and back up.
type Service interface {
	// AddBook puts a book into the working booking, creating the booking in
	// the session when absent. Returns the basket size. Idempotent per book.
	AddBook(ctx context.Context, actor Actor, bookID int64) (int, error)

	// RemoveBook drops a book from the working NEW booking.
	RemoveBook(ctx context.Context, actor Actor, bookID int64) error

	// Commit transitions the working booking NEW -> BOOKED, persisting it
	// for the first time and clearing the session slot.
	Commit(ctx context.Context, actor Actor) (*model.Booking, error)

	// Cancel voids a booking. With id 0 a USER cancels their session-held
	// NEW booking (nothing durable to touch); with an explicit id the
	// booking must be BOOKED and reservation counters are released.
	Cancel(ctx context.Context, actor Actor, bookingID int64) error

	// Deliver transitions BOOKED -> DELIVERED, handing books out either to
	// the reading room or, with subscription, to the user.
	Deliver(ctx context.Context, actor Actor, bookingID int64, subscription bool) error

	// Complete transitions DELIVERED -> DONE, returning books to the shelf.
	Complete(ctx context.Context, actor Actor, bookingID int64) error

	// Basket returns the user's working booking (may be nil) and their
	// committed booking history.
	Basket(ctx context.Context, actor Actor) (*model.Booking, []model.Booking, error)

	// Subscription lists the user's DELIVERED bookings.
	Subscription(ctx context.Context, actor Actor) ([]model.Booking, error)

	// Find resolves a booking by id for a librarian.
	Find(ctx context.Context, actor Actor, bookingID int64) (*model.Booking, error)
}

type service struct {
	bookings bookrepo.Repo
	books    BookReader
	users    UserReader
	sessions session.Store
	log      *slog.Logger
	now      func() time.Time
}

func New(bookings bookrepo.Repo, books BookReader, users UserReader, sessions session.Store, log *slog.Logger) Service {
	return &service{
		bookings: bookings,
		books:    books,
		users:    users,
		sessions: sessions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// findWorking resolves the USER's session-held booking. With create it will
// make one, unless the user carries an outstanding fine.
func (s *service) findWorking(ctx context.Context, actor Actor, create bool) (*model.Booking, error) {
	if actor.Role != model.RoleUser {
		return nil, makeErr(ErrForbidden)
	}

	b, err := s.sessions.Booking(ctx, actor.ID)
	if err != nil {
		return nil, wrapErr(ErrPersistence, err)
	}
	if b != nil || !create {
		return b, nil
	}

	u, err := s.users.Read(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, wrapErr(ErrPersistence, err)
	}
	if u.Fine > 0 {
		return nil, makeErr(ErrForbidden)
	}

	b = model.NewBooking(actor.ID)
	if err := s.sessions.SetBooking(ctx, actor.ID, b); err != nil {
		return nil, wrapErr(ErrPersistence, err)
	}
	return b, nil
}

// resolve locates a committed booking by id. A USER may only reach their
// own bookings; a LIBRARIAN reaches any.
func (s *service) resolve(ctx context.Context, actor Actor, bookingID int64) (*model.Booking, error) {
	if actor.Role != model.RoleUser && actor.Role != model.RoleLibrarian {
		return nil, makeErr(ErrForbidden)
	}

	b, err := s.bookings.Read(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, wrapErr(ErrPersistence, err)
	}
	if actor.Role == model.RoleUser && b.UserID != actor.ID {
		return nil, makeErr(ErrForbidden)
	}
	return b, nil
}

func (s *service) AddBook(ctx context.Context, actor Actor, bookID int64) (int, error) {
	b, err := s.findWorking(ctx, actor, true)
	if err != nil {
		return 0, err
	}
	if b.State != model.BookingNew {
		return 0, makeErr(ErrInvalidState)
	}

	book, err := s.books.Read(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, makeErr(ErrNotFound)
		}
		return 0, wrapErr(ErrPersistence, err)
	}
	if book.Available() <= 0 {
		return 0, makeErr(ErrNoCopies)
	}

	if b.AddBook(*book) {
		if err := s.sessions.SetBooking(ctx, actor.ID, b); err != nil {
			return 0, wrapErr(ErrPersistence, err)
		}
	}
	return len(b.Books), nil
}

func (s *service) RemoveBook(ctx context.Context, actor Actor, bookID int64) error {
	b, err := s.findWorking(ctx, actor, false)
	if err != nil {
		return err
	}
	if b == nil {
		return makeErr(ErrNotFound)
	}
	if b.State != model.BookingNew {
		return makeErr(ErrInvalidState)
	}

	if b.RemoveBook(bookID) {
		if err := s.sessions.SetBooking(ctx, actor.ID, b); err != nil {
			return wrapErr(ErrPersistence, err)
		}
	}
	return nil
}

func (s *service) Commit(ctx context.Context, actor Actor) (*model.Booking, error) {
	b, err := s.findWorking(ctx, actor, false)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	if b.State != model.BookingNew {
		return nil, makeErr(ErrInvalidState)
	}

	b.State = model.BookingBooked
	b.Modified = s.now()
	if err := s.bookings.Create(ctx, b, bookrepo.CounterAdjust{Reserved: +1}); err != nil {
		return nil, wrapErr(ErrPersistence, err)
	}

	// The booking is durable now; failing the call over a stale session slot
	// would invite a retry that commits a second booking. The dangling slot
	// only shadows the committed one until its TTL runs out.
	if err := s.sessions.ClearBooking(ctx, actor.ID); err != nil {
		s.log.Error("session slot not cleared after commit",
			"user_id", actor.ID, "booking_id", b.ID, "err", err)
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, bookingID int64) error {
	if bookingID == 0 {
		// session-held NEW booking, nothing durable was ever written
		b, err := s.findWorking(ctx, actor, false)
		if err != nil {
			return err
		}
		if b == nil {
			return makeErr(ErrNotFound)
		}
		if b.State != model.BookingNew {
			return makeErr(ErrInvalidState)
		}
		if err := s.sessions.ClearBooking(ctx, actor.ID); err != nil {
			return wrapErr(ErrPersistence, err)
		}
		return nil
	}

	b, err := s.resolve(ctx, actor, bookingID)
	if err != nil {
		return err
	}
	if b.State != model.BookingBooked {
		return makeErr(ErrInvalidState)
	}

	b.State = model.BookingCanceled
	b.Modified = s.now()
	if err := s.bookings.Update(ctx, b, bookrepo.CounterAdjust{Reserved: -1}); err != nil {
		return wrapErr(ErrPersistence, err)
	}
	return nil
}

func (s *service) Deliver(ctx context.Context, actor Actor, bookingID int64, subscription bool) error {
	if actor.Role != model.RoleLibrarian {
		return makeErr(ErrForbidden)
	}

	b, err := s.resolve(ctx, actor, bookingID)
	if err != nil {
		return err
	}
	if b.State != model.BookingBooked {
		return makeErr(ErrInvalidState)
	}

	b.State = model.BookingDelivered
	if subscription {
		b.Place = model.PlaceUser
	}
	b.Modified = s.now()
	if err := s.bookings.Update(ctx, b, bookrepo.CounterAdjust{Reserved: -1, InStock: -1}); err != nil {
		return wrapErr(ErrPersistence, err)
	}
	return nil
}

func (s *service) Complete(ctx context.Context, actor Actor, bookingID int64) error {
	if actor.Role != model.RoleLibrarian {
		return makeErr(ErrForbidden)
	}

	b, err := s.resolve(ctx, actor, bookingID)
	if err != nil {
		return err
	}
	if b.State != model.BookingDelivered {
		return makeErr(ErrInvalidState)
	}

	b.State = model.BookingDone
	b.Modified = s.now()
	if err := s.bookings.Update(ctx, b, bookrepo.CounterAdjust{InStock: +1}); err != nil {
		return wrapErr(ErrPersistence, err)
	}
	return nil
}

func (s *service) Basket(ctx context.Context, actor Actor) (*model.Booking, []model.Booking, error) {
	current, err := s.findWorking(ctx, actor, false)
	if err != nil {
		return nil, nil, err
	}

	past, err := s.bookings.FindByUser(ctx, actor.ID)
	if err != nil {
		return nil, nil, wrapErr(ErrPersistence, err)
	}
	return current, past, nil
}

func (s *service) Subscription(ctx context.Context, actor Actor) ([]model.Booking, error) {
	if actor.Role != model.RoleUser {
		return nil, makeErr(ErrForbidden)
	}
	list, err := s.bookings.FindDeliveredByUser(ctx, actor.ID)
	if err != nil {
		return nil, wrapErr(ErrPersistence, err)
	}
	return list, nil
}

func (s *service) Find(ctx context.Context, actor Actor, bookingID int64) (*model.Booking, error) {
	if actor.Role != model.RoleLibrarian {
		return nil, makeErr(ErrForbidden)
	}
	return s.resolve(ctx, actor, bookingID)
}
