package booking_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VetalSh/library/model"
	bookingrepo "github.com/VetalSh/library/repository/booking"
	bs "github.com/VetalSh/library/service/booking"
)

type bookingRepoMock struct {
	readFn          func(ctx context.Context, id int64) (*model.Booking, error)
	findByUserFn    func(ctx context.Context, userID int64) ([]model.Booking, error)
	findDeliveredFn func(ctx context.Context, userID int64) ([]model.Booking, error)

	created       *model.Booking
	createdAdjust bookingrepo.CounterAdjust
	updated       *model.Booking
	updatedAdjust bookingrepo.CounterAdjust
	createCalls   int
	updateCalls   int
}

func (m *bookingRepoMock) Read(ctx context.Context, id int64) (*model.Booking, error) {
	if m.readFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.readFn(ctx, id)
}

func (m *bookingRepoMock) FindByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	if m.findByUserFn == nil {
		return nil, nil
	}
	return m.findByUserFn(ctx, userID)
}

func (m *bookingRepoMock) FindDeliveredByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	if m.findDeliveredFn == nil {
		return nil, nil
	}
	return m.findDeliveredFn(ctx, userID)
}

func (m *bookingRepoMock) Create(ctx context.Context, b *model.Booking, adjust bookingrepo.CounterAdjust) error {
	m.createCalls++
	m.created = b
	m.createdAdjust = adjust
	b.ID = 100
	return nil
}

func (m *bookingRepoMock) Update(ctx context.Context, b *model.Booking, adjust bookingrepo.CounterAdjust) error {
	m.updateCalls++
	m.updated = b
	m.updatedAdjust = adjust
	return nil
}

var _ bookingrepo.Repo = (*bookingRepoMock)(nil)

type bookReaderMock struct {
	books map[int64]model.Book
}

func (m *bookReaderMock) Read(ctx context.Context, id int64) (*model.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

type userReaderMock struct {
	users map[int64]model.User
}

func (m *userReaderMock) Read(ctx context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

// sessionMock is an in-memory stand-in for the redis session store.
type sessionMock struct {
	bookings map[int64]*model.Booking
	attempts map[string]int
	clearErr error
}

func newSessionMock() *sessionMock {
	return &sessionMock{
		bookings: map[int64]*model.Booking{},
		attempts: map[string]int{},
	}
}

func (m *sessionMock) Booking(ctx context.Context, userID int64) (*model.Booking, error) {
	return m.bookings[userID], nil
}

func (m *sessionMock) SetBooking(ctx context.Context, userID int64, b *model.Booking) error {
	m.bookings[userID] = b
	return nil
}

func (m *sessionMock) ClearBooking(ctx context.Context, userID int64) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.bookings, userID)
	return nil
}

func (m *sessionMock) IncrementLoginAttempts(ctx context.Context, email string) (int, error) {
	m.attempts[email]++
	return m.attempts[email], nil
}

func (m *sessionMock) ResetLoginAttempts(ctx context.Context, email string) error {
	delete(m.attempts, email)
	return nil
}

type fixture struct {
	repo     *bookingRepoMock
	books    *bookReaderMock
	users    *userReaderMock
	sessions *sessionMock
	svc      bs.Service
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture() *fixture {
	f := &fixture{
		repo: &bookingRepoMock{},
		books: &bookReaderMock{books: map[int64]model.Book{
			1: {ID: 1, Title: "Dune", KeepPeriod: 14, InStock: 3, Reserved: 0},
			2: {ID: 2, Title: "Solaris", KeepPeriod: 7, InStock: 1, Reserved: 1},
			3: {ID: 3, Title: "Hyperion", KeepPeriod: 7, InStock: 5, Reserved: 2},
		}},
		users: &userReaderMock{users: map[int64]model.User{
			10: {ID: 10, Role: model.RoleUser, State: model.UserValid},
			11: {ID: 11, Role: model.RoleUser, State: model.UserValid, Fine: 2.5},
		}},
		sessions: newSessionMock(),
	}
	f.svc = bs.New(f.repo, f.books, f.users, f.sessions, testLogger())
	return f
}

var (
	user      = bs.Actor{ID: 10, Role: model.RoleUser}
	finedUser = bs.Actor{ID: 11, Role: model.RoleUser}
	librarian = bs.Actor{ID: 20, Role: model.RoleLibrarian}
)

func TestAddBookCreatesWorkingBooking(t *testing.T) {
	f := newFixture()

	count, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	b := f.sessions.bookings[user.ID]
	require.NotNil(t, b)
	require.Equal(t, model.BookingNew, b.State)
	require.True(t, b.HasBook(1))
}

func TestAddBookIdempotent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)
	count, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Len(t, f.sessions.bookings[user.ID].Books, 1)
}

func TestAddBookForbiddenWithOutstandingFine(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddBook(context.Background(), finedUser, 1)
	require.Equal(t, bs.ErrForbidden, bs.Code(err))
	require.Nil(t, f.sessions.bookings[finedUser.ID])
}

func TestAddBookUnknownBook(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddBook(context.Background(), user, 999)
	require.Equal(t, bs.ErrNotFound, bs.Code(err))
}

func TestAddBookNoCopiesLeft(t *testing.T) {
	f := newFixture()

	// book 2 has in_stock == reserved
	_, err := f.svc.AddBook(context.Background(), user, 2)
	require.Equal(t, bs.ErrNoCopies, bs.Code(err))
}

func TestRemoveBookWithoutWorkingBooking(t *testing.T) {
	f := newFixture()

	err := f.svc.RemoveBook(context.Background(), user, 1)
	require.Equal(t, bs.ErrNotFound, bs.Code(err))
}

func TestRemoveBookDropsMembership(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)
	_, err = f.svc.AddBook(context.Background(), user, 3)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveBook(context.Background(), user, 1))
	b := f.sessions.bookings[user.ID]
	require.Len(t, b.Books, 1)
	require.False(t, b.HasBook(1))
}

func TestCommitPersistsAndClearsSession(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)
	_, err = f.svc.AddBook(context.Background(), user, 3)
	require.NoError(t, err)

	b, err := f.svc.Commit(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, model.BookingBooked, b.State)
	require.Equal(t, int64(100), b.ID)

	require.Equal(t, 1, f.repo.createCalls)
	require.Equal(t, bookingrepo.CounterAdjust{Reserved: +1}, f.repo.createdAdjust)
	require.Nil(t, f.sessions.bookings[user.ID], "commit must clear the session slot")
}

func TestCommitSucceedsWhenSessionClearFails(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)

	// once the booking is durable, a stale session slot must not surface as
	// an error: a retried commit would book the same basket twice
	f.sessions.clearErr = errors.New("redis down")

	b, err := f.svc.Commit(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, model.BookingBooked, b.State)
	require.Equal(t, 1, f.repo.createCalls)
}

func TestCommitWithoutWorkingBooking(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Commit(context.Background(), user)
	require.Equal(t, bs.ErrNotFound, bs.Code(err))
	require.Zero(t, f.repo.createCalls)
}

func TestCancelWorkingBookingTouchesNothingDurable(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), user, 0))
	require.Nil(t, f.sessions.bookings[user.ID])
	require.Zero(t, f.repo.createCalls)
	require.Zero(t, f.repo.updateCalls)
}

func TestCancelBookedReleasesReservations(t *testing.T) {
	f := newFixture()
	stored := &model.Booking{
		ID:     7,
		UserID: user.ID,
		State:  model.BookingBooked,
		Place:  model.PlaceLibrary,
		Books:  []model.Book{{ID: 1}, {ID: 3}},
	}
	f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
		require.Equal(t, int64(7), id)
		return stored, nil
	}

	require.NoError(t, f.svc.Cancel(context.Background(), user, 7))
	require.Equal(t, 1, f.repo.updateCalls)
	require.Equal(t, model.BookingCanceled, f.repo.updated.State)
	require.Equal(t, bookingrepo.CounterAdjust{Reserved: -1}, f.repo.updatedAdjust)
	require.False(t, f.repo.updated.Modified.IsZero())
}

func TestCancelIllegalStates(t *testing.T) {
	for _, state := range []model.BookingState{
		model.BookingDelivered, model.BookingDone, model.BookingCanceled,
	} {
		f := newFixture()
		f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
			return &model.Booking{ID: 7, UserID: user.ID, State: state}, nil
		}

		err := f.svc.Cancel(context.Background(), user, 7)
		require.Equal(t, bs.ErrInvalidState, bs.Code(err), "state %s", state)
		require.Zero(t, f.repo.updateCalls, "state %s must not be persisted", state)
	}
}

func TestCancelForeignBookingForbidden(t *testing.T) {
	f := newFixture()
	f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
		return &model.Booking{ID: 7, UserID: 999, State: model.BookingBooked}, nil
	}

	err := f.svc.Cancel(context.Background(), user, 7)
	require.Equal(t, bs.ErrForbidden, bs.Code(err))
	require.Zero(t, f.repo.updateCalls)
}

func TestDeliverToReadingRoom(t *testing.T) {
	f := newFixture()
	f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
		return &model.Booking{
			ID: 8, UserID: user.ID, State: model.BookingBooked,
			Place: model.PlaceLibrary, Books: []model.Book{{ID: 1}},
		}, nil
	}

	require.NoError(t, f.svc.Deliver(context.Background(), librarian, 8, false))
	require.Equal(t, model.BookingDelivered, f.repo.updated.State)
	require.Equal(t, model.PlaceLibrary, f.repo.updated.Place)
	require.Equal(t, bookingrepo.CounterAdjust{Reserved: -1, InStock: -1}, f.repo.updatedAdjust)
}

func TestDeliverAsSubscription(t *testing.T) {
	f := newFixture()
	f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
		return &model.Booking{
			ID: 8, UserID: user.ID, State: model.BookingBooked,
			Place: model.PlaceLibrary, Books: []model.Book{{ID: 1}},
		}, nil
	}

	require.NoError(t, f.svc.Deliver(context.Background(), librarian, 8, true))
	require.Equal(t, model.PlaceUser, f.repo.updated.Place)
}

func TestDeliverRequiresLibrarian(t *testing.T) {
	f := newFixture()

	err := f.svc.Deliver(context.Background(), user, 8, false)
	require.Equal(t, bs.ErrForbidden, bs.Code(err))
}

func TestDeliverIllegalStates(t *testing.T) {
	for _, state := range []model.BookingState{
		model.BookingNew, model.BookingDelivered, model.BookingDone, model.BookingCanceled,
	} {
		f := newFixture()
		f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
			return &model.Booking{ID: 8, UserID: user.ID, State: state}, nil
		}

		err := f.svc.Deliver(context.Background(), librarian, 8, false)
		require.Equal(t, bs.ErrInvalidState, bs.Code(err), "state %s", state)
		require.Zero(t, f.repo.updateCalls, "state %s must not be persisted", state)
	}
}

func TestCompleteReturnsBooksToShelf(t *testing.T) {
	f := newFixture()
	f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
		return &model.Booking{
			ID: 9, UserID: user.ID, State: model.BookingDelivered,
			Place: model.PlaceUser, Books: []model.Book{{ID: 1}, {ID: 3}},
		}, nil
	}

	require.NoError(t, f.svc.Complete(context.Background(), librarian, 9))
	require.Equal(t, model.BookingDone, f.repo.updated.State)
	require.Equal(t, bookingrepo.CounterAdjust{InStock: +1}, f.repo.updatedAdjust)
}

func TestCompleteIllegalStates(t *testing.T) {
	for _, state := range []model.BookingState{
		model.BookingNew, model.BookingBooked, model.BookingDone, model.BookingCanceled,
	} {
		f := newFixture()
		f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
			return &model.Booking{ID: 9, UserID: user.ID, State: state}, nil
		}

		err := f.svc.Complete(context.Background(), librarian, 9)
		require.Equal(t, bs.ErrInvalidState, bs.Code(err), "state %s", state)
		require.Zero(t, f.repo.updateCalls, "state %s must not be persisted", state)
	}
}

func TestLibrarianFindUnknownBooking(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Find(context.Background(), librarian, 42)
	require.Equal(t, bs.ErrNotFound, bs.Code(err))
}

func TestBasketListsCurrentAndHistory(t *testing.T) {
	f := newFixture()
	f.repo.findByUserFn = func(ctx context.Context, userID int64) ([]model.Booking, error) {
		return []model.Booking{{ID: 5, UserID: userID, State: model.BookingDone}}, nil
	}

	_, err := f.svc.AddBook(context.Background(), user, 1)
	require.NoError(t, err)

	current, past, err := f.svc.Basket(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Len(t, past, 1)
}

func TestSubscriptionForbiddenForLibrarian(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Subscription(context.Background(), librarian)
	require.Equal(t, bs.ErrForbidden, bs.Code(err))
}

func TestPersistenceFailureAbortsTransition(t *testing.T) {
	f := newFixture()
	boom := errors.New("connection reset")
	f.repo.readFn = func(ctx context.Context, id int64) (*model.Booking, error) {
		return nil, boom
	}

	err := f.svc.Deliver(context.Background(), librarian, 8, false)
	require.Equal(t, bs.ErrPersistence, bs.Code(err))
	require.ErrorIs(t, err, boom)
}
