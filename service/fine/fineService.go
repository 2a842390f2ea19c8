package fine

import (
	"context"
	"log/slog"
	"time"

	"github.com/VetalSh/library/model"
)

// TaskName identifies this task in the scheduler registry and config.
const TaskName = "fine.update"

type BookingLister interface {
	FindDeliveredByUser(ctx context.Context, userID int64) ([]model.Booking, error)
}

type UserStore interface {
	GetAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
}

// Task periodically charges users for books kept past their allowance.
//
// For every user it scans DELIVERED bookings, counts whole days elapsed
// since max(booking modified, fine watermark), subtracts the allowance
// (the book's keep period for subscriptions, one day for reading-room
// items) and accrues finePerDay per remaining day. The watermark
// (FineLastChecked) only advances when something was charged, so a run
// right after a charging run finds a collapsed window and charges nothing.
type Task struct {
	users    UserStore
	bookings BookingLister
	perDay   float64
	log      *slog.Logger
	now      func() time.Time
}

func New(users UserStore, bookings BookingLister, perDay float64, log *slog.Logger) *Task {
	return &Task{
		users:    users,
		bookings: bookings,
		perDay:   perDay,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (t *Task) Name() string { return TaskName }

// Run performs one accrual pass. It never panics or returns: per-user
// failures are logged and skipped, a missing rate aborts the whole pass
// with nothing changed.
func (t *Task) Run(ctx context.Context) {
	t.log.Info("fine update initiated")

	if t.perDay <= 0 {
		t.log.Error("fine per day is not configured, refusing to run", "fine_per_day", t.perDay)
		return
	}

	users, err := t.users.GetAll(ctx)
	if err != nil {
		t.log.Error("unable to get users list", "err", err)
		return
	}

	for i := range users {
		// abandon between users on shutdown, never mid-user
		select {
		case <-ctx.Done():
			t.log.Info("fine update canceled", "checked", i, "total", len(users))
			return
		default:
		}
		t.checkUser(ctx, &users[i])
	}

	t.log.Info("fine update finished", "users", len(users))
}

func (t *Task) checkUser(ctx context.Context, u *model.User) {
	bookings, err := t.bookings.FindDeliveredByUser(ctx, u.ID)
	if err != nil {
		t.log.Error("unable to get booking list for user", "user_id", u.ID, "err", err)
		return
	}

	now := t.now()
	var delta float64
	for _, b := range bookings {
		windowStart := b.Modified
		if u.FineLastChecked.After(windowStart) {
			windowStart = u.FineLastChecked
		}
		pastDays := wholeDays(windowStart, now)

		for _, book := range b.Books {
			allowance := int64(1) // reading room items are not meant to leave the building
			if b.Place == model.PlaceUser {
				allowance = book.KeepPeriod
			}
			if fineDays := pastDays - allowance; fineDays > 0 {
				delta += float64(fineDays) * t.perDay
			}
		}
	}

	if delta == 0 {
		return
	}

	u.Fine += delta
	u.Modified = now
	u.FineLastChecked = now
	if err := t.users.Update(ctx, u); err != nil {
		t.log.Error("unable to persist user fine", "user_id", u.ID, "err", err)
		return
	}
	t.log.Info("user fine increased", "user_id", u.ID, "delta", delta, "fine", u.Fine)
}

func wholeDays(from, to time.Time) int64 {
	return int64(to.Sub(from) / (24 * time.Hour))
}
