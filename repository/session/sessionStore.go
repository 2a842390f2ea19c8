// repository/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VetalSh/library/model"
)

// State is the typed per-user session payload. One struct instead of a bag
// of string-keyed attributes. The login-attempt counter lives under its own
// per-email key (a plain redis INCR), not in here: before authentication
// there is no user id to address this struct by.
type State struct {
	Booking *model.Booking `json:"booking,omitempty"`
}

type Store interface {
	// Booking returns the user's working NEW booking, nil when the slot is
	// empty. The slot is keyed by user id: one working booking per user.
	Booking(ctx context.Context, userID int64) (*model.Booking, error)
	SetBooking(ctx context.Context, userID int64, b *model.Booking) error
	ClearBooking(ctx context.Context, userID int64) error

	// Login attempts are keyed by email; before authentication there is no
	// user id to hang them on.
	IncrementLoginAttempts(ctx context.Context, email string) (int, error)
	ResetLoginAttempts(ctx context.Context, email string) error
}

const (
	bookingTTL  = 24 * time.Hour
	attemptsTTL = 15 * time.Minute
)

type store struct{ rdb *redis.Client }

func New(rdb *redis.Client) Store { return &store{rdb: rdb} }

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func bookingKey(userID int64) string { return fmt.Sprintf("session:booking:%d", userID) }

func attemptsKey(email string) string {
	return "session:login_attempts:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *store) Booking(ctx context.Context, userID int64) (*model.Booking, error) {
	raw, err := s.rdb.Get(ctx, bookingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return st.Booking, nil
}

func (s *store) SetBooking(ctx context.Context, userID int64, b *model.Booking) error {
	raw, err := json.Marshal(State{Booking: b})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, bookingKey(userID), raw, bookingTTL).Err()
}

func (s *store) ClearBooking(ctx context.Context, userID int64) error {
	return s.rdb.Del(ctx, bookingKey(userID)).Err()
}

func (s *store) IncrementLoginAttempts(ctx context.Context, email string) (int, error) {
	key := attemptsKey(email)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// counter is short-lived, a stale one should not haunt the next login
	_ = s.rdb.Expire(ctx, key, attemptsTTL).Err()
	return int(n), nil
}

func (s *store) ResetLoginAttempts(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, attemptsKey(email)).Err()
}
