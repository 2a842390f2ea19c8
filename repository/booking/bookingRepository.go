// repository/booking/repo.go
package booking

import (
	"context"
	"database/sql"

	"github.com/VetalSh/library/model"
)

// CounterAdjust is the per-member-book delta applied to the books table
// together with a booking state write. Both land in one transaction, so a
// failed write leaves counters untouched.
type CounterAdjust struct {
	Reserved int64
	InStock  int64
}

type Repo interface {
	Read(ctx context.Context, id int64) (*model.Booking, error)
	FindByUser(ctx context.Context, userID int64) ([]model.Booking, error)
	FindDeliveredByUser(ctx context.Context, userID int64) ([]model.Booking, error)

	// Create persists a booking for the first time (commit of a session-held
	// NEW booking) together with its membership rows and counter deltas.
	Create(ctx context.Context, b *model.Booking, adjust CounterAdjust) error

	// Update writes state/place/modified of an existing booking and applies
	// counter deltas to every member book, atomically.
	Update(ctx context.Context, b *model.Booking, adjust CounterAdjust) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Read(ctx context.Context, id int64) (*model.Booking, error) {
	const q = `
		SELECT id, user_id, state, place, modified
		FROM bookings
		WHERE id = $1`
	b := &model.Booking{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UserID, &b.State, &b.Place, &b.Modified)
	if err != nil {
		return nil, err
	}
	if b.Books, err = r.memberBooks(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) FindByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	const q = `
		SELECT id, user_id, state, place, modified
		FROM bookings
		WHERE user_id = $1
		ORDER BY modified DESC`
	return r.findList(ctx, q, userID)
}

func (r *repo) FindDeliveredByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	const q = `
		SELECT id, user_id, state, place, modified
		FROM bookings
		WHERE user_id = $1
		AND state = 'DELIVERED'
		ORDER BY modified DESC`
	return r.findList(ctx, q, userID)
}

func (r *repo) findList(ctx context.Context, q string, userID int64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.State, &b.Place, &b.Modified); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Books, err = r.memberBooks(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *repo) memberBooks(ctx context.Context, bookingID int64) ([]model.Book, error) {
	const q = `
		SELECT b.id, b.title, b.author, b.year, b.keep_period, b.in_stock, b.reserved
		FROM books b
		JOIN booking_books bb ON bb.book_id = b.id
		WHERE bb.booking_id = $1
		ORDER BY b.id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.KeepPeriod, &b.InStock, &b.Reserved); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *repo) Create(ctx context.Context, b *model.Booking, adjust CounterAdjust) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
		INSERT INTO bookings(user_id, state, place, modified)
		VALUES ($1,$2,$3,$4)
		RETURNING id`
	if err = tx.QueryRowContext(ctx, q, b.UserID, b.State, b.Place, b.Modified).Scan(&b.ID); err != nil {
		return err
	}

	for _, book := range b.Books {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO booking_books(booking_id, book_id) VALUES ($1,$2)`,
			b.ID, book.ID); err != nil {
			return err
		}
	}

	if err = applyAdjust(ctx, tx, b, adjust); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) Update(ctx context.Context, b *model.Booking, adjust CounterAdjust) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
		UPDATE bookings
		SET state = $2,
			place = $3,
			modified = $4
		WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, b.ID, b.State, b.Place, b.Modified)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = applyAdjust(ctx, tx, b, adjust); err != nil {
		return err
	}
	return tx.Commit()
}

func applyAdjust(ctx context.Context, tx *sql.Tx, b *model.Booking, adjust CounterAdjust) error {
	if adjust.Reserved == 0 && adjust.InStock == 0 {
		return nil
	}
	const q = `
		UPDATE books
		SET reserved = reserved + $2,
			in_stock = in_stock + $3
		WHERE id = $1`
	for _, book := range b.Books {
		if _, err := tx.ExecContext(ctx, q, book.ID, adjust.Reserved, adjust.InStock); err != nil {
			return err
		}
	}
	return nil
}
