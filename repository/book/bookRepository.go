// repository/book/repo.go
package book

import (
	"context"
	"database/sql"

	"github.com/VetalSh/library/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Read(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books(title, author, year, keep_period, in_stock, reserved)
		VALUES ($1,$2,$3,$4,$5,0)
		RETURNING id`
	return r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.Year, b.KeepPeriod, b.InStock,
	).Scan(&b.ID)
}

func (r *repo) Read(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
		SELECT id, title, author, year, keep_period, in_stock, reserved
		FROM books
		WHERE id = $1`
	b := &model.Book{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.Year, &b.KeepPeriod, &b.InStock, &b.Reserved,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `
		SELECT id, title, author, year, keep_period, in_stock, reserved
		FROM books
		ORDER BY title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.KeepPeriod, &b.InStock, &b.Reserved); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
