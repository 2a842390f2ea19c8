// repository/user/repo.go
package user

import (
	"context"
	"database/sql"

	"github.com/VetalSh/library/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Read(ctx context.Context, id int64) (*model.User, error)
	GetAll(ctx context.Context) ([]model.User, error)

	// Update writes the mutable user columns: state, fine, fine watermark,
	// modified. Identity and credentials are not touched here.
	Update(ctx context.Context, u *model.User) error

	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const userColumns = `id, email, name, password_hash, role, state, fine, fine_last_checked, modified, created_at`

func (r *repo) Create(ctx context.Context, u *model.User) error {
	const q = `
		INSERT INTO users(email, name, password_hash, role, state, fine, fine_last_checked, modified)
		VALUES ($1,$2,$3,$4,$5,0,now(),now())
		RETURNING id, fine, fine_last_checked, modified, created_at`
	return r.db.QueryRowContext(ctx, q,
		u.Email, u.Name, u.PasswordHash, u.Role, u.State,
	).Scan(&u.ID, &u.Fine, &u.FineLastChecked, &u.Modified, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

func (r *repo) Read(ctx context.Context, id int64) (*model.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) GetAll(ctx context.Context) ([]model.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.State,
			&u.Fine, &u.FineLastChecked, &u.Modified, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repo) Update(ctx context.Context, u *model.User) error {
	const q = `
		UPDATE users
		SET state = $2,
			fine = $3,
			fine_last_checked = $4,
			modified = $5
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, u.ID, u.State, u.Fine, u.FineLastChecked, u.Modified)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) scanOne(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.State,
		&u.Fine, &u.FineLastChecked, &u.Modified, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
