package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/VetalSh/library/model"
	userrepo "github.com/VetalSh/library/repository/user"
	"github.com/VetalSh/library/util/hash"
	jwtutil "github.com/VetalSh/library/util/jwt"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrUserBlocked  = errors.New("user is blocked")
	ErrTooManyTries = errors.New("too many failed login attempts")
)

// maxLoginAttempts failed logins in a row lock the email out until the
// session counter expires.
const maxLoginAttempts = 5

const tokenTTLHours = 24

// Attempts tracks failed logins per email between requests.
type Attempts interface {
	IncrementLoginAttempts(ctx context.Context, email string) (int, error)
	ResetLoginAttempts(ctx context.Context, email string) error
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq, secret string) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq, secret string) (*model.User, string, error)
}

type service struct {
	ur       userrepo.Repo
	attempts Attempts
}

func New(ur userrepo.Repo, attempts Attempts) Service {
	return &service{ur: ur, attempts: attempts}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq, secret string) (*model.User, string, error) {
	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		State:        model.UserValid,
		// fine starts at zero, watermark at creation time (repo defaults)
	}

	if err := s.ur.Create(ctx, u); err != nil {
		if isDuplicateEmail(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(secret, u.ID, string(u.Role), tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq, secret string) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.ur.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", s.failed(ctx, email)
		}
		return nil, "", err
	}

	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", s.failed(ctx, email)
	}
	if u.State != model.UserValid {
		return nil, "", ErrUserBlocked
	}

	_ = s.attempts.ResetLoginAttempts(ctx, email)

	token, err := jwtutil.Issue(secret, u.ID, string(u.Role), tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) failed(ctx context.Context, email string) error {
	n, err := s.attempts.IncrementLoginAttempts(ctx, email)
	if err == nil && n >= maxLoginAttempts {
		return ErrTooManyTries
	}
	return ErrInvalidCreds
}

func isDuplicateEmail(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
