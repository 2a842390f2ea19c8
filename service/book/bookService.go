package booksvc

import (
	"context"
	"errors"

	"github.com/VetalSh/library/model"
)

var ErrBadInput = errors.New("bad input")

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Read(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
}

type Service interface {
	Create(ctx context.Context, title, author string, year int, keepPeriod, inStock int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, title, author string, year int, keepPeriod, inStock int64) (*model.Book, error) {
	if title == "" || author == "" || keepPeriod <= 0 || inStock < 0 {
		return nil, ErrBadInput
	}
	b := &model.Book{
		Title:      title,
		Author:     author,
		Year:       year,
		KeepPeriod: keepPeriod,
		InStock:    inStock,
	}
	if err := s.r.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return s.r.Read(ctx, id)
}
