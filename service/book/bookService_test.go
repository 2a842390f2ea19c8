// service/book/book_service_test.go
package booksvc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/VetalSh/library/model"
	booksvc "github.com/VetalSh/library/service/book"
)

type repoMock struct {
	createFn func(ctx context.Context, b *model.Book) error
	listFn   func(ctx context.Context) ([]model.Book, error)
	readFn   func(ctx context.Context, id int64) (*model.Book, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) error { return m.createFn(ctx, b) }
func (m *repoMock) List(ctx context.Context) ([]model.Book, error)  { return m.listFn(ctx) }
func (m *repoMock) Read(ctx context.Context, id int64) (*model.Book, error) {
	return m.readFn(ctx, id)
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	ctx := context.Background()

	if _, err := s.Create(ctx, "", "Herbert", 1965, 14, 3); err == nil {
		t.Fatal("expected error for empty title")
	}
	if _, err := s.Create(ctx, "Dune", "", 1965, 14, 3); err == nil {
		t.Fatal("expected error for empty author")
	}
	if _, err := s.Create(ctx, "Dune", "Herbert", 1965, 0, 3); err == nil {
		t.Fatal("expected error for non-positive keep period")
	}
	if _, err := s.Create(ctx, "Dune", "Herbert", 1965, 14, -1); err == nil {
		t.Fatal("expected error for negative stock")
	}
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) error {
			if b.Title != "Dune" || b.Author != "Herbert" || b.KeepPeriod != 14 {
				return errors.New("bad args")
			}
			b.ID = 42
			return nil
		},
	}
	s := booksvc.New(m)

	b, err := s.Create(context.Background(), "Dune", "Herbert", 1965, 14, 3)
	if err != nil || b.ID != 42 {
		t.Fatalf("got book=%v err=%v; want id 42, nil", b, err)
	}
}

func TestPassThroughs(t *testing.T) {
	m := &repoMock{
		listFn: func(ctx context.Context) ([]model.Book, error) { return nil, nil },
		readFn: func(ctx context.Context, id int64) (*model.Book, error) { return &model.Book{ID: id}, nil },
	}
	s := booksvc.New(m)

	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if b, err := s.Detail(context.Background(), 99); err != nil || b.ID != 99 {
		t.Fatalf("Detail got %v %v; want id 99, nil", b, err)
	}
}
