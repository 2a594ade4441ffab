package core

import (
	"context"
	"fmt"
	"math"

	"library-manager/internal/core/model"
	"library-manager/internal/validator"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	maxFieldLen = 255
)

// BookRepository is the persistence port implemented by the in-memory and
// PostgreSQL adapters. Pages are 0-indexed and sorted by updatedAt descending.
type BookRepository interface {
	List(ctx context.Context, page, size int) (model.Page[model.Book], error)
	Search(ctx context.Context, query string, page, size int) (model.Page[model.Book], error)
	Insert(ctx context.Context, b model.Book) (model.Book, error)
	Update(ctx context.Context, id int64, b model.Book) (model.Book, error)
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	Repo BookRepository
}

func NewService(repo BookRepository) *Service {
	return &Service{Repo: repo}
}

// CreateBook validates the payload, defaults the status and persists the
// record. The returned book carries the server-assigned id and timestamps.
func (s *Service) CreateBook(ctx context.Context, b model.Book) (model.Book, error) {
	if err := validateBook(b); err != nil {
		return model.Book{}, err
	}
	if b.Status == "" {
		b.Status = model.StatusAvailable
	}
	created, err := s.Repo.Insert(ctx, b)
	if err != nil {
		return model.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return created, nil
}

func (s *Service) ListBooks(ctx context.Context, page, size int) (model.Page[model.Book], error) {
	page, size = clampPaging(page, size)
	return s.Repo.List(ctx, page, size)
}

// SearchBooks matches the query as a case-insensitive substring of title or
// author. Blank-query rejection is the HTTP layer's job, not the store's.
func (s *Service) SearchBooks(ctx context.Context, query string, page, size int) (model.Page[model.Book], error) {
	page, size = clampPaging(page, size)
	return s.Repo.Search(ctx, query, page, size)
}

// UpdateBook overwrites title/author/isbn/publishedDate of an existing record.
// Status only changes when the payload explicitly carries one; id and the
// original creation timestamp are preserved by the repository.
func (s *Service) UpdateBook(ctx context.Context, id int64, b model.Book) (model.Book, error) {
	if err := validateBook(b); err != nil {
		return model.Book{}, err
	}
	return s.Repo.Update(ctx, id, b)
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	exists, err := s.Repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return model.ErrNotFound
	}
	return s.Repo.Delete(ctx, id)
}

func validateBook(b model.Book) error {
	v := validator.New()
	v.Check(validator.NotBlank(b.Title), "title", "must not be blank")
	v.Check(validator.MaxChars(b.Title, maxFieldLen), "title", "must be at most 255 characters")
	v.Check(validator.NotBlank(b.Author), "author", "must not be blank")
	v.Check(validator.MaxChars(b.Author, maxFieldLen), "author", "must be at most 255 characters")
	if b.ISBN != nil && *b.ISBN != "" {
		v.Check(validator.ValidISBN(*b.ISBN), "isbn", "must be a valid ISBN-10 or ISBN-13")
	}
	if b.PublishedDate != nil {
		v.Check(!b.PublishedDate.After(model.Today().Time), "publishedDate", "must not be in the future")
	}
	if b.Status != "" {
		v.Check(b.Status == model.StatusAvailable || b.Status == model.StatusBorrowed,
			"status", `must be "Available" or "Borrowed"`)
	}
	if !v.Valid() {
		return fmt.Errorf("%w: %s", model.ErrValidation, v.Summary())
	}
	return nil
}

func clampPaging(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	// keeps page*size well inside int64 for any permitted size
	if page > math.MaxInt32 {
		page = math.MaxInt32
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
