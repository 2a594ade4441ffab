package adapter

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"library-manager/internal/core/model"
)

// BookRepo is an in-memory implementation of the repository port. It backs
// unit tests and the no-DSN development mode; the PostgreSQL adapter is the
// durable one.
type BookRepo struct {
	mu     sync.RWMutex
	byID   map[int64]model.Book
	nextID int64
}

func NewBookRepo() *BookRepo {
	return &BookRepo{byID: make(map[int64]model.Book)}
}

// List returns one page of books sorted by updatedAt descending.
// The flow is:
//
//  1. Snapshot all books from the store (thread-safe copy).
//  2. Sort by updatedAt descending, newest id first on ties.
//  3. Slice out the requested page.
func (r *BookRepo) List(_ context.Context, page, size int) (model.Page[model.Book], error) {
	return r.pageOf(r.snapshot(), page, size), nil
}

// Search filters on a case-insensitive substring of title or author, then
// pages exactly like List.
func (r *BookRepo) Search(_ context.Context, query string, page, size int) (model.Page[model.Book], error) {
	needle := strings.ToLower(query)
	all := r.snapshot()
	out := all[:0]
	for _, b := range all {
		if strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) {
			out = append(out, b)
		}
	}
	return r.pageOf(out, page, size), nil
}

func (r *BookRepo) Insert(_ context.Context, b model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	b.ID = r.nextID
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.byID[b.ID] = copyBook(b)
	return copyBook(b), nil
}

func (r *BookRepo) Update(_ context.Context, id int64, b model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return model.Book{}, model.ErrNotFound
	}

	existing.Title = b.Title
	existing.Author = b.Author
	existing.ISBN = b.ISBN
	existing.PublishedDate = b.PublishedDate
	if b.Status != "" {
		existing.Status = b.Status
	}
	existing.UpdatedAt = time.Now()
	r.byID[id] = copyBook(existing)
	return copyBook(existing), nil
}

func (r *BookRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *BookRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok, nil
}

// snapshot copies all books out of the map so sorting never holds the lock.
func (r *BookRepo) snapshot() []model.Book {
	r.mu.RLock()
	items := make([]model.Book, 0, len(r.byID))
	for _, b := range r.byID {
		items = append(items, copyBook(b))
	}
	r.mu.RUnlock()
	return items
}

func (r *BookRepo) pageOf(items []model.Book, page, size int) model.Page[model.Book] {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID > items[j].ID
	})

	total := len(items)
	// page*size can overflow for huge page numbers; any page past the end
	// clamps to an empty slice instead
	start := total
	if size > 0 && page <= total/size {
		start = page * size
	}
	end := start + size
	if end > total {
		end = total
	}
	paged := make([]model.Book, end-start)
	copy(paged, items[start:end])

	return model.NewPage(paged, int64(total), page, size)
}

func copyBook(b model.Book) model.Book {
	if b.ISBN != nil {
		isbn := *b.ISBN
		b.ISBN = &isbn
	}
	if b.PublishedDate != nil {
		d := *b.PublishedDate
		b.PublishedDate = &d
	}
	return b
}
