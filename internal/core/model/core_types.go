package model

import (
	"errors"
	"math"
	"time"
)

// All core models live here together for simplicity.

const (
	StatusAvailable = "Available"
	StatusBorrowed  = "Borrowed"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// Book is the catalog record shared by server and client. ID is 0 until the
// server assigns one; CreatedAt/UpdatedAt are server-managed.
type Book struct {
	ID            int64     `json:"id,omitempty"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          *string   `json:"isbn,omitempty"`
	PublishedDate *Date     `json:"publishedDate,omitempty"`
	Status        string    `json:"status,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Page is a bounded slice of an ordered result set. PageNumber is 0-indexed.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
}

// NewPage builds a Page with the derived totalPages. Zero total elements
// always yields totalPages == 0; callers rely on this being uniform.
func NewPage[T any](content []T, total int64, page, size int) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if total > 0 && size > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(size)))
	}
	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		PageNumber:    page,
		PageSize:      size,
	}
}

// EmptyPage is the renderable zero result used on fail-soft read paths.
func EmptyPage[T any](page, size int) Page[T] {
	return NewPage[T](nil, 0, page, size)
}

// BulkDeleteResult reports the outcome of a sequential multi-delete.
// The operation is not atomic; both slices together cover every requested id.
type BulkDeleteResult struct {
	SucceededIDs []int64 `json:"succeededIds"`
	FailedIDs    []int64 `json:"failedIds"`
}
