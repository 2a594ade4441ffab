package adapter

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-manager/internal/core"
	"library-manager/internal/core/model"
	"library-manager/internal/wire"
)

func newTestRouter() http.Handler {
	svc := core.NewService(NewBookRepo())
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Mount("/api/books", h.Routes())
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBookEnvelope(t *testing.T, rec *httptest.ResponseRecorder) wire.Envelope[model.Book] {
	t.Helper()
	env, err := wire.DecodeEnvelope[model.Book](rec.Body)
	require.NoError(t, err)
	return env
}

func TestCreateBook(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/books/",
		`{"title":"Clean Code","author":"Robert C. Martin","isbn":"9780132350884","publishedDate":"2008-08-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeBookEnvelope(t, rec)
	book, ok := env.Payload()
	require.True(t, ok)
	assert.True(t, env.Success)
	assert.NotZero(t, book.ID)
	assert.Equal(t, model.StatusAvailable, book.Status)
	assert.Equal(t, "2008-08-01", book.PublishedDate.String())
	assert.False(t, env.Timestamp.IsZero())
}

func TestCreateBook_ValidationFails(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/books/",
		`{"title":"","author":"","isbn":"not-an-isbn"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	eb, err := wire.DecodeError(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Bad Request", eb.Error)
	assert.Equal(t, http.StatusBadRequest, eb.StatusCode)
	assert.Contains(t, eb.Message, "title")
	assert.Contains(t, eb.Message, "isbn")
}

func TestCreateBook_MalformedBody(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/books/", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBook_UnknownFieldRejected(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/books/",
		`{"title":"Clean Code","author":"Robert C. Martin","publisher":"Prentice Hall"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	eb, err := wire.DecodeError(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Bad Request", eb.Error)
}

func TestListBooks_PagingAndDefaults(t *testing.T) {
	router := newTestRouter()
	for i := 0; i < 5; i++ {
		rec := doRequest(t, router, http.MethodPost, "/api/books/",
			`{"title":"Book","author":"Author"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/books/?page=1&size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	env, err := wire.DecodeEnvelope[model.Page[model.Book]](rec.Body)
	require.NoError(t, err)
	page, ok := env.Payload()
	require.True(t, ok)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.PageNumber)

	// junk params fall back to defaults
	rec = doRequest(t, router, http.MethodGet, "/api/books/?page=abc&size=-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env, err = wire.DecodeEnvelope[model.Page[model.Book]](rec.Body)
	require.NoError(t, err)
	page, _ = env.Payload()
	assert.Equal(t, 0, page.PageNumber)
	assert.Equal(t, core.DefaultPageSize, page.PageSize)
}

func TestSearchBooks(t *testing.T) {
	router := newTestRouter()
	rec := doRequest(t, router, http.MethodPost, "/api/books/",
		`{"title":"Clean Code","author":"Robert C. Martin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(t, router, http.MethodPost, "/api/books/",
		`{"title":"The Go Programming Language","author":"Alan Donovan"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/books/search?query=CODE", "")
	require.Equal(t, http.StatusOK, rec.Code)

	env, err := wire.DecodeEnvelope[model.Page[model.Book]](rec.Body)
	require.NoError(t, err)
	page, ok := env.Payload()
	require.True(t, ok)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Clean Code", page.Content[0].Title)
}

func TestSearchBooks_BlankQueryRejected(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/api/books/search", "/api/books/search?query=%20%20"} {
		rec := doRequest(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestUpdateBook(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/books/",
		`{"title":"Clean Code","author":"Robert C. Martin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created, _ := decodeBookEnvelope(t, rec).Payload()

	rec = doRequest(t, router, http.MethodPut, "/api/books/1",
		`{"title":"Clean Code 2nd Ed","author":"Robert C. Martin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated, ok := decodeBookEnvelope(t, rec).Payload()
	require.True(t, ok)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Clean Code 2nd Ed", updated.Title)

	// the list now shows the new title at the same id
	rec = doRequest(t, router, http.MethodGet, "/api/books/", "")
	env, err := wire.DecodeEnvelope[model.Page[model.Book]](rec.Body)
	require.NoError(t, err)
	page, _ := env.Payload()
	require.Len(t, page.Content, 1)
	assert.Equal(t, created.ID, page.Content[0].ID)
	assert.Equal(t, "Clean Code 2nd Ed", page.Content[0].Title)
}

func TestUpdateBook_NotFound(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPut, "/api/books/42",
		`{"title":"T","author":"A"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	eb, err := wire.DecodeError(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Not Found", eb.Error)
	assert.Equal(t, http.StatusNotFound, eb.StatusCode)
}

func TestUpdateBook_InvalidID(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPut, "/api/books/abc",
		`{"title":"T","author":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteBook(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(t, router, http.MethodPost, "/api/books/",
		`{"title":"T","author":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/books/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"data"`)

	// gone from the listing, second delete is a 404
	rec = doRequest(t, router, http.MethodDelete, "/api/books/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
