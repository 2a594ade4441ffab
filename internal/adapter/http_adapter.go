package adapter

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"library-manager/internal/core"
	"library-manager/internal/core/model"
	"library-manager/internal/wire"
)

const maxBodyBytes = 1 << 20 // 1 MB request body cap

// Handler exposes the book service over HTTP with the uniform envelope.
type Handler struct {
	Svc *core.Service
	log *slog.Logger
}

func NewHandler(svc *core.Service, logger *slog.Logger) *Handler {
	return &Handler{Svc: svc, log: logger}
}

// Routes returns the book resource router, mounted under /api/books.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.createBook)
	r.Get("/", h.listBooks)
	r.Get("/search", h.searchBooks)
	r.Put("/{id}", h.updateBook)
	r.Delete("/{id}", h.deleteBook)
	return r
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.readBook(w, r)
	if !ok {
		return
	}

	created, err := h.Svc.CreateBook(r.Context(), book)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.log.Info("book added", slog.Int64("id", created.ID))
	_ = wire.WriteJSON(w, http.StatusCreated, wire.Success("Book Added Successfully", created))
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	page := readInt(r, "page", 0)
	size := readInt(r, "size", core.DefaultPageSize)

	books, err := h.Svc.ListBooks(r.Context(), page, size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	_ = wire.WriteJSON(w, http.StatusOK, wire.Success("Books Retrieved Successfully", books))
}

func (h *Handler) searchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		wire.WriteError(w, http.StatusBadRequest, "Bad Request", "search query must not be blank")
		return
	}
	page := readInt(r, "page", 0)
	size := readInt(r, "size", core.DefaultPageSize)

	books, err := h.Svc.SearchBooks(r.Context(), query, page, size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	_ = wire.WriteJSON(w, http.StatusOK, wire.Success("Books Retrieved Successfully", books))
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readID(w, r)
	if !ok {
		return
	}
	book, ok := h.readBook(w, r)
	if !ok {
		return
	}

	updated, err := h.Svc.UpdateBook(r.Context(), id, book)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.log.Info("book updated", slog.Int64("id", id))
	_ = wire.WriteJSON(w, http.StatusOK, wire.Success("Book Updated Successfully", updated))
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readID(w, r)
	if !ok {
		return
	}

	if err := h.Svc.DeleteBook(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.log.Info("book deleted", slog.Int64("id", id))
	_ = wire.WriteJSON(w, http.StatusOK, wire.SuccessEmpty("Book Deleted Successfully"))
}

// readBook decodes a single JSON book from the request body, rejecting
// oversized bodies, unknown fields, and trailing garbage.
func (h *Handler) readBook(w http.ResponseWriter, r *http.Request) (model.Book, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	data, err := io.ReadAll(r.Body)
	if err != nil {
		wire.WriteError(w, http.StatusBadRequest, "Bad Request", "could not read request body")
		return model.Book{}, false
	}

	var book model.Book
	if err := wire.UnmarshalStrict(data, &book); err != nil {
		wire.WriteError(w, http.StatusBadRequest, "Bad Request", "request body must be a valid book")
		return model.Book{}, false
	}
	return book, true
}

func (h *Handler) readID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		wire.WriteError(w, http.StatusBadRequest, "Bad Request", "invalid id parameter")
		return 0, false
	}
	return id, true
}

// writeServiceError maps service errors to envelope failures. Unexpected
// errors are logged with full detail but the client only sees a generic
// message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		wire.WriteError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, model.ErrNotFound):
		wire.WriteError(w, http.StatusNotFound, "Not Found", "Book Not Found!")
	default:
		h.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.String("error", err.Error()),
		)
		wire.WriteError(w, http.StatusInternalServerError, "Internal Server Error",
			"An unexpected error occurred")
	}
}

func readInt(r *http.Request, key string, defaultValue int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
