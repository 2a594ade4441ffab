// Package client is the typed access layer a frontend uses against the book
// API. Reads are fail-soft (an error degrades to an empty, still renderable
// page); mutations are fail-loud and surface the server's verdict.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"library-manager/internal/core/model"
	"library-manager/internal/wire"
)

// ErrDecode marks a response whose body did not match the expected shape.
var ErrDecode = errors.New("unexpected response shape")

// RemoteError is a non-2xx verdict from the server, carrying whatever the
// error body said.
type RemoteError struct {
	StatusCode int
	Category   string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Category, e.Message)
}

type Client struct {
	baseURL string
	httpc   *http.Client
	log     *slog.Logger
}

// New creates a client rooted at baseURL, e.g. "http://localhost:8080/api/books".
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpClient,
		log:     logger,
	}
}

// List fetches one page of books. Transport failures, decode failures and
// unsuccessful envelopes all degrade to an empty page; they are logged, never
// raised, so the caller always has something to render.
func (c *Client) List(ctx context.Context, page, size int) model.Page[model.Book] {
	return c.getPage(ctx, c.baseURL+"?"+pagingQuery(page, size), page, size)
}

// Search has the same fail-soft contract as List.
func (c *Client) Search(ctx context.Context, query string, page, size int) model.Page[model.Book] {
	u := c.baseURL + "/search?query=" + url.QueryEscape(query) + "&" + pagingQuery(page, size)
	return c.getPage(ctx, u, page, size)
}

// Add creates a book and returns the server-assigned record.
func (c *Client) Add(ctx context.Context, b model.Book) (model.Book, error) {
	return c.sendBook(ctx, http.MethodPost, c.baseURL, b, http.StatusCreated)
}

// Update replaces the mutable fields of the book with the given id.
func (c *Client) Update(ctx context.Context, id int64, b model.Book) (model.Book, error) {
	return c.sendBook(ctx, http.MethodPut, c.baseURL+"/"+strconv.FormatInt(id, 10), b, http.StatusOK)
}

// Delete removes one book by id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(resp)
	}
	return nil
}

// DeleteMany deletes the given ids one by one, continuing past individual
// failures. It is deliberately not a transaction; the result partitions the
// input into succeeded and failed ids for the caller to report.
func (c *Client) DeleteMany(ctx context.Context, ids []int64) model.BulkDeleteResult {
	result := model.BulkDeleteResult{
		SucceededIDs: []int64{},
		FailedIDs:    []int64{},
	}
	for _, id := range ids {
		if err := c.Delete(ctx, id); err != nil {
			c.log.Warn("bulk delete: id failed", slog.Int64("id", id), slog.String("error", err.Error()))
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.SucceededIDs = append(result.SucceededIDs, id)
	}
	return result
}

func (c *Client) getPage(ctx context.Context, u string, page, size int) model.Page[model.Book] {
	empty := model.EmptyPage[model.Book](page, size)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.log.Warn("list books: bad request", slog.String("error", err.Error()))
		return empty
	}

	resp, err := c.do(req)
	if err != nil {
		c.log.Warn("list books: transport failure", slog.String("error", err.Error()))
		return empty
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("list books: unexpected status", slog.Int("status", resp.StatusCode))
		return empty
	}

	env, err := wire.DecodeEnvelope[model.Page[model.Book]](resp.Body)
	if err != nil {
		c.log.Warn("list books: decode failure", slog.String("error", err.Error()))
		return empty
	}

	// An unsuccessful or data-less envelope means "no data", not an error.
	pageData, ok := env.Payload()
	if !ok {
		return empty
	}
	if pageData.Content == nil {
		pageData.Content = []model.Book{}
	}
	return pageData
}

func (c *Client) sendBook(ctx context.Context, method, u string, b model.Book, wantStatus int) (model.Book, error) {
	body, err := wire.Marshal(b)
	if err != nil {
		return model.Book{}, fmt.Errorf("encode book: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return model.Book{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return model.Book{}, fmt.Errorf("send book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus && resp.StatusCode != http.StatusOK {
		return model.Book{}, c.remoteError(resp)
	}

	env, err := wire.DecodeEnvelope[model.Book](resp.Body)
	if err != nil {
		return model.Book{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	saved, ok := env.Payload()
	if !ok {
		return model.Book{}, fmt.Errorf("%w: success envelope without book data", ErrDecode)
	}
	return saved, nil
}

// do attaches a request id for log correlation and runs the request.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.httpc.Do(req)
}

func (c *Client) remoteError(resp *http.Response) error {
	remote := &RemoteError{StatusCode: resp.StatusCode}
	body, err := wire.DecodeError(io.LimitReader(resp.Body, maxBodyBytes))
	if err == nil {
		remote.Category = body.Error
		remote.Message = body.Message
	}
	return remote
}

const maxBodyBytes = 1 << 20

func pagingQuery(page, size int) string {
	return "page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)
}

var isbnDigitsRx = regexp.MustCompile(`^(\d{10}|\d{13})$`)

// CheckISBN is the client-side pre-filter: bare 10 or 13 digits after
// stripping spaces and hyphens. The server's grammar is the source of truth;
// this only exists to catch typos before a round trip.
func CheckISBN(isbn string) bool {
	s := strings.NewReplacer("-", "", " ", "").Replace(isbn)
	return isbnDigitsRx.MatchString(s)
}
