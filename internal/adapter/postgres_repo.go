package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"

	"library-manager/internal/core/model"
)

const booksTable = "books"

var pgDialect = goqu.Dialect("postgres")

var bookColumns = []any{
	"id", "title", "author", "isbn", "published_date", "status", "created_at", "updated_at",
}

// PostgresRepo is the durable repository implementation. Queries are built
// with goqu and executed through sqlx over lib/pq. Each single-record
// operation relies on the database for atomicity.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

type bookRow struct {
	ID            int64          `db:"id"`
	Title         string         `db:"title"`
	Author        string         `db:"author"`
	ISBN          sql.NullString `db:"isbn"`
	PublishedDate sql.NullTime   `db:"published_date"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *PostgresRepo) List(ctx context.Context, page, size int) (model.Page[model.Book], error) {
	return r.queryPage(ctx, "", page, size)
}

func (r *PostgresRepo) Search(ctx context.Context, query string, page, size int) (model.Page[model.Book], error) {
	return r.queryPage(ctx, query, page, size)
}

// queryPage runs the count and the paged select; an empty query means no
// filter. A page past the end just comes back with empty content.
func (r *PostgresRepo) queryPage(ctx context.Context, query string, page, size int) (model.Page[model.Book], error) {
	countSQL, countArgs, err := buildCountSQL(query)
	if err != nil {
		return model.Page[model.Book]{}, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return model.Page[model.Book]{}, fmt.Errorf("count books: %w", err)
	}

	selectSQL, selectArgs, err := buildPageSQL(query, page, size)
	if err != nil {
		return model.Page[model.Book]{}, fmt.Errorf("build select query: %w", err)
	}

	var rows []bookRow
	if err := r.db.SelectContext(ctx, &rows, selectSQL, selectArgs...); err != nil {
		return model.Page[model.Book]{}, fmt.Errorf("select books: %w", err)
	}

	books := make([]model.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toBook())
	}
	return model.NewPage(books, total, page, size), nil
}

func (r *PostgresRepo) Insert(ctx context.Context, b model.Book) (model.Book, error) {
	insertSQL, args, err := buildInsertSQL(b, time.Now().UTC())
	if err != nil {
		return model.Book{}, fmt.Errorf("build insert query: %w", err)
	}

	var row bookRow
	if err := r.db.GetContext(ctx, &row, insertSQL, args...); err != nil {
		return model.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return row.toBook(), nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, b model.Book) (model.Book, error) {
	updateSQL, args, err := buildUpdateSQL(id, b, time.Now().UTC())
	if err != nil {
		return model.Book{}, fmt.Errorf("build update query: %w", err)
	}

	var row bookRow
	if err := r.db.GetContext(ctx, &row, updateSQL, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, model.ErrNotFound
		}
		return model.Book{}, fmt.Errorf("update book: %w", err)
	}
	return row.toBook(), nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	deleteSQL, args, err := buildDeleteSQL(id)
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, deleteSQL, args...)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check book exists: %w", err)
	}
	return exists, nil
}

func buildCountSQL(query string) (string, []any, error) {
	ds := pgDialect.From(booksTable).Prepared(true).Select(goqu.COUNT(goqu.Star()))
	if query != "" {
		ds = ds.Where(searchExpression(query))
	}
	return ds.ToSQL()
}

func buildPageSQL(query string, page, size int) (string, []any, error) {
	ds := pgDialect.From(booksTable).Prepared(true).
		Select(bookColumns...).
		Order(goqu.I("updated_at").Desc(), goqu.I("id").Desc()).
		Limit(uint(size)).
		Offset(pageOffset(page, size))
	if query != "" {
		ds = ds.Where(searchExpression(query))
	}
	return ds.ToSQL()
}

func buildInsertSQL(b model.Book, now time.Time) (string, []any, error) {
	return pgDialect.Insert(booksTable).Prepared(true).
		Rows(goqu.Record{
			"title":          b.Title,
			"author":         b.Author,
			"isbn":           isbnValue(b.ISBN),
			"published_date": dateValue(b.PublishedDate),
			"status":         b.Status,
			"created_at":     now,
			"updated_at":     now,
		}).
		Returning(bookColumns...).
		ToSQL()
}

// buildUpdateSQL overwrites the mutable fields and refreshes updated_at.
// The status column is only touched when the payload carries one; created_at
// is never listed, so the original creation timestamp survives.
func buildUpdateSQL(id int64, b model.Book, now time.Time) (string, []any, error) {
	record := goqu.Record{
		"title":          b.Title,
		"author":         b.Author,
		"isbn":           isbnValue(b.ISBN),
		"published_date": dateValue(b.PublishedDate),
		"updated_at":     now,
	}
	if b.Status != "" {
		record["status"] = b.Status
	}
	return pgDialect.Update(booksTable).Prepared(true).
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Returning(bookColumns...).
		ToSQL()
}

func buildDeleteSQL(id int64) (string, []any, error) {
	return pgDialect.Delete(booksTable).Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
}

// pageOffset computes page*size without overflowing. Anything past
// MaxInt32 rows is saturated; the query then returns the empty page the
// contract requires for past-the-end pages.
func pageOffset(page, size int) uint {
	if page <= 0 || size <= 0 {
		return 0
	}
	if page > math.MaxInt32/size {
		return math.MaxInt32
	}
	return uint(page * size)
}

// searchExpression matches the query as a case-insensitive substring of
// title or author, with LIKE metacharacters escaped.
func searchExpression(query string) goqu.Expression {
	pattern := "%" + escapeLike(query) + "%"
	return goqu.Or(
		goqu.I("title").ILike(pattern),
		goqu.I("author").ILike(pattern),
	)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isbnValue(isbn *string) any {
	if isbn == nil || *isbn == "" {
		return nil
	}
	return *isbn
}

func dateValue(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

func (row bookRow) toBook() model.Book {
	b := model.Book{
		ID:        row.ID,
		Title:     row.Title,
		Author:    row.Author,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.ISBN.Valid {
		isbn := row.ISBN.String
		b.ISBN = &isbn
	}
	if row.PublishedDate.Valid {
		t := row.PublishedDate.Time
		d := model.NewDate(t.Year(), t.Month(), t.Day())
		b.PublishedDate = &d
	}
	return b
}
