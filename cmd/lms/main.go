// Command lms is a terminal frontend for the book API. Presentation state is
// an immutable snapshot: every command produces the next snapshot, which is
// then rendered, so there are no shared mutable pagination fields.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"library-manager/internal/client"
	"library-manager/internal/core/model"
	"library-manager/pkg/http_client"
	"library-manager/pkg/util"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// viewState is one snapshot of what the terminal shows. Commands never
// mutate it in place; they return the successor state.
type viewState struct {
	page    int
	size    int
	query   string
	books   model.Page[model.Book]
	message string
}

func main() {
	baseURL := flag.String("base-url", getenv("LMS_BASE_URL", "http://localhost:8080/api/books"), "book API base URL")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cli := client.New(*baseURL, http_client.CreateHTTPClient(), logger)
	ctx := context.Background()

	state := refresh(ctx, cli, viewState{size: 10})
	render(state)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return
		}
		if line != "" {
			state = apply(ctx, cli, state, line)
			render(state)
		}
		fmt.Print("> ")
	}
}

// apply executes one command against the API and returns the next snapshot.
func apply(ctx context.Context, cli *client.Client, s viewState, line string) viewState {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "list":
		s.query = ""
		s.page = 0
		return refresh(ctx, cli, s)

	case "search":
		if rest == "" {
			s.message = "usage: search <query>"
			return s
		}
		s.query = rest
		s.page = 0
		return refresh(ctx, cli, s)

	case "next":
		if s.page+1 < s.books.TotalPages {
			s.page++
		}
		return refresh(ctx, cli, s)

	case "prev":
		if s.page > 0 {
			s.page--
		}
		return refresh(ctx, cli, s)

	case "add":
		book, err := parseBook(rest)
		if err != nil {
			s.message = err.Error()
			return s
		}
		added, err := cli.Add(ctx, book)
		if err != nil {
			s.message = "add failed: " + err.Error()
			return s
		}
		s.message = fmt.Sprintf("added book %d", added.ID)
		return refresh(ctx, cli, s)

	case "update":
		idStr, spec, _ := strings.Cut(rest, " ")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			s.message = "usage: update <id> <title>|<author>|[isbn]|[yyyy-mm-dd]"
			return s
		}
		book, err := parseBook(spec)
		if err != nil {
			s.message = err.Error()
			return s
		}
		if _, err := cli.Update(ctx, id, book); err != nil {
			s.message = "update failed: " + err.Error()
			return s
		}
		s.message = fmt.Sprintf("updated book %d", id)
		return refresh(ctx, cli, s)

	case "rm":
		ids, err := parseIDs(rest)
		if err != nil {
			s.message = err.Error()
			return s
		}
		result := cli.DeleteMany(ctx, ids)
		s.message = fmt.Sprintf("deleted %d, failed %d", len(result.SucceededIDs), len(result.FailedIDs))
		return refresh(ctx, cli, s)

	default:
		s.message = "commands: list, search <q>, next, prev, add <spec>, update <id> <spec>, rm <id...>, quit"
		return s
	}
}

func refresh(ctx context.Context, cli *client.Client, s viewState) viewState {
	if s.query != "" {
		s.books = cli.Search(ctx, s.query, s.page, s.size)
	} else {
		s.books = cli.List(ctx, s.page, s.size)
	}
	return s
}

func render(s viewState) {
	if s.message != "" {
		fmt.Println(s.message)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tISBN\tPUBLISHED\tSTATUS")
	for _, b := range s.books.Content {
		isbn, published := "-", "-"
		if b.ISBN != nil {
			isbn = *b.ISBN
		}
		if b.PublishedDate != nil {
			published = b.PublishedDate.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, isbn, published, b.Status)
	}
	tw.Flush()
	fmt.Printf("page %d/%d, %d books total\n", s.books.PageNumber+1, max(s.books.TotalPages, 1), s.books.TotalElements)
}

// parseBook reads "title|author|isbn|yyyy-mm-dd"; isbn and date are optional.
func parseBook(spec string) (model.Book, error) {
	parts := strings.Split(spec, "|")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return model.Book{}, fmt.Errorf("book spec is <title>|<author>|[isbn]|[yyyy-mm-dd]")
	}
	b := model.Book{
		Title:  strings.TrimSpace(parts[0]),
		Author: strings.TrimSpace(parts[1]),
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		isbn := strings.TrimSpace(parts[2])
		if !client.CheckISBN(isbn) {
			return model.Book{}, fmt.Errorf("isbn must be 10 or 13 digits")
		}
		b.ISBN = util.GetPtr(isbn)
	}
	if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
		d, err := model.ParseDate(strings.TrimSpace(parts[3]))
		if err != nil {
			return model.Book{}, err
		}
		b.PublishedDate = util.GetPtr(d)
	}
	return b, nil
}

func parseIDs(rest string) ([]int64, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, fmt.Errorf("usage: rm <id> [<id>...]")
	}
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
