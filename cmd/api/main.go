package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"library-manager/internal/adapter"
	"library-manager/internal/core"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		port = flag.String("port", getenv("PORT", "8080"), "server port")
		dsn  = flag.String("db-dsn", getenv("DB_DSN", ""), "PostgreSQL DSN; empty runs the in-memory store")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var repo core.BookRepository
	if *dsn != "" {
		db, err := openDB(*dsn)
		if err != nil {
			logger.Error("database connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connection pool established")
		repo = adapter.NewPostgresRepo(db)
	} else {
		logger.Info("no DSN configured, using in-memory store")
		repo = adapter.NewBookRepo()
	}

	svc := core.NewService(repo)
	h := adapter.NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(recoverPanic(logger))
	r.Use(rateLimit(logger))
	r.Use(requestLogger(logger))
	r.Mount("/api/books", h.Routes())

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      r,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	if err := serve(srv, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// serve runs the server until SIGINT/SIGTERM, then gives in-flight requests
// 20 seconds to finish.
func serve(srv *http.Server, logger *slog.Logger) error {
	shutdownErr := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		logger.Info("shutting down server", slog.String("signal", s.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	logger.Info("starting server", slog.String("address", srv.Addr))

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}

	logger.Info("server stopped", slog.String("address", srv.Addr))
	return nil
}

// openDB opens the pool and pings it so a bad DSN fails at startup, not on
// the first request.
func openDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
