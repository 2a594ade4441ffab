package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"library-manager/internal/wire"
)

// recoverPanic turns a downstream panic into a clean 500 instead of a
// silently dropped connection.
func recoverPanic(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					w.Header().Set("Connection", "close")
					logger.Error("panic recovered", slog.String("error", fmt.Sprintf("%s", err)))
					wire.WriteError(w, http.StatusInternalServerError,
						"Internal Server Error", "An unexpected error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimit applies a per-IP token bucket (2 req/s, burst 4). Entries not
// seen for 3 minutes are evicted by a background sweep.
func rateLimit(logger *slog.Logger) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*limitedClient)
	)

	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				logger.Error("rate limit: bad remote addr", slog.String("addr", r.RemoteAddr))
				wire.WriteError(w, http.StatusInternalServerError,
					"Internal Server Error", "An unexpected error occurred")
				return
			}

			mu.Lock()
			c, found := clients[ip]
			if !found {
				c = &limitedClient{limiter: rate.NewLimiter(rate.Limit(2), 4)}
				clients[ip] = c
			}
			c.lastSeen = time.Now()
			allowed := c.limiter.Allow()
			mu.Unlock()

			if !allowed {
				wire.WriteError(w, http.StatusTooManyRequests,
					"Too Many Requests", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request with the correlation id the client
// sent, if any.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("request_id", r.Header.Get("X-Request-ID")),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
