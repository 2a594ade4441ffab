package http_client

import (
	"net"
	"net/http"
	"time"
)

// CreateHTTPClient returns a client tuned for the chatty request pattern of
// an interactive catalog frontend: pooled connections, short dial timeout,
// and a hard per-call deadline so a dead server never hangs the UI thread.
func CreateHTTPClient() *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          20,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       30 * time.Second,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: tr,
	}
}
