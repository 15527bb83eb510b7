package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the manager API and internal probes. Request
// timeouts live in the handler middleware chain; only the header read is
// bounded here so idle probe connections cannot pin a goroutine.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
