// Package httpserver constructs the API's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New binds the router to addr. Only the header read carries a timeout;
// graceful shutdown is owned by the caller's run group.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
