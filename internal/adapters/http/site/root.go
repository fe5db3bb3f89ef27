// Package site serves the landing page of the TCD service.
package site

import (
	"context"
	"net/http"
)

// Register attaches the landing page and its assets to mux. Unknown paths
// below / get 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", http.FileServer(FS()))
}
