package http

import (
	_ "embed"
	"net/http"
)

//go:embed static/index.html
var indexPage []byte

// handleIndex serves the dashboard page. Everything dynamic on it comes from
// the JSON API, so the markup ships as one embedded file.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage) //nolint:errcheck // best-effort response body
}
