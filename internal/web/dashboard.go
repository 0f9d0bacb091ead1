// Package web serves the scan progress dashboard
package web

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// DashboardHandler serves a page that follows scan events on wsPath
func DashboardHandler(wsPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		data := struct {
			WSPath   string
			ClientID string
		}{
			WSPath:   wsPath,
			ClientID: r.URL.Query().Get("client_id"),
		}
		if err := dashboardTmpl.Execute(w, data); err != nil {
			http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		}
	}
}
