// Package main implements a mock upstream catalog server for local
// development. It serves canned shows and episodes from a JSON fixture
// to simulate the catalog API and OAuth token endpoint without real
// credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type showFixture struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Publisher     string            `json:"publisher"`
	Description   string            `json:"description"`
	TotalEpisodes int               `json:"total_episodes"`
	Episodes      []json.RawMessage `json:"episodes"`
}

type catalogFixture struct {
	Shows []showFixture `json:"shows"`
}

type paging struct {
	Items []json.RawMessage `json:"items"`
	Next  string            `json:"next"`
	Total int               `json:"total"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/catalog.json", "path to catalog fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "shows", len(fixture.Shows))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", tokenHandler(logger))
	mux.HandleFunc("GET /v1/search", searchHandler(logger, fixture))
	mux.HandleFunc("GET /v1/shows/{id}", showHandler(logger, fixture))
	mux.HandleFunc("GET /v1/shows/{id}/episodes", episodesHandler(logger, fixture))
	mux.HandleFunc("GET /v1/episodes/{id}", episodeHandler(logger, fixture))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock catalog server", "addr", addr,
		"token_url", fmt.Sprintf("http://localhost%s/api/token", addr),
		"api_url", fmt.Sprintf("http://localhost%s/v1", addr),
	)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*catalogFixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fixture catalogFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &fixture, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func tokenHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Validate Basic Auth header is present (don't verify creds).
		if _, _, ok := r.BasicAuth(); !ok {
			logger.Warn("token request missing Basic Auth header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             "invalid_client",
				"error_description": "client authentication failed",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "mock-token-" + strconv.FormatInt(int64(os.Getpid()), 16),
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
		logger.Info("issued mock token")
	}
}

func parsePaging(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// page slices items and builds the next link the way the upstream API
// does: an absolute URL carrying the follow-up offset, empty on the
// last page.
func page(items []json.RawMessage, path string, query string, limit, offset int) paging {
	total := len(items)

	var window []json.RawMessage
	if offset < total {
		end := min(offset+limit, total)
		window = items[offset:end]
	}
	if window == nil {
		window = []json.RawMessage{}
	}

	next := ""
	if offset+limit < total {
		next = fmt.Sprintf("https://mock.local%s?q=%s&offset=%d&limit=%d",
			path, query, offset+limit, limit)
	}

	return paging{Items: window, Next: next, Total: total}
}

func showSummary(s *showFixture) map[string]any {
	return map[string]any{
		"id":             s.ID,
		"name":           s.Name,
		"publisher":      s.Publisher,
		"description":    s.Description,
		"total_episodes": len(s.Episodes),
		"images": []map[string]any{
			{"url": "https://mock.local/images/" + s.ID + ".jpg", "height": 640, "width": 640},
		},
	}
}

func searchHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(r.URL.Query().Get("q"))
		limit, offset := parsePaging(r, 20)

		var matched []json.RawMessage
		for i := range fixture.Shows {
			s := &fixture.Shows[i]
			if q == "" || strings.Contains(strings.ToLower(s.Name), q) ||
				strings.Contains(strings.ToLower(s.Publisher), q) {
				//nolint:errcheck,errchkjson // fixture-derived maps always marshal
				raw, _ := json.Marshal(showSummary(s))
				matched = append(matched, raw)
			}
		}

		result := page(matched, "/v1/search", r.URL.Query().Get("q"), limit, offset)
		writeJSON(w, http.StatusOK, map[string]any{"shows": result})
		logger.Info("search", "query", q, "matched", result.Total, "returned", len(result.Items))
	}
}

func findShow(fixture *catalogFixture, id string) *showFixture {
	for i := range fixture.Shows {
		if fixture.Shows[i].ID == id {
			return &fixture.Shows[i]
		}
	}
	return nil
}

func showHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := findShow(fixture, r.PathValue("id"))
		if s == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"status": 404, "message": "Non existing id"},
			})
			return
		}

		writeJSON(w, http.StatusOK, showSummary(s))
		logger.Info("show", "id", s.ID)
	}
}

func episodesHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := findShow(fixture, r.PathValue("id"))
		if s == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"status": 404, "message": "Non existing id"},
			})
			return
		}

		limit, offset := parsePaging(r, 50)
		result := page(s.Episodes, "/v1/shows/"+s.ID+"/episodes", "", limit, offset)
		writeJSON(w, http.StatusOK, result)
		logger.Info("episodes", "show", s.ID, "returned", len(result.Items), "offset", offset)
	}
}

func episodeHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	type episodeID struct {
		ID string `json:"id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		want := r.PathValue("id")
		for i := range fixture.Shows {
			for _, raw := range fixture.Shows[i].Episodes {
				var e episodeID
				//nolint:errcheck,gosec // fixture data is trusted
				json.Unmarshal(raw, &e)
				if e.ID == want {
					w.Header().Set("Content-Type", "application/json")
					//nolint:errcheck,gosec // best-effort write in mock server
					w.Write(raw)
					logger.Info("episode", "id", want)
					return
				}
			}
		}

		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"status": 404, "message": "Non existing id"},
		})
	}
}
