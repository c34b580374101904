// internal/httpserver/routes_scores.go
//
// HTTP routes for finished games.
//   - GET /scores/top  → best results of a day (?date=YYYY-MM-DD, ?mode=daily|classic)
//   - GET /scores/mine → the caller's recent results
//
// Results are written by the game end hook (server.go recordResult).

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/scramble/internal/daily"
	"github.com/robalobadob/scramble/internal/game"
)

// mountScores registers the /scores routes on a router that sets owners.
func (s *Server) mountScores(r chi.Router) {
	r.Route("/scores", func(r chi.Router) {
		r.Get("/top", s.handleTop)
		r.Get("/mine", s.handleMine)
	})
}

type topRow struct {
	Player string `json:"player"`
	Points int    `json:"points"`
	Words  int    `json:"words"`
}

// topRes is returned by /scores/top.
type topRes struct {
	Date string   `json:"date"`
	Mode string   `json:"mode"`
	Top  []topRow `json:"top"`
}

// handleTop returns the leaderboard of a date (default today) and mode
// (default daily). Guests are listed as "guest".
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	}
	mode := strings.ToLower(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = game.ModeDaily
	}
	rows, err := s.results.Leaderboard(r.Context(), mode, date, 20)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	names := map[string]string{}
	top := lo.Map(rows, func(row daily.LBRow, _ int) topRow {
		return topRow{Player: s.displayName(r, row.Owner, names), Points: row.Points, Words: row.Words}
	})
	_ = json.NewEncoder(w).Encode(topRes{Date: date, Mode: mode, Top: top})
}

// displayName resolves an owner key to a username, caching lookups in names.
func (s *Server) displayName(r *http.Request, owner string, names map[string]string) string {
	id, ok := userIDOf(owner)
	if !ok {
		return "guest"
	}
	if n, ok := names[id]; ok {
		return n
	}
	n := "guest"
	if u, err := s.users.ByID(r.Context(), id); err == nil {
		n = u.Username
	}
	names[id] = n
	return n
}

// handleMine returns the caller's last results, newest first.
func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	out, err := s.results.ForOwner(r.Context(), ownerFrom(r.Context()), 50)
	if err != nil {
		log.Error().Err(err).Msg("results for owner")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}
