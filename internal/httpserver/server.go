// internal/httpserver/server.go
//
// HTTP server wiring for the scramble game.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game endpoints: GET /game, POST /game/{start,input,guess,pass,reset}.
//   - Scores (routes_scores.go) and accounts (auth.go).
//   - One live *game.Game per session owner, resumed from its snapshot the
//     first time the owner is seen by this process.
//
// Notes:
//   - The owner of a request is the signed-in user, or else an anonymous
//     cookie that is set on first contact, so guests keep their session too.
//   - Transitions of one owner are serialized by the session mutex.
//   - Views never carry the current word while a round is being played.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scramble/internal/config"
	"github.com/robalobadob/scramble/internal/daily"
	"github.com/robalobadob/scramble/internal/game"
	"github.com/robalobadob/scramble/internal/store"
	"github.com/robalobadob/scramble/internal/words"
)

// slotPrefix is the storage key prefix of session snapshots.
const slotPrefix = "scrambleGame:"

// Deps are the collaborators of a Server.
type Deps struct {
	Config  config.Config
	Bank    *words.Bank
	KV      store.KV     // session snapshots
	Users   *store.Users // accounts
	Results *daily.Store // finished games
}

// Server bundles router, live sessions and storage.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	bank    *words.Bank
	kv      store.KV
	users   *store.Users
	results *daily.Store
	now     func() time.Time

	mu       sync.Mutex          // guards sessions
	sessions map[string]*session // keyed by owner
}

// session holds the live game of one owner.
type session struct {
	mu   sync.Mutex
	game *game.Game
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      d.Config,
		bank:     d.Bank,
		kv:       d.KV,
		users:    d.Users,
		results:  d.Results,
		now:      time.Now,
		sessions: make(map[string]*session),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"scramble-go","endpoints":["/health","/game","/scores/top","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"vocabulary": s.bank.Len()})
	})

	// Game + scores: guests are welcome, every request has an owner.
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOwner())
		r.Get("/game", s.handleView)
		r.Post("/game/start", s.handleStart)
		r.Post("/game/input", s.handleInput)
		r.Post("/game/guess", s.handleGuess)
		r.Post("/game/pass", s.handlePass)
		r.Post("/game/reset", s.handleReset)
		s.mountScores(r)
	})

	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// ------------------------------ sessions -----------------------------------

// lockSession returns the locked session of owner, resuming its snapshot
// when the owner is new to this process or its game was dropped. Callers
// must unlock it.
func (s *Server) lockSession(ctx context.Context, owner string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[owner]
	if !ok {
		sess = &session{}
		s.sessions[owner] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	if sess.game == nil {
		g := s.newGame(owner, game.ModeClassic, nil)
		resumed, err := g.Resume(ctx)
		if err != nil {
			sess.mu.Unlock()
			return nil, err
		}
		if resumed {
			log.Debug().Str("owner", owner).Msg("session resumed")
		}
		sess.game = g
	}
	return sess, nil
}

// newGame builds a game for owner mirrored in the owner's slot.
// A nil src keeps the system random source.
func (s *Server) newGame(owner, mode string, src words.Source) *game.Game {
	opts := []game.Option{
		game.WithPersister(store.NewSlot(s.kv, slotPrefix+owner)),
		game.WithMode(mode),
		game.OnEnd(s.recordResult(owner)),
	}
	if src != nil {
		opts = append(opts, game.WithSource(src))
	}
	return game.New(s.bank, opts...)
}

// recordResult stores finished games; failures are logged, never surfaced.
func (s *Server) recordResult(owner string) func(context.Context, game.Summary) {
	return func(ctx context.Context, sum game.Summary) {
		err := s.results.Insert(ctx, daily.Result{
			Owner:      owner,
			Mode:       sum.Mode,
			Points:     sum.Points,
			Strikes:    sum.Strikes,
			Passes:     sum.Passes,
			Words:      sum.Words,
			Reason:     string(sum.Reason),
			FinishedAt: s.now().UTC(),
		})
		if err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("record result")
		}
		if id, ok := userIDOf(owner); ok {
			if err := s.users.RecordGame(ctx, id, sum.Points); err != nil {
				log.Warn().Err(err).Str("user", id).Msg("bump stats")
			}
		}
	}
}

// ------------------------------ GAME ---------------------------------------

// view is what the page renders after every action.
type view struct {
	Phase      game.Phase `json:"phase"`
	Mode       string     `json:"mode"`
	Scrambled  string     `json:"scrambled,omitempty"`
	Input      string     `json:"input"`
	Points     int        `json:"points"`
	Strikes    int        `json:"strikes"`
	MaxStrikes int        `json:"maxStrikes"`
	Passes     int        `json:"passes"`
	Message    string     `json:"message"`
	Presented  int        `json:"presented"`
	Vocabulary int        `json:"vocabulary"`
	Answer     string     `json:"answer,omitempty"` // last word, once the game is over
}

func render(g *game.Game) view {
	snap := g.Snapshot()
	v := view{
		Phase:      snap.Phase,
		Mode:       snap.Mode,
		Input:      snap.PendingInput,
		Points:     snap.Points,
		Strikes:    snap.Strikes,
		MaxStrikes: game.MaxStrikes,
		Passes:     snap.Passes,
		Message:    snap.Message,
		Presented:  len(snap.UsedWords),
		Vocabulary: g.VocabularySize(),
	}
	switch snap.Phase {
	case game.PhasePlaying:
		v.Scrambled = snap.ScrambledWord
	case game.PhaseEnded:
		v.Answer = snap.CurrentWord
	}
	return v
}

// withGame runs fn on the locked game of the request owner and answers with
// the resulting view.
func (s *Server) withGame(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sess *session) error) {
	owner := ownerFrom(r.Context())
	sess, err := s.lockSession(r.Context(), owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("load session")
		writeError(w, http.StatusInternalServerError, "load_failed")
		return
	}
	defer sess.mu.Unlock()

	if fn != nil {
		err := fn(r.Context(), sess)
		if errors.Is(err, errAlreadyPlayed) {
			writeError(w, http.StatusConflict, "already_played")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("owner", owner).Msg("apply action")
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}
	}
	_ = json.NewEncoder(w).Encode(render(sess.game))
}

// decodeOptional decodes a JSON body into v; an empty body is allowed.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.withGame(w, r, nil)
}

type startReq struct {
	Mode string `json:"mode"` // "classic" (default) | "daily"
}

// handleStart replaces the owner's game with a fresh one and starts it.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	var src words.Source
	switch mode {
	case "", game.ModeClassic:
		mode = game.ModeClassic
	case game.ModeDaily:
		src = daily.Source(s.now(), s.cfg.DailySalt)
	default:
		writeError(w, http.StatusBadRequest, "unknown_mode")
		return
	}
	owner := ownerFrom(r.Context())
	s.withGame(w, r, func(ctx context.Context, sess *session) error {
		if mode == game.ModeDaily {
			if err := s.checkDaily(ctx, owner, sess.game); err != nil {
				return err
			}
		}
		s.abandon(ctx, owner, sess.game)
		sess.game = s.newGame(owner, mode, src)
		return sess.game.Start(ctx)
	})
}

// errAlreadyPlayed refuses a second daily attempt on the same day.
var errAlreadyPlayed = errors.New("daily already played")

// checkDaily allows one daily game per owner and day. A daily game still in
// progress counts as the attempt.
func (s *Server) checkDaily(ctx context.Context, owner string, g *game.Game) error {
	if snap := g.Snapshot(); snap.Phase == game.PhasePlaying && snap.Mode == game.ModeDaily {
		return errAlreadyPlayed
	}
	played, err := s.results.AlreadyPlayed(ctx, owner, daily.DateKey(s.now()))
	if err != nil {
		return err
	}
	if played {
		return errAlreadyPlayed
	}
	return nil
}

// abandon records a daily game that is being thrown away, so it still uses
// up the day's attempt.
func (s *Server) abandon(ctx context.Context, owner string, g *game.Game) {
	snap := g.Snapshot()
	if snap.Phase != game.PhasePlaying || snap.Mode != game.ModeDaily {
		return
	}
	s.recordResult(owner)(ctx, game.Summary{
		Mode:    snap.Mode,
		Points:  snap.Points,
		Strikes: snap.Strikes,
		Passes:  snap.Passes,
		Words:   len(snap.UsedWords),
		Reason:  game.EndAbandoned,
	})
}

type inputReq struct {
	Text string `json:"text"`
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.withGame(w, r, func(ctx context.Context, sess *session) error {
		return sess.game.SetInput(ctx, req.Text)
	})
}

type guessReq struct {
	Guess *string `json:"guess"` // nil: submit the pending input
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.withGame(w, r, func(ctx context.Context, sess *session) error {
		guess := sess.game.Snapshot().PendingInput
		if req.Guess != nil {
			guess = *req.Guess
		}
		return sess.game.SubmitGuess(ctx, guess)
	})
}

func (s *Server) handlePass(w http.ResponseWriter, r *http.Request) {
	s.withGame(w, r, func(ctx context.Context, sess *session) error {
		return sess.game.Pass(ctx)
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	s.withGame(w, r, func(ctx context.Context, sess *session) error {
		s.abandon(ctx, owner, sess.game)
		return sess.game.Reset(ctx)
	})
}
