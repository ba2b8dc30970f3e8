// internal/httpserver/server.go
//
// HTTP server wiring for the trivia board.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", POST /game/new (optionally the daily board).
//   - Session endpoints (token required): board snapshot, cell activation,
//     restart, delete, and an SSE event stream.
//
// Notes:
//   - Startups run in the background; clients follow progress through
//     GET /game/{id} or the event stream.
//   - The event stream is not wrapped in the timeout middleware so it can
//     stay open.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/daily"
	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/session"
	"github.com/robalobadob/jeopardy/internal/sse"
	"github.com/robalobadob/jeopardy/internal/store"
	"github.com/robalobadob/jeopardy/internal/trivia"
)

// Options configures a Server.
type Options struct {
	Session       session.Config
	Secret        string // HS256 key for session tokens
	ClientOrigin  string // CORS origin allowed with credentials
	SecureCookies bool
	DailySalt     string // keys the board of the day
	// NewSampler, if set, supplies each session's random source.
	NewSampler func() *game.Sampler
}

// Server bundles router, session store, trivia source and event broadcaster.
type Server struct {
	r     *chi.Mux
	store store.Store
	src   trivia.Source
	sse   *sse.Broadcaster
	opts  Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, src trivia.Source, opts Options) *Server {
	s := &Server{r: chi.NewRouter(), store: st, src: src, sse: sse.NewBroadcaster(), opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)         // add X-Request-ID
	s.r.Use(chimw.RealIP)            // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(jsonContentType)         // default JSON responses
	s.r.Use(cors(opts.ClientOrigin)) // credentials-friendly CORS

	timeout := chimw.Timeout(10 * time.Second) // bound handler time (not the event stream)

	// --- diagnostics ---
	s.r.With(timeout).Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"jeopardy-go","endpoints":["/health","POST /game/new","GET /game/{id}","POST /game/{id}/cell","POST /game/{id}/restart","GET /game/{id}/events"]}`))
	})
	s.r.With(timeout).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "sessions": s.store.Len()})
	})

	s.r.With(timeout).Post("/game/new", s.handleNewGame)

	// Session endpoints (token required)
	s.r.Route("/game/{id}", func(r chi.Router) {
		r.Use(s.requireSession())
		r.With(timeout).Get("/", s.handleSnapshot)
		r.With(timeout).Post("/cell", s.handleCell)
		r.With(timeout).Post("/restart", s.handleRestart)
		r.With(timeout).Delete("/", s.handleDelete)
		r.Get("/events", s.handleEvents)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "not_found", http.StatusNotFound)
	})

	return s
}

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

// Start serves HTTP on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is done. On shutdown event streams are
// closed and other requests get shutdownTimeout to complete.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{Handler: s.r, ReadHeaderTimeout: 10 * time.Second}
	hs.RegisterOnShutdown(s.sse.Close)

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down http server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

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

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// jsonError writes {"error": code} with the given status.
func jsonError(w http.ResponseWriter, code string, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new. The body is optional.
type newGameReq struct {
	Daily bool `json:"daily"` // board of the day: same seed for every daily game that date
}
type newGameRes struct {
	GameID string `json:"gameId"`
	Token  string `json:"token"`
	Date   string `json:"date,omitempty"`
}

// handleNewGame creates a session, issues its token and starts it in the background.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "bad_json", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	res := newGameRes{GameID: id}
	opts := []session.Option{
		session.WithPresenter(s.sse.Presenter(id)),
		session.WithLogger(log.With().Str("session", id).Logger()),
	}
	switch {
	case s.opts.NewSampler != nil:
		opts = append(opts, session.WithSampler(s.opts.NewSampler()))
	case req.Daily:
		now := time.Now()
		res.Date = daily.DateKey(now)
		opts = append(opts, session.WithSampler(daily.Sampler(now, s.opts.DailySalt)))
	}
	sess, err := session.New(s.opts.Session, s.src, opts...)
	if err != nil {
		log.Error().Err(err).Msg("create session")
		jsonError(w, "create_failed", http.StatusInternalServerError)
		return
	}
	if err := s.store.Save(r.Context(), id, sess); err != nil {
		log.Error().Err(err).Msg("save session")
		jsonError(w, "save_failed", http.StatusInternalServerError)
		return
	}
	tok, exp, err := s.signToken(id)
	if err != nil {
		jsonError(w, "sign_failed", http.StatusInternalServerError)
		return
	}
	if err := sess.Launch(context.Background(), s.started(id)); err != nil {
		log.Error().Err(err).Str("session", id).Msg("launch session")
		jsonError(w, "start_failed", http.StatusInternalServerError)
		return
	}
	s.setSessionCookie(w, tok, exp)
	res.Token = tok

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(res)
}

// started returns the completion callback for a background startup.
// Failures are logged by the controller and reported to the presenter.
func (s *Server) started(id string) func(error) {
	return func(err error) {
		if errors.Is(err, session.ErrStaleBoard) {
			log.Debug().Err(err).Str("session", id).Msg("start superseded")
		}
	}
}

// handleSnapshot returns state, error text and (when ready) the board.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(sessionFrom(r).Snapshot())
}

type cellReq struct {
	CategoryIndex *int   `json:"categoryIndex"`
	ClueIndex     *int   `json:"clueIndex"`
	Generation    uint64 `json:"generation"`
}

// handleCell advances one clue and returns the cell's new text.
func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	var req cellReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CategoryIndex == nil || req.ClueIndex == nil {
		jsonError(w, "bad_json", http.StatusBadRequest)
		return
	}
	res, err := sessionFrom(r).OnCellActivated(req.Generation, *req.CategoryIndex, *req.ClueIndex)
	switch {
	case err == nil:
		_ = json.NewEncoder(w).Encode(res)
	case errors.Is(err, game.ErrIndexOutOfRange):
		jsonError(w, "out_of_range", http.StatusNotFound)
	case errors.Is(err, session.ErrNotReady):
		jsonError(w, "not_ready", http.StatusConflict)
	case errors.Is(err, session.ErrStaleBoard):
		jsonError(w, "stale_board", http.StatusConflict)
	default:
		log.Error().Err(err).Msg("cell activation")
		jsonError(w, "internal", http.StatusInternalServerError)
	}
}

// handleRestart claims the loading gate and builds a new board in the
// background. 202 means this request's start is the one running.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := sessionFrom(r).Launch(context.Background(), s.started(id))
	if errors.Is(err, session.ErrAlreadyLoading) {
		jsonError(w, "already_loading", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleDelete drops the session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		jsonError(w, "delete_failed", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleEvents streams the session's notifications. The first event is the
// current snapshot, board included when ready.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(sessionFrom(r).Snapshot())
	if err != nil {
		jsonError(w, "internal", http.StatusInternalServerError)
		return
	}
	s.sse.Serve(w, r, chi.URLParam(r, "id"), &sse.Message{Event: sse.EventState, Data: data})
}
