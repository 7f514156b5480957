// Package sandbox is an in-memory stand-in for the hosted learning
// service. It serves the same REST surface the client's api and
// identity packages speak, grades attempts with the service's
// non-AI scoring rules, and keeps all state in the process, so the
// full practice flow can run offline.
package sandbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/elysian-app/elysian/internal/model"
)

const defaultSecret = "elysian-sandbox-dev-secret"

// Options configures a sandbox server.
type Options struct {
	// Secret signs the sandbox's bearer tokens. Empty picks a fixed
	// development secret.
	Secret string
	// Assistant backs conversation practice. Nil runs the offline
	// assistant with canned replies.
	Assistant *Assistant
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Server holds the sandbox's state and handlers.
type Server struct {
	state     *state
	auth      *authority
	assistant *Assistant
}

// New builds a sandbox server.
func New(opts Options) *Server {
	secret := opts.Secret
	if secret == "" {
		secret = defaultSecret
	}
	assistant := opts.Assistant
	if assistant == nil {
		assistant = &Assistant{}
	}
	return &Server{
		state:     newState(opts.Now),
		auth:      newAuthority(secret),
		assistant: assistant,
	}
}

// Handler assembles the router: the identity provider surface under
// /identity, the learning API under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)

	r.Post("/identity/v1/accounts:signUp", s.handleSignUp)
	r.Post("/identity/v1/accounts:signInWithPassword", s.handleSignIn)
	r.Post("/identity/v1/accounts:sendOobCode", s.handleSendOobCode)
	r.Post("/identity/v1/accounts:delete", s.handleDeleteAccount)
	r.Post("/identity/v1/token", s.handleToken)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", s.handleAPIRoot)
		api.Get("/health", s.handleHealth)

		api.Group(func(pr chi.Router) {
			pr.Use(s.identify)
			pr.Get("/user/profile", s.handleProfile)
			pr.Get("/dashboard", s.handleDashboard)
			pr.Get("/speak/exercise", s.handleSpeakExercise)
			pr.Post("/speak/submit", s.handleSpeakSubmit)
			pr.Get("/listen/challenge", s.handleListenChallenge)
			pr.Post("/listen/submit", s.handleListenSubmit)
			pr.Get("/read/library", s.handleReadLibrary)
			pr.Get("/read/article/{articleID}", s.handleReadArticle)
			pr.Post("/read/submit", s.handleReadSubmit)
			pr.Get("/learn/today", s.handleTodayLesson)
			pr.Post("/learn/submit_answer", s.handleSubmitAnswer)
			pr.Post("/conversations/start", s.handleStartConversation)
			pr.Post("/conversations/message", s.handleMessage)
		})
	})

	return r
}

// ListenAndServe runs the sandbox until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type ctxKey int

const userKey ctxKey = iota

// identify resolves the caller to a learner id. There is no rejection
// path; unauthenticated callers share the demo account.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.auth.resolve(r.Header.Get("Authorization"))
		ctx := context.WithValue(r.Context(), userKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	if id, ok := r.Context().Value(userKey).(string); ok && id != "" {
		return id
	}
	return demoUserID
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to Elysian - Your AI English Learning Platform",
	})
}

func (s *Server) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Elysian API - All endpoints are working",
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ai := "fallback_mode"
	if s.assistant.Available() {
		ai = "available"
	}
	respondJSON(w, http.StatusOK, model.Health{
		Status:    "healthy",
		Timestamp: s.state.now().UTC().Format(time.RFC3339),
		Database:  "in_memory",
		AI:        ai,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.state.profile(userID(r)))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError writes the API error envelope.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func pick(options []string) string {
	return options[rand.IntN(len(options))]
}

func weightedKind(weights [3]float64) string {
	kinds := [3]string{"word", "sentence", "shadowing"}
	r := rand.Float64() * (weights[0] + weights[1] + weights[2])
	for i, w := range weights {
		if r < w {
			return kinds[i]
		}
		r -= w
	}
	return kinds[2]
}
