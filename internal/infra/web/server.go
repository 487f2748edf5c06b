package web

import (
	"context"
	"net/http"
	"time"

	"telegram-chat-bridge/internal/infra/logging"
	"telegram-chat-bridge/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RateLimiter is the slice of the redis limiter the web layer needs.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server owns the HTTP surface. All state it touches lives behind the
// injected use cases; the handlers themselves are stateless.
type Server struct {
	accounts   usecase.AccountUseCase
	pairing    usecase.PairingUseCase
	relay      usecase.RelayUseCase
	auth       *AuthManager
	limiter    RateLimiter
	tr         usecase.Translator
	loginLimit int
	log        *zerolog.Logger
}

func NewServer(
	accounts usecase.AccountUseCase,
	pairing usecase.PairingUseCase,
	relay usecase.RelayUseCase,
	auth *AuthManager,
	limiter RateLimiter,
	tr usecase.Translator,
	loginLimit int,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		accounts:   accounts,
		pairing:    pairing,
		relay:      relay,
		auth:       auth,
		limiter:    limiter,
		tr:         tr,
		loginLimit: loginLimit,
		log:        logger,
	}
}

// Router builds the chi router with the full API surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.registerHandler)
		r.Post("/login", s.loginHandler)
		r.Post("/get_chat_id", s.bindHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/logout", s.logoutHandler)
			r.Get("/me", s.meHandler)
			r.Get("/get_token", s.tokenHandler)
			r.Post("/message", s.messageHandler)
			r.Get("/history", s.historyHandler)
		})
	})

	return r
}

// requireAuth resolves the session and passes the acting user down via the
// request context; unauthenticated calls stop here.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, s.tr.T("invalid_credentials"))
			return
		}
		ctx := withActingUser(r.Context(), claims.UserID)
		// Stamp the ids used by logging.With so use-case log lines below this
		// point carry the acting user and request id.
		ctx = logging.WithUserID(ctx, claims.UserID)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logging.WithTraceID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
