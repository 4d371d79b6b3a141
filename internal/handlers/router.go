package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tuttifrutti/internal/config"
	localMiddleware "tuttifrutti/internal/middleware"
)

// RouterOptions allows customization of router setup for tests.
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
}

// SetupRouter creates the bridge router with all routes and middleware. The
// SSE endpoint is mounted outside the request timeout group; everything
// else gets the usual 60 second cap.
func SetupRouter(h *Handler, cfg *config.Config, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}

	r := chi.NewRouter()

	if !opts.DisableRequestLogger {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(localMiddleware.RequestSizeLimiter(cfg.Bridge.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	if !opts.DisableRateLimiting {
		rateLimiter := localMiddleware.NewRateLimiter(cfg.Bridge.RateLimit, cfg.Bridge.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
	}

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	// Long-lived stream, no timeout.
	r.Get("/sse/events", ValidateStreamRequest(h.Stream))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Identity and preferences
		r.Get("/api/profile", h.Profile)
		r.Post("/api/profile", h.UpdateProfile)

		// Room lifecycle
		r.Post("/api/room", h.CreateRoom)
		r.Get("/api/room", h.CurrentRoom)
		r.Post("/api/room/{code}/join", h.JoinRoom)
		r.Post("/api/room/leave", h.LeaveRoom)
		r.Delete("/api/room", h.DeleteRoom)
		r.Get("/api/room/qr", h.RoomQR)

		// Round control
		r.Post("/api/room/start", h.StartGame)
		r.Post("/api/room/stop", h.StopGame)
		r.Post("/api/room/shuffle", h.ShuffleCategories)
		r.Post("/api/room/next", h.NextRound)
		r.Post("/api/room/reset", h.ResetRoom)

		// Play and voting
		r.Post("/api/answer", h.SetAnswer)
		r.Post("/api/vote", h.CastVote)
		r.Post("/api/vote/submit", h.SubmitVotes)
		r.Post("/api/vote/extend", h.ExtendVote)
	})

	// Health check endpoints (no auth required)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
