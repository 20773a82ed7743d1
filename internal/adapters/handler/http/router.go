package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
}

func NewHandler(pollHandler *PollHandler, voteHandler *VoteHandler, verifier ports.IdentityVerifier, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	authenticated := Authenticate(verifier)

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Route("/polls", func(r chi.Router) {
			r.With(authenticated).Post("/", pollHandler.CreatePoll)
			r.With(authenticated).Get("/mine", pollHandler.ListMyPolls)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", pollHandler.GetPoll)
				r.Get("/results", pollHandler.GetResults)

				r.Group(func(r chi.Router) {
					r.Use(authenticated)
					r.Post("/close", pollHandler.ClosePoll)
					r.Post("/votes", voteHandler.VoteOnPoll)
					r.Get("/my-vote", voteHandler.GetMyVote)
				})
			})
		})
	})

	return r
}
