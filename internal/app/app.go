// Package app wires configuration, stores, services and transport together
// for the commands in cmd/.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vncsmyrnk/pollvote/internal/adapters/cache/redis"
	"github.com/vncsmyrnk/pollvote/internal/adapters/event/kafka"
	handler "github.com/vncsmyrnk/pollvote/internal/adapters/handler/http"
	"github.com/vncsmyrnk/pollvote/internal/adapters/identity/token"
	"github.com/vncsmyrnk/pollvote/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/pollvote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/pollvote/internal/config"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
	"github.com/vncsmyrnk/pollvote/internal/core/services"
	"github.com/vncsmyrnk/pollvote/internal/metrics"
)

const metricsNamespace = "pollvote"

// Stores groups the repositories of one backing store.
type Stores struct {
	Polls ports.PollRepository
	Votes ports.VoteRepository
	Tally ports.TallyRepository
	Tx    ports.Transactor
}

func PostgresStores(db *sql.DB) Stores {
	return Stores{
		Polls: postgres.NewPollRepository(db),
		Votes: postgres.NewVoteRepository(db),
		Tally: postgres.NewTallyRepository(db),
		Tx:    postgres.NewTransactor(db),
	}
}

func MemoryStores(s *memory.Store) Stores {
	return Stores{
		Polls: memory.NewPollRepository(s),
		Votes: memory.NewVoteRepository(s),
		Tally: memory.NewTallyRepository(s),
		Tx:    s,
	}
}

type Services struct {
	Polls ports.PollService
	Votes ports.VoteService
	Tally ports.TallyService
}

func NewServices(stores Stores, publisher ports.PollEventPublisher, voteOpts ...services.VoteServiceOption) Services {
	tally := services.NewTallyService(stores.Polls, stores.Tally)
	return Services{
		Polls: services.NewPollService(stores.Polls, tally, publisher),
		Votes: services.NewVoteService(stores.Polls, stores.Votes, tally, stores.Tx, voteOpts...),
		Tally: tally,
	}
}

// OpenStores opens the store selected by cfg. The returned close function
// releases it.
func OpenStores(ctx context.Context, cfg config.Config) (Stores, func() error, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return MemoryStores(memory.NewStore()), func() error { return nil }, nil
	}

	dsn := postgres.ConnString(cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	db, err := postgres.Open(ctx, dsn, postgres.Options{
		MaxOpenConns:   cfg.DB.MaxOpenConns,
		ConnectTimeout: cfg.DB.ConnectTimeout,
	})
	if err != nil {
		return Stores{}, nil, err
	}
	return PostgresStores(db), db.Close, nil
}

// Server holds the HTTP handler and everything that must be released on
// shutdown.
type Server struct {
	Handler http.Handler
	closers []func() error
}

func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	srv := &Server{}

	stores, closeStores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, closeStores)

	verifier, err := token.NewHMACVerifier(cfg.JWTSecret)
	if err != nil {
		srv.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	voteOpts := []services.VoteServiceOption{
		services.WithVoteMetrics(metrics.NewVoteMetrics(reg, metricsNamespace)),
	}

	if cfg.RedisURL != "" {
		cache, err := redis.NewVoterCache(ctx, cfg.RedisURL, cfg.VoterCacheTTL)
		if err != nil {
			srv.Close()
			return nil, err
		}
		srv.closers = append(srv.closers, cache.Close)
		voteOpts = append(voteOpts, services.WithVoterCache(cache))
	}

	var publisher ports.PollEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		srv.closers = append(srv.closers, p.Close)
		publisher = p
	} else {
		slog.Warn("no kafka brokers configured; poll closed notifications are disabled")
	}

	svc := NewServices(stores, publisher, voteOpts...)

	srv.Handler = handler.NewHandler(
		handler.NewPollHandler(svc.Polls),
		handler.NewVoteHandler(svc.Votes),
		verifier,
		handler.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
			Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		},
	)
	return srv, nil
}

// Close releases resources in reverse order of acquisition.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to release resources: %w", err)
	}
	return nil
}
