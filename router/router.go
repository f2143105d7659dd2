// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/ghpolls/auth"
	"github.com/danielhkuo/ghpolls/cache"
	"github.com/danielhkuo/ghpolls/chart"
	"github.com/danielhkuo/ghpolls/cliparse"
	"github.com/danielhkuo/ghpolls/handlers"
	"github.com/danielhkuo/ghpolls/middleware"
	"github.com/danielhkuo/ghpolls/store"
)

// NewRouter wires the store, image cache and handlers into a route table.
// rdb may be nil, in which case chart images are rendered on every request.
func NewRouter(db *sql.DB, rdb *redis.Client, cfg cliparse.Config) (http.Handler, error) {
	sessions, err := auth.NewSessions(cfg.SessionSecret, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to set up sessions: %w", err)
	}

	var (
		st     *store.Store
		images *chart.Service
	)
	if rdb != nil {
		imageCache := cache.NewImageCache(rdb, cache.DefaultTTL)
		st = store.New(db, store.TableAuditLog{}, imageCache)
		images, err = chart.NewService(st, imageCache, chart.NewRenderer())
	} else {
		st = store.New(db, store.TableAuditLog{}, nil)
		images, err = chart.NewService(st, nil, chart.NewRenderer())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up chart images: %w", err)
	}

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(st, cfg)
	votingHandler := handlers.NewVotingHandler(st, cfg)
	imageHandler := handlers.NewImageHandler(images)
	createLimiter := middleware.NewRateLimiter(cfg.CreateRatePerMinute)

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	// Poll management (owner operations)
	r.HandleFunc("/polls", middleware.WithLogging(middleware.RequireUser(pollHandler.ListPolls))).Methods(http.MethodGet)
	r.HandleFunc("/polls", middleware.WithLogging(middleware.RequireUser(createLimiter.Limit(pollHandler.CreatePoll)))).Methods(http.MethodPost)
	r.HandleFunc("/polls/{id}/edit", middleware.WithLogging(middleware.RequireUser(pollHandler.EditForm))).Methods(http.MethodGet)
	r.HandleFunc("/polls/{id}/edit", middleware.WithLogging(middleware.RequireUser(pollHandler.EditPoll))).Methods(http.MethodPost)
	r.HandleFunc("/polls/{id}/delete", middleware.WithLogging(middleware.RequireUser(pollHandler.DeletePoll))).Methods(http.MethodPost)

	// Chart image (public); registered before /polls/{id} so the .png suffix wins
	r.HandleFunc("/polls/{id}.png", middleware.WithLogging(imageHandler.PollImage)).Methods(http.MethodGet)

	// Voting operations
	r.HandleFunc("/polls/{id}", middleware.WithLogging(votingHandler.Vote)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/polls/{id}/unvote", middleware.WithLogging(middleware.RequireUser(votingHandler.Unvote))).Methods(http.MethodPost)

	// Root endpoint
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ghpolls API v1"))
	}).Methods(http.MethodGet)

	return middleware.CORS(cfg.AllowedOrigins)(middleware.WithSession(sessions)(r)), nil
}
