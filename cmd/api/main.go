// Package main is the entry point for the Product Ideas API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/product-ideas/backend/internal/auth"
	"github.com/pkordes/product-ideas/backend/internal/config"
	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/docstore/memstore"
	"github.com/pkordes/product-ideas/backend/internal/docstore/pgstore"
	"github.com/pkordes/product-ideas/backend/internal/events"
	"github.com/pkordes/product-ideas/backend/internal/handler"
	"github.com/pkordes/product-ideas/backend/internal/middleware"
	"github.com/pkordes/product-ideas/backend/internal/policy"
	"github.com/pkordes/product-ideas/backend/internal/repo"
	"github.com/pkordes/product-ideas/backend/internal/search"
	"github.com/pkordes/product-ideas/backend/internal/service"
	"github.com/pkordes/product-ideas/backend/migrations"
)

func main() {
	printIndexes := flag.Bool("indexes", false, "print the composite indexes the idea queries need and exit")
	flag.Parse()

	if *printIndexes {
		for _, idx := range repo.RequiredIndexes() {
			fmt.Println(idx.String())
		}
		return
	}

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// The default logger writes to stderr until the JSON one is set up.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Document store ---------------------------------------------------
	store, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open document store", "store", cfg.DocStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// --- Change feed and search ------------------------------------------
	var feed events.Feed = events.Nop{}
	if cfg.RedisURL != "" {
		r, err := events.NewRedis(cfg.RedisURL)
		if err != nil {
			// Live updates are optional; serve without them.
			slog.Warn("change feed disabled", "error", err)
		} else {
			defer r.Close()
			feed = r
			slog.Info("change feed connected")
		}
	}

	var index search.Index = search.Nop{}
	if cfg.MeiliURL != "" {
		m := search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
		defer m.Close()
		index = m
	}

	// --- Services ---------------------------------------------------------
	ideaRepo := repo.NewIdeaRepo(store)
	noteRepo := repo.NewNoteRepo(store)
	srv := handler.NewServer(
		service.NewIdeaService(ideaRepo, noteRepo, feed, index),
		service.NewNoteService(noteRepo, feed),
		service.NewSearchService(index),
		feed,
	)

	// --- Router -----------------------------------------------------------
	// RequestID → RealIP → CORS → auth → SlogLogger → Recoverer → body limit.
	// The logger runs after auth so it can record the caller.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(auth.Middleware(auth.NewVerifier([]byte(cfg.JWTSecret))))
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// The event stream clears its own write deadline.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "store", cfg.DocStore)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore builds the configured document store with the authorization
// rules attached. The returned func releases its resources.
func openStore(ctx context.Context, cfg config.Config) (docstore.Store, func(), error) {
	rules := policy.Rules{}

	if cfg.DocStore == config.StoreMemory {
		slog.Warn("using in-memory document store; data is lost on restart")
		return memstore.New(rules, memstore.WithIndexes(repo.RequiredIndexes()...)), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		// goose drives database/sql; the adapter borrows connections from the pool.
		if err := migrations.Up(ctx, stdlib.OpenDBFromPool(pool)); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pgstore.New(pool, rules), pool.Close, nil
}
