package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-multierror"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"maternal-risk/internal/config"
	"maternal-risk/internal/dataset"
	"maternal-risk/internal/explore"
	"maternal-risk/internal/logging"
	"maternal-risk/internal/metrics"
	"maternal-risk/internal/platform/firebase"
	"maternal-risk/internal/platform/telegram"
	"maternal-risk/internal/prediction"
	"maternal-risk/internal/report"
	"maternal-risk/internal/risk"
)

func main() {
	configPath := flag.String("config", os.Getenv("MATERNAL_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 1. Data
	data, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return &config.StartupError{Stage: "dataset", Err: err}
	}
	logger.Info("dataset loaded",
		zap.String("path", cfg.Dataset.Path),
		zap.Int("rows", data.Len()),
		zap.Strings("labels", data.DistinctLabels()),
	)

	// 2. Infrastructure
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return &config.StartupError{Stage: "store", Err: err}
	}

	renderer, err := report.NewRenderer(cfg.Report.FontPath)
	if err != nil {
		logger.Warn("PDF rendering disabled", zap.Error(err))
	} else {
		logger.Info("PDF font loaded", zap.String("path", renderer.FontPath()))
	}

	var notifier prediction.Notifier
	if cfg.Telegram.Enabled() {
		tgClient := telegram.NewClient(cfg.Telegram.Token.Value())
		notifier = report.NewJournalNotifier(renderer, tgClient, cfg.Telegram.ChatID, logger)
		logger.Info("journal notifications enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
	}

	// 3. Services
	m := metrics.New()
	models := risk.NewModelCache(cfg.Model.CacheEnabled(), m, logger)
	sessions := prediction.NewSessionStore(cfg.Server.SessionTTL)
	go sessions.CleanupLoop(ctx, time.Minute, logger)

	predictionSvc := prediction.NewService(data, models, store, sessions, notifier, m, logger)
	predictionHandler := prediction.NewHandler(predictionSvc, logger, cfg.Server.SecureCookies)
	exploreHandler := explore.NewHandler(data, renderer, logger)

	// Train up front so the first request does not pay for it.
	if _, err := models.Get(ctx, data); err != nil {
		logger.Warn("initial training failed", zap.Error(err))
	}

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/maternal", func(r chi.Router) {
		explore.RegisterRoutes(r, exploreHandler)
		prediction.RegisterRoutes(r, predictionHandler)
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case serveErr = <-errCh:
	}

	// Shutdown sequence.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	var result *multierror.Error
	if serveErr != nil {
		result = multierror.Append(result, serveErr)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if store != nil {
		if err := store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close store: %w", err))
		}
	}

	logger.Info("server stopped")
	return result.ErrorOrNil()
}

// openStore builds the configured record store. The none backend returns a
// nil store and saving is disabled.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (prediction.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		creds, err := firebase.LoadCredentials(cfg.Firebase.SecretsPath)
		if err != nil {
			return nil, err
		}
		client, err := firebase.NewClient(ctx, creds)
		if err != nil {
			return nil, err
		}
		logger.Info("firestore store ready",
			zap.String("project", creds.ProjectID),
			zap.String("collection", cfg.Store.Collection),
		)
		return prediction.NewFirestoreStore(client, cfg.Store.Collection), nil

	case config.BackendPostgres:
		dsn := cfg.Store.DatabaseURL.Value()
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not connect to database: %w", err)
		}
		if err := prediction.Migrate(dsn, cfg.Store.Migrations); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("postgres store ready", zap.String("migrations", cfg.Store.Migrations))
		return prediction.NewPostgresStore(db), nil

	case config.BackendNone:
		logger.Warn("record store disabled, predictions cannot be saved")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
