package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/answerset/internal/api/http"
	auth "github.com/mind-engage/answerset/internal/auth/middleware"
	"github.com/mind-engage/answerset/internal/config"
	"github.com/mind-engage/answerset/internal/db"
	"github.com/mind-engage/answerset/internal/grading"
	"github.com/mind-engage/answerset/internal/history"
	"github.com/mind-engage/answerset/internal/logger"
	"github.com/mind-engage/answerset/internal/profile"
	"github.com/mind-engage/answerset/internal/users"
)

func main() {
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode, logger.Options{
		Level:    cfg.LogLevel,
		Redact:   cfg.LogRedact,
		HashSalt: cfg.AuthHMACSecret,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer dbh.Close()

	profiles := profile.NewSQLStore(dbh)
	if _, err := profile.Seed(ctx, profiles, cfg.OptionsFile); err != nil {
		log.Fatal("seed default profile", "file", cfg.OptionsFile, "error", err)
	}

	grader, err := grading.NewDefaultGrader()
	if err != nil {
		log.Fatal("grader", "error", err)
	}

	events := history.NewEventRepo(dbh)
	var recorder *history.Recorder
	if cfg.EnableHistory {
		recorder = history.NewRecorder(events, cfg.SiteID)
		if cfg.RedisAddr != "" {
			bus, err := history.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisChannel)
			if err != nil {
				log.Fatal("init redis event bus", "addr", cfg.RedisAddr, "error", err)
			}
			defer bus.Close()
			recorder.WithBus(bus)
		}
	}

	userStore := users.NewStore(dbh, 0)

	// --- Router ---
	router := api.NewRouter(api.Deps{
		DB:   dbh,
		Auth: auth.NewAuthService(cfg.AuthHMACSecret),
		Accounts: auth.Accounts{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			Users:         userStore,
		},
		Users:  userStore,
		Events: events,
		Compare: &api.Comparer{
			Profiles: profiles,
			Grader:   grader,
			Limits:   profile.Limits{MaxChoices: cfg.MaxChoices, MaxUnits: cfg.MaxUnits},
			History:  recorder,
			Log:      log.With("component", "compare"),
		},
	},
		middleware.RequestID, middleware.RealIP, log.Middleware, middleware.Recoverer,
		middleware.Timeout(30*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins(),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "history", cfg.EnableHistory)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
}
