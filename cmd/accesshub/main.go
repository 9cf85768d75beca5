package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/accesshub/accesshub/internal/app"
	"github.com/accesshub/accesshub/internal/auth"
	"github.com/accesshub/accesshub/internal/authz"
	"github.com/accesshub/accesshub/internal/platform/db"
	"github.com/accesshub/accesshub/internal/permissions"
	"github.com/accesshub/accesshub/internal/roles"
	"github.com/accesshub/accesshub/internal/shared"
	"github.com/accesshub/accesshub/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	hasher := shared.NewBcryptHasher()

	permissionsRepo := permissions.NewRepository(dbpool)
	permissionsService := permissions.NewService(permissionsRepo)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, permissionsService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, rolesService, hasher)

	authService := auth.NewService(usersRepo, hasher)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewAuthenticator(tokens, usersRepo, cfg.TokenCookie, logger)
	authHandler := auth.NewHandler(logger, authService, tokens, cfg.TokenCookie, cfg.IsProduction())

	guard := authz.Guard{Engine: authz.Engine{SuperuserRole: cfg.SuperuserRole}, Logger: logger}

	usersHandler := users.NewHandler(logger, usersService, guard)
	rolesHandler := roles.NewHandler(logger, rolesService, guard)
	permissionsHandler := permissions.NewHandler(logger, permissionsService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticator:      authenticator,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
