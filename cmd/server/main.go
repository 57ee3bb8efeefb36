// Copyright 2026 The ClassTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classtrack/classtrack/internal/access"
	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/audit"
	"github.com/classtrack/classtrack/internal/authz"
	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/identity"
	"github.com/classtrack/classtrack/internal/observability/logger"
	"github.com/classtrack/classtrack/internal/observability/metrics"
	"github.com/classtrack/classtrack/internal/observability/tracing"
	"github.com/classtrack/classtrack/internal/realtime"
	"github.com/classtrack/classtrack/internal/store/postgres"
	transportHTTP "github.com/classtrack/classtrack/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting classtrack academy server")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	_, err = metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	permissionRepo := postgres.NewPermissionRepository(db)
	overrideRepo := postgres.NewOverrideRepository(db)
	ruleRepo := postgres.NewRuleRepository(db)
	configRepo := postgres.NewConfigSetRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)

	// Services
	auditLogger := audit.NewSlogLogger()
	hasher := identity.NewPasswordHasher(
		cfg.Auth.Argon2Memory,
		cfg.Auth.Argon2Iterations,
		cfg.Auth.Argon2Parallelism,
		cfg.Auth.Argon2SaltLength,
		cfg.Auth.Argon2KeyLength,
	)
	tokens := identity.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenIssuer, cfg.Auth.TokenLifetime)
	identityService := identity.NewService(userRepo, hasher, tokens, auditLogger)
	permissionResolver := authz.NewResolver(roleRepo, overrideRepo)
	accessService := access.NewService(ruleRepo, configRepo)

	hub := realtime.NewHub()
	broadcaster := realtime.NewBroadcaster(hub, ruleRepo, configRepo)
	attendanceService := attendance.NewService(attendanceRepo, broadcaster)

	if len(os.Args) > 1 && os.Args[1] == "bootstrap" {
		bootstrap := identity.NewBootstrapService(identityService, auditLogger)
		if err := bootstrap.Bootstrap(ctx); err != nil {
			fmt.Printf("Bootstrap failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	handler := transportHTTP.NewHandler(
		identityService,
		permissionResolver,
		permissionRepo,
		overrideRepo,
		ruleRepo,
		accessService,
		attendanceService,
		hub,
		auditLogger,
	)
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router := handler.Router(rateLimiter, cfg.Observability.ServiceName)

	server := &http.Server{
		Addr:        cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays unset: the event stream holds its
		// connection open and manages per-write deadlines itself.
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("http server listening", logger.Component("server"), slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", logger.Error(err))
	}
	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return fmt.Errorf("failed to apply initial schema: %w", err)
	}
	fmt.Println("Migration applied successfully")
	return nil
}
