package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/trackforge/defecttrack/dao/query"
	"github.com/trackforge/defecttrack/internal"
	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/dashboard"
	"github.com/trackforge/defecttrack/internal/handler"
	"github.com/trackforge/defecttrack/internal/middleware"
	"github.com/trackforge/defecttrack/pkg/config"
	"github.com/trackforge/defecttrack/pkg/cronjob"
	"github.com/trackforge/defecttrack/pkg/logutils"
	"github.com/trackforge/defecttrack/pkg/notify"
)

const shutdownTimeout = 10 * time.Second

// @title DefectTrack API
// @version 1.0.0
// @description API server for DefectTrack, a defect tracking and project quality dashboard platform.
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Obtain a token via /v1/auth/login and pass it as 'Bearer ${TOKEN}'
func main() {
	backendConfig := config.GetConfig()

	// variable changes in local development
	if gin.Mode() == gin.DebugMode {
		if err := godotenv.Load(".debug.env"); err != nil {
			logutils.Log.Warn("no .debug.env file: ", err)
		}
		if be := os.Getenv("DEFECTTRACK_BE_PORT"); be != "" {
			backendConfig.ServerAddr = ":" + be
		}
	}
	if backendConfig.ServerAddr == "" {
		backendConfig.ServerAddr = ":8088"
	}
	if backendConfig.MetricsAddr == "" {
		backendConfig.MetricsAddr = ":8089"
	}

	// 1. init db, run migrations and seed reference data
	db := query.GetDB()
	if err := query.Migrate(db); err != nil {
		logutils.Log.Error("migrate: ", err)
		os.Exit(1)
	}
	if err := query.Seed(db); err != nil {
		logutils.Log.Error("seed: ", err)
		os.Exit(1)
	}

	// 2. wire the domain services
	resolver := authz.NewResolver(authz.NewGormStore(db))
	engine := dashboard.NewEngine(db)
	dispatcher := notify.NewDispatcher(notify.NewMailSender(db))
	defer dispatcher.Close()

	// 3. start the expiry sweeper
	sweeper := cronjob.NewSweeper(db)
	if err := sweeper.Start(backendConfig.Cron.ExpirySweepSpec); err != nil {
		logutils.Log.Error("start sweeper: ", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	// 4. start the server
	backend := internal.Register(&handler.RegisterConfig{
		DB:       db,
		Resolver: resolver,
		Engine:   engine,
		Notifier: dispatcher,
	})

	srv := &http.Server{
		Addr:              backendConfig.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              backendConfig.MetricsAddr,
		Handler:           middleware.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logutils.Log.Info("listening on ", backendConfig.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutils.Log.Error("server: ", err)
			stop()
		}
	}()
	go func() {
		logutils.Log.Info("metrics on ", backendConfig.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutils.Log.Error("metrics server: ", err)
			stop()
		}
	}()

	<-ctx.Done()
	logutils.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logutils.Log.Error("shutdown: ", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logutils.Log.Error("metrics shutdown: ", err)
	}
}
