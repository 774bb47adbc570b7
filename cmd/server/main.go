package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ReceiptKeeper/internal/bootstrap"
	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/config"
	"ReceiptKeeper/internal/handlers"
	"ReceiptKeeper/internal/middleware"
)

func main() {
	cfg := config.NewConfig()

	sugar, err := bootstrap.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() { _ = sugar.Sync() }()

	//context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	core, cleanup, err := bootstrap.OpenCore(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to open core", "error", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			sugar.Errorw("cleanup failed", "error", err)
		}
	}()

	h := handlers.NewHandler(core, sugar)
	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// изменения других процессов (CLI) до клиентов доходят только через периодический refresh
	go changebus.RunRefresher(ctx, cfg.RefreshInterval, func(context.Context) {
		changebus.Emit(core.Bus, changebus.ReceiptsChangedTopic, changebus.ReceiptsChanged{Action: changebus.ActionRefreshed})
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("shutdown", "error", err)
		}
	}()

	sugar.Infow("Starting server",
		"addr", cfg.BaseURL,
		"db", cfg.ClientDBPath,
		"market", cfg.MarketBaseURL,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
}
