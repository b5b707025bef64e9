package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rollcall/rollcall-go/internal/agent"
	"github.com/rollcall/rollcall-go/internal/config"
	"github.com/rollcall/rollcall-go/internal/connectivity"
	"github.com/rollcall/rollcall-go/internal/handler"
	"github.com/rollcall/rollcall-go/internal/localstore"
	"github.com/rollcall/rollcall-go/internal/remote"
	"github.com/rollcall/rollcall-go/internal/syncer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.LoadAgent()
	if err != nil {
		slog.Error("invalid agent configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		slog.Error("create data directory failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	store, err := localstore.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open local store failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deviceID := cfg.DeviceID
	if deviceID == "" {
		if deviceID, err = store.DeviceID(ctx); err != nil {
			slog.Error("device id unavailable", "error", err)
			os.Exit(1)
		}
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL:  cfg.RemoteURL,
		Token:    cfg.APIToken,
		DeviceID: deviceID,
		Timeout:  cfg.RequestTimeout,
		RPS:      cfg.RemoteRPS,
	})
	if err != nil {
		slog.Error("remote client setup failed", "error", err)
		os.Exit(1)
	}

	observer := connectivity.NewObserver(cfg.StartOnline)
	svc := agent.NewService(store, client, observer)
	orch := syncer.New(store, client, observer, syncer.Config{
		Interval:       cfg.SyncInterval,
		Retention:      cfg.Retention,
		OnPassComplete: svc.OnPassComplete,
	})
	svc.SetSyncer(orch)

	var wg sync.WaitGroup
	if cfg.ProbeInterval > 0 {
		prober := connectivity.NewProber(client, observer, cfg.ProbeInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			prober.Run(ctx)
		}()
	}

	orch.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.NewLocalHandler(svc).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("agent starting", "addr", cfg.ListenAddr, "remote", cfg.RemoteURL, "device_id", deviceID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("agent server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down agent")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("agent forced shutdown", "error", err)
	}

	cancel()
	orch.Stop()
	wg.Wait()

	slog.Info("agent stopped")
}
