package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/api"
	"github.com/zoomcut/zoomcut-agent/internal/capture"
	"github.com/zoomcut/zoomcut-agent/internal/config"
	"github.com/zoomcut/zoomcut-agent/internal/db"
	"github.com/zoomcut/zoomcut-agent/internal/doctor"
	"github.com/zoomcut/zoomcut-agent/internal/logging"
	"github.com/zoomcut/zoomcut-agent/internal/media"
	"github.com/zoomcut/zoomcut-agent/internal/playback"
	"github.com/zoomcut/zoomcut-agent/internal/studio"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.SessionsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create sessions dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create exports dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting zoomcut agent",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := studio.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                    ZOOMCUT AGENT                          ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var recorder capture.Recorder
	if cmd := cfg.RecorderCommand(); cmd != "" {
		recorder = capture.NewSubprocessRecorder(cmd, nil, logger)
		logger.Info("using recorder command", "command", cmd)
	} else {
		recorder = capture.NewStubRecorder(logger)
		logger.Warn("no recorder command configured, using stub recorder")
	}

	var ffmpeg media.FFmpeg
	if real, err := media.NewExecFFmpeg(logger); err != nil {
		logger.Warn("ffmpeg not found, rendering disabled", "error", err)
		ffmpeg = media.NewStubFFmpeg(logger)
	} else {
		ffmpeg = real
	}

	caps := doctor.NewCachedDoctor(doctor.NewHostProber(logger), logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Second)
	probed, err := caps.Refresh(initCtx)
	initCancel()
	if err != nil {
		logger.Warn("initial capability probe failed", "error", err)
	} else {
		logger.Info("host capabilities detected",
			"ready", probed.Ready,
			"encoder", probed.Encoder,
			"drawtext", probed.HasDrawtext,
			"recommended_workers", probed.RecommendedWorkers,
		)
	}

	profiles, err := config.LoadProfiles(cfg.ProfilesPath())
	if err != nil {
		return fmt.Errorf("failed to load render profiles: %w", err)
	}

	workers := cfg.ExportWorkers()
	if workers == 0 {
		workers = 1
		if probed != nil {
			workers = probed.RecommendedWorkers
		}
	}

	svc := studio.NewService(repo, recorder, ffmpeg, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := studio.NewRunner(svc, repo, ffmpeg, profiles, cfg.ExportsDir(), workers, cfg.ExportTimeout(), logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		StudioService:  svc,
		PlaybackServer: playback.NewServer(logger, cfg.SessionsDir(), cfg.ExportsDir()),
		Repository:     repo,
		Runner:         runner,
		Doctor:         caps,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
		Version:        config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if recorder.Running() {
		if err := recorder.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop recorder", "error", err)
		}
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo studio.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo studio.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
