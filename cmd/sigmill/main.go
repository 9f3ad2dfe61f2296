package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sigmill/internal/app"
	smcfg "sigmill/internal/config"
	"sigmill/internal/gateway/brokerage"
	"sigmill/internal/gateway/norgate"
	"sigmill/internal/gateway/notifier"
	"sigmill/internal/logger"
	"sigmill/internal/store/runlog"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("loading .env failed: %v", err)
	}
	cfgPath := os.Getenv("SIGMILL_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := smcfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("initializing log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("config loaded (env=%s)", cfg.App.Env)
	logger.InfoBlock(strategySummary(cfg))

	data := norgate.NewClient(cfg.Data.BaseURL, time.Duration(cfg.Data.TimeoutSeconds)*time.Second)
	broker := brokerage.NewClient(cfg.Brokerage.BaseURL, cfg.Brokerage.Username, cfg.Brokerage.Password,
		time.Duration(cfg.Brokerage.TimeoutSeconds)*time.Second)

	var recorder app.RunRecorder
	if cfg.RunLog.Enabled {
		store, err := runlog.NewStore(cfg.RunLog.Path)
		if err != nil {
			log.Fatalf("opening run log failed: %v", err)
		}
		defer store.Close()
		recorder = store
	}
	var notify notifier.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	runner := app.New(cfg, data, broker, recorder, notify, nil)
	path, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	logger.Infof("done: %s", path)
}

func strategySummary(cfg *smcfg.Config) string {
	s := cfg.Strategies
	rows := []struct {
		name       string
		enabled    bool
		allocation float64
	}{
		{"momentum", s.Momentum.Enabled, s.Momentum.Allocation},
		{"growth", s.Growth.Enabled, s.Growth.Allocation},
		{"defensive", s.Defensive.Enabled, s.Defensive.Allocation},
		{"bitcoin", s.Bitcoin.Enabled, s.Bitcoin.Allocation},
		{"meanrev_long", s.MeanRevLong.Enabled, s.MeanRevLong.Allocation},
		{"meanrev_short", s.MeanRevShort.Enabled, s.MeanRevShort.Allocation},
		{"hft_long", s.HFTLong.Enabled, s.HFTLong.Allocation},
		{"hft_short", s.HFTShort.Enabled, s.HFTShort.Allocation},
	}
	var b strings.Builder
	b.WriteString("strategies:\n")
	for _, r := range rows {
		if !r.enabled {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-14s %.0f%% of usable capital\n", r.name, r.allocation*100))
	}
	return b.String()
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
