package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ricecast/config"
	"ricecast/form"
	qhttp "ricecast/http"
	"ricecast/logger"
	"ricecast/ml"
)

func main() {
	// 1. Load config
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	zlog, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// 3. Model holder. The artifact is loaded on first request.
	registry, err := ml.NewRegistry(cfg.Model.CacheSize)
	if err != nil {
		zlog.Fatal("create model registry", zap.Error(err))
	}
	holder := ml.NewHolder(cfg.Model.Path, registry)
	if _, err := holder.Get(); err != nil {
		zlog.Error("model not loaded, pages will show the load error", zap.Error(err))
	}

	var watcher *ml.Watcher
	if cfg.Model.Watch {
		watcher, err = ml.NewWatcher(holder, zlog)
		if err == nil {
			err = watcher.Watch()
		}
		if err != nil {
			zlog.Fatal("watch model file", zap.String("path", cfg.Model.Path), zap.Error(err))
		}
	}

	// 4. HTTP server
	app := qhttp.NewApp(holder, qhttp.AppOptions{
		Texts:           texts(cfg),
		DefaultFeatures: cfg.Model.DefaultFeatures,
		Formatter:       formatter(cfg),
		Logger:          zlog,
	})
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:         cfg.Http.Port,
		Timeout:      cfg.Http.Timeout,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	}, app, zlog)

	go func() {
		if err := server.Start(); err != nil {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	err = server.Stop()
	if watcher != nil {
		err = multierr.Append(err, watcher.Close())
	}
	if err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
	zlog.Info("exiting")
}

func texts(cfg *config.Config) form.Texts {
	t := form.DefaultTexts
	if cfg.UI.Title != "" {
		t.Title = cfg.UI.Title
	}
	if cfg.UI.Intro != "" {
		t.Intro = cfg.UI.Intro
	}
	if cfg.UI.Caption != "" {
		t.Caption = cfg.UI.Caption
	}
	return t
}

func formatter(cfg *config.Config) *form.NumberFormatter {
	tag, _ := cfg.LocaleTag()
	return form.NewNumberFormatter(tag)
}
