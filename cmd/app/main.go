package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/pdfsplit/internal/config"
	"github.com/local/pdfsplit/internal/limiter"
	logpkg "github.com/local/pdfsplit/internal/logger"
	"github.com/local/pdfsplit/internal/metrics"
	"github.com/local/pdfsplit/internal/statuscheck"
	"github.com/local/pdfsplit/internal/storage"
	"github.com/local/pdfsplit/internal/store"
	"github.com/local/pdfsplit/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, ".env not loaded: %v\n", err)
	}
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Result storage
	results, err := store.NewResults(cfg.Results.Dir, cfg.Results.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init result store")
	}
	stopSweeper := results.StartSweeper(cfg.Results.SweepInterval, cfg.Results.Retention)
	defer stopSweeper()

	// Download index: Redis when configured, in-process otherwise
	var index store.Index
	var redisPinger statuscheck.RedisPinger
	if cfg.Results.RedisURL != "" {
		ri, err := store.NewRedisIndex(cfg.Results.RedisURL, cfg.Results.Retention)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init redis index")
		}
		defer ri.Close()
		index = ri
		redisPinger = ri
	} else {
		index = store.NewMemoryIndex(cfg.Results.Retention)
	}

	// Optional S3 mirroring
	var mirror *storage.S3Client
	if cfg.Results.S3Bucket != "" {
		mirror, err = storage.NewS3Client(context.Background(), cfg.Results.S3Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init S3 mirror")
		}
	}

	srvDeps := web.Dependencies{
		Results:        results,
		Index:          index,
		Mirror:         mirror,
		Limiter:        limiter.New(cfg.Server.MaxConcurrent),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		MaxBatchFiles:  cfg.Server.MaxBatchFiles,
	}

	mux := http.NewServeMux()
	web.New(srvDeps).RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	checker := statuscheck.New(statuscheck.Options{
		Redis:     redisPinger,
		S3Bucket:  cfg.Results.S3Bucket,
		ResultDir: cfg.Results.Dir,
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(checker.Summary(r.Context()))
	})

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}
