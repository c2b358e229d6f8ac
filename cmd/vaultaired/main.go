// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
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

// Command vaultaired is the Vaultaire writer daemon: it accepts point bursts
// from the broker transports and batches them per origin into the object
// store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novatechflow/vaultaire/pkg/ingress"
	"github.com/novatechflow/vaultaire/pkg/pool"
	"github.com/novatechflow/vaultaire/pkg/writer"
)

const (
	defaultIngressAddr   = ":5560"
	defaultMetricsAddr   = ":5561"
	defaultBatchPeriod   = 4 * time.Second
	defaultTargetBuckets = 128
	defaultS3Bucket      = "vaultaire"
	defaultS3Region      = "us-east-1"
	defaultS3Endpoint    = "http://127.0.0.1:9000"
	defaultS3AccessKey   = "minioadmin"
	defaultS3SecretKey   = "minioadmin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	p := buildPool(ctx, logger)

	cfg := writer.Config{
		BatchPeriod:   envDuration("VAULTAIRE_BATCH_PERIOD", defaultBatchPeriod, logger),
		TargetBuckets: uint64(envInt("VAULTAIRE_TARGET_BUCKETS", defaultTargetBuckets, logger)),
	}
	dispatcher := writer.NewDispatcher(ctx, p, logger, cfg)

	startMetricsServer(ctx, envOrDefault("VAULTAIRE_METRICS_ADDR", defaultMetricsAddr), logger)

	if brokers := os.Getenv("VAULTAIRE_KAFKA_BROKERS"); brokers != "" {
		source, err := ingress.NewKafkaSource(ingress.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   envOrDefault("VAULTAIRE_KAFKA_TOPIC", "vaultaire.points"),
			Group:   envOrDefault("VAULTAIRE_KAFKA_GROUP", "vaultaire-writer"),
		}, dispatcher, logger)
		if err != nil {
			logger.Error("kafka ingress failed to start", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka ingress error", "error", err)
			}
		}()
		logger.Info("kafka ingress started", "brokers", brokers)
	}

	srv := &ingress.Server{
		Addr:       envOrDefault("VAULTAIRE_INGRESS_ADDR", defaultIngressAddr),
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("ingress server error", "error", err)
		os.Exit(1)
	}
	srv.Wait()
	<-dispatcher.Stopped()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("VAULTAIRE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func buildPool(ctx context.Context, logger *slog.Logger) *pool.Pool {
	if parseEnvBool("VAULTAIRE_USE_MEMORY_POOL", false) {
		logger.Info("using in-memory object pool", "env", "VAULTAIRE_USE_MEMORY_POOL=1")
		return pool.New(pool.NewMemoryStore(), writer.ObservePoolOp)
	}

	bucket := envOrDefault("VAULTAIRE_S3_BUCKET", defaultS3Bucket)
	region := envOrDefault("VAULTAIRE_S3_REGION", defaultS3Region)
	endpoint := envOrDefault("VAULTAIRE_S3_ENDPOINT", defaultS3Endpoint)
	accessKey := os.Getenv("VAULTAIRE_S3_ACCESS_KEY")
	secretKey := os.Getenv("VAULTAIRE_S3_SECRET_KEY")
	usingDefaults := bucket == defaultS3Bucket && region == defaultS3Region && endpoint == defaultS3Endpoint
	if accessKey == "" && secretKey == "" && usingDefaults {
		accessKey = defaultS3AccessKey
		secretKey = defaultS3SecretKey
	}

	store, err := pool.NewS3Store(ctx, pool.S3Config{
		Bucket:          bucket,
		Region:          region,
		Endpoint:        endpoint,
		ForcePathStyle:  parseEnvBool("VAULTAIRE_S3_PATH_STYLE", true),
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		SessionToken:    os.Getenv("VAULTAIRE_S3_SESSION_TOKEN"),
	})
	if err != nil {
		logger.Error("failed to create S3 store", "error", err, "bucket", bucket, "region", region, "endpoint", endpoint)
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("failed to ensure S3 bucket", "bucket", bucket, "error", err)
		os.Exit(1)
	}
	logger.Info("using S3-compatible object pool", "bucket", bucket, "region", region, "endpoint", endpoint)
	return pool.New(store, writer.ObservePoolOp)
}

func startMetricsServer(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ready")
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int, logger *slog.Logger) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		logger.Warn("invalid integer env value", "key", key, "value", val)
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration, logger *slog.Logger) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		logger.Warn("invalid duration env value", "key", key, "value", val)
		return fallback
	}
	return parsed
}
