package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ignite/customer-match/internal/api"
	"github.com/ignite/customer-match/internal/config"
	"github.com/ignite/customer-match/internal/googleads"
	"github.com/ignite/customer-match/internal/identifier"
	"github.com/ignite/customer-match/internal/metrics"
	"github.com/ignite/customer-match/internal/pkg/logger"
	"github.com/ignite/customer-match/internal/source"
	"github.com/ignite/customer-match/internal/upload"
	"github.com/ignite/customer-match/internal/workflow"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v\n"+
			"  Hint: run 'lsof -i' to find the blocking process", addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config/config.yaml"), "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, ok := logger.ParseLevel(cfg.Logging.Level)
	if !ok {
		log.Printf("Unknown log level %q, using info", cfg.Logging.Level)
	}
	logger.SetLevel(level)
	logger.SetRedactPII(cfg.Logging.ShouldRedact())

	// Pre-flight checks
	if err := identifier.CheckAlgorithm(); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	if cfg.Audience.CustomerID == "" {
		log.Println("No audience.customer_id configured; /demo will fail and job requests must name one")
	}

	connector, err := googleads.NewConnector(cfg.GoogleAds)
	if err != nil {
		log.Fatalf("Failed to create Google Ads connector: %v", err)
	}
	if err := connector.CheckCredentials(); err != nil {
		log.Printf("WARNING: Google Ads credential check failed: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts, err := workflow.OptionsFromConfig(cfg.Audience)
	if err != nil {
		log.Fatalf("Invalid audience settings: %v", err)
	}
	opts.Metrics = metrics.New(registry)
	orchestrator := workflow.New(workflow.GoogleAds(connector), opts)

	health := api.NewHealthChecker()
	health.Register("google_ads", true, func(context.Context) error { return connector.CheckCredentials() })
	health.Register("hashing", true, func(context.Context) error { return identifier.CheckAlgorithm() })
	health.Register("source", false, func(ctx context.Context) error {
		src, err := source.Open(ctx, cfg.Source)
		if err != nil {
			return err
		}
		return src.Close()
	})

	openSource := func(ctx context.Context) (upload.Source, error) {
		return source.Open(ctx, cfg.Source)
	}
	handlers := api.NewHandlers(orchestrator, cfg.Audience.CustomerID, openSource)
	server := api.NewServer(cfg.Server, handlers, health, registry)

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr, "source", cfg.Source.Type, "identifier_kind", string(orchestrator.Kind()))
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
