package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"

	"github.com/Dharakkkk/GithubAssistant/internal/aggregator"
	"github.com/Dharakkkk/GithubAssistant/internal/api"
	"github.com/Dharakkkk/GithubAssistant/internal/collector"
	"github.com/Dharakkkk/GithubAssistant/internal/config"
	"github.com/Dharakkkk/GithubAssistant/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}

	// Initialize collector
	coll, err := collector.NewGitHubCollector(collector.Options{
		BaseURL: cfg.GitHubBaseURL,
		Token:   cfg.GitHubToken,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize GitHub collector: %v", err)
	}

	// Initialize aggregator
	agg := aggregator.NewAggregator(coll, aggregator.Options{
		Concurrency: cfg.BranchConcurrency,
		Retry: &aggregator.RetryPolicy{
			MaxRetries: cfg.RetryMaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			MaxDelay:   cfg.RetryMaxDelay,
		},
	})

	// Initialize handler
	handler := api.NewHandler(agg)

	// Setup routes
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.WithFields(logger.Fields{
		"addr":     addr,
		"upstream": cfg.GitHubBaseURL,
	}).Info("Starting API server")

	if err := router.Run(addr); err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
