package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reddintoit/redd-into-it/analysis"
	"github.com/reddintoit/redd-into-it/api"
	"github.com/reddintoit/redd-into-it/cache"
	"github.com/reddintoit/redd-into-it/models"
	"github.com/reddintoit/redd-into-it/server"
	"github.com/reddintoit/redd-into-it/utils"
)

func main() {
	envPath := flag.String("env", ".env", "Path to .env file")
	logLevel := flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flag.Parse()

	log := setupLogger(*logLevel)
	log.Info("Starting Redd Into It backend")

	config, err := utils.LoadConfig(*envPath, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.WithFields(logrus.Fields{
		"server_port":  config.Server.Port,
		"fetch_window": config.Reddit.FetchWindow,
		"cache_ttl":    config.Cache.TTL.String(),
	}).Info("Configuration loaded")

	redditClient := api.NewRedditClient(
		config.Reddit.ClientID,
		config.Reddit.ClientSecret,
		config.Reddit.UserAgent,
		config.Reddit.MaxRequestsPerMinute,
		log,
	)

	resultCache := cache.New[models.AnalysisResult](config.Cache.TTL)
	searchCache := cache.New[models.SearchResponse](config.Cache.TTL)

	analyzer := analysis.NewAnalyzer(redditClient, resultCache, config.Reddit.FetchWindow, log)

	srv := server.New(analyzer, redditClient, searchCache, config, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Run(ctx)

	waitForShutdown(cancel, log)
}

// setupLogger sets up the logger with the specified log level
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// waitForShutdown waits for a shutdown signal
func waitForShutdown(cancel context.CancelFunc, log *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutdown signal received")

	cancel()

	time.Sleep(1 * time.Second)
	log.Info("Redd Into It backend stopped")
}
