package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/reddintoit/redd-into-it/analysis"
	"github.com/reddintoit/redd-into-it/cache"
	"github.com/reddintoit/redd-into-it/models"
	"github.com/reddintoit/redd-into-it/utils"
)

// SubredditAnalyzer computes optimal posting hours for a subreddit
type SubredditAnalyzer interface {
	Analyze(ctx context.Context, subreddit, timezoneID string) (models.AnalysisResult, error)
}

// SubredditSearcher finds subreddits matching a query
type SubredditSearcher interface {
	SearchSubreddits(ctx context.Context, query string, limit int) ([]models.SubredditMatch, error)
}

const searchResultLimit = 10

// Server is the HTTP API surface
type Server struct {
	echo        *echo.Echo
	analyzer    SubredditAnalyzer
	searcher    SubredditSearcher
	searchCache *cache.Cache[models.SearchResponse]
	log         *logrus.Logger
	port        int
}

// New creates the HTTP server with routing, CORS, and rate limiting wired up
func New(
	analyzer SubredditAnalyzer,
	searcher SubredditSearcher,
	searchCache *cache.Cache[models.SearchResponse],
	config *utils.Config,
	log *logrus.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.Server.AllowedOrigins,
	}))

	// overall per-client ceiling, ahead of the per-route limits
	e.Use(rateLimitMiddleware(perHour(config.RateLimit.GlobalPerHour), config.RateLimit.GlobalPerHour))

	s := &Server{
		echo:        e,
		analyzer:    analyzer,
		searcher:    searcher,
		searchCache: searchCache,
		log:         log,
		port:        config.Server.Port,
	}

	e.GET("/api/test", s.handleTest)
	e.GET("/api/subreddit/search", s.handleSearch,
		rateLimitMiddleware(perMinute(config.RateLimit.SearchPerMinute), config.RateLimit.SearchPerMinute))
	e.GET("/api/subreddit/:subreddit/analysis", s.handleAnalysis,
		rateLimitMiddleware(perMinute(config.RateLimit.AnalysisPerMinute), config.RateLimit.AnalysisPerMinute))

	// health check endpoint for liveness probes
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	return s
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

func perHour(n int) rate.Limit {
	return rate.Limit(float64(n) / 3600.0)
}

// rateLimitMiddleware builds a per-client-IP limiter. Burst equals the
// ceiling so a client gets its full allowance up front and then refills
// at the configured rate.
func rateLimitMiddleware(limit rate.Limit, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      limit,
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
	})
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) {
	go func() {
		serverAddr := fmt.Sprintf(":%d", s.port)
		s.log.WithField("port", s.port).Info("Starting API server")
		if err := s.echo.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("API server failed")
		}
	}()

	<-ctx.Done()
	s.log.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("API server shutdown failed")
	}
}

// Echo exposes the underlying router (used by tests)
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ensure the concrete analyzer satisfies the handler-facing interface
var _ SubredditAnalyzer = (*analysis.Analyzer)(nil)
