package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/reddintoit/redd-into-it/cache"
	"github.com/reddintoit/redd-into-it/models"
)

var (
	// ErrInvalidTimezone is returned when the requested timezone is not a
	// known IANA identifier
	ErrInvalidTimezone = errors.New("invalid timezone provided")

	// ErrNoPosts is returned when the subreddit exists but the fetch
	// window contains no posts
	ErrNoPosts = errors.New("no posts found in the specified subreddit")
)

// defaultTimezone is used when a request does not name a timezone
const defaultTimezone = "UTC"

// PostFetcher retrieves a subreddit's most recent posts
type PostFetcher interface {
	FetchNewPosts(ctx context.Context, subreddit string, window int) ([]models.Post, error)
}

// Analyzer computes optimal posting hours for a subreddit. Successful
// results are cached per (subreddit, timezone); concurrent misses for the
// same key share a single fetch.
type Analyzer struct {
	fetcher PostFetcher
	cache   *cache.Cache[models.AnalysisResult]
	window  int
	group   singleflight.Group
	log     *logrus.Logger
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(fetcher PostFetcher, resultCache *cache.Cache[models.AnalysisResult], window int, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		cache:   resultCache,
		window:  window,
		log:     log,
	}
}

// cacheKey builds the result cache key for a (subreddit, timezone) pair.
// NUL separates the parts so distinct pairs can never collide.
func cacheKey(subreddit, timezoneID string) string {
	return subreddit + "\x00" + timezoneID
}

// Analyze determines the hour(s) of day with the highest posting activity
// in a subreddit, expressed in the requested timezone. An empty timezone
// defaults to UTC.
func (a *Analyzer) Analyze(ctx context.Context, subreddit, timezoneID string) (models.AnalysisResult, error) {
	if timezoneID == "" {
		timezoneID = defaultTimezone
	}

	loc, ok := LookupTimezone(timezoneID)
	if !ok {
		a.log.WithField("timezone", timezoneID).Warn("Invalid timezone provided")
		return models.AnalysisResult{}, ErrInvalidTimezone
	}

	key := cacheKey(subreddit, timezoneID)

	if result, hit := a.cache.Get(key); hit {
		a.log.WithFields(logrus.Fields{
			"subreddit": subreddit,
			"timezone":  timezoneID,
		}).Info("Returning cached analysis")
		return result, nil
	}

	// collapse concurrent misses for the same key into one fetch; peers
	// wait on the first caller's computation and share its result
	value, err, shared := a.group.Do(key, func() (interface{}, error) {
		// a peer may have populated the cache while we waited on the group
		if result, hit := a.cache.Get(key); hit {
			return result, nil
		}
		return a.compute(ctx, subreddit, timezoneID, loc, key)
	})
	if err != nil {
		return models.AnalysisResult{}, err
	}

	if shared {
		a.log.WithField("subreddit", subreddit).Debug("Shared in-flight analysis result")
	}

	return value.(models.AnalysisResult), nil
}

// compute performs the fetch-and-aggregate pipeline for a cache miss
func (a *Analyzer) compute(ctx context.Context, subreddit, timezoneID string, loc *time.Location, key string) (models.AnalysisResult, error) {
	a.log.WithFields(logrus.Fields{
		"subreddit": subreddit,
		"timezone":  timezoneID,
		"window":    a.window,
	}).Info("Analyzing subreddit")

	posts, err := a.fetcher.FetchNewPosts(ctx, subreddit, a.window)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to fetch posts for %s: %w", subreddit, err)
	}

	// zero posts is a distinct outcome, detected before any aggregation,
	// and is never cached so a newly active subreddit is re-checked on
	// the next request
	if len(posts) == 0 {
		a.log.WithField("subreddit", subreddit).Warn("No posts found in subreddit")
		return models.AnalysisResult{}, ErrNoPosts
	}

	histogram := BuildHistogram(posts, loc)
	optimalHours, maxCount := OptimalHours(histogram)

	result := models.AnalysisResult{
		Subreddit:        subreddit,
		Timezone:         timezoneID,
		HourlyPostCounts: histogram,
		OptimalHours:     optimalHours,
		MaxPostCount:     maxCount,
	}

	a.cache.Set(key, result)

	a.log.WithFields(logrus.Fields{
		"subreddit":      subreddit,
		"timezone":       timezoneID,
		"post_count":     len(posts),
		"optimal_hours":  optimalHours,
		"max_post_count": maxCount,
	}).Info("Analysis successful")

	return result, nil
}
