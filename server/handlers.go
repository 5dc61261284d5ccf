package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reddintoit/redd-into-it/analysis"
	"github.com/reddintoit/redd-into-it/api"
	"github.com/reddintoit/redd-into-it/models"
)

// handleTest confirms the backend is up and the Reddit client is wired
func (s *Server) handleTest(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Backend connected and Reddit API initialized!",
	})
}

// handleSearch searches for subreddits by name. Responses are cached per
// query string.
func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		s.log.Warn("Search query missing")
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": `Query parameter "q" is required.`,
		})
	}

	if cached, hit := s.searchCache.Get(query); hit {
		s.log.WithField("query", query).Info("Returning cached search results")
		return c.JSON(http.StatusOK, cached)
	}

	matches, err := s.searcher.SearchSubreddits(c.Request().Context(), query, searchResultLimit)
	if err != nil {
		s.log.WithError(err).Error("Subreddit search failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("An unexpected error occurred: %s", err),
		})
	}

	response := models.SearchResponse{Results: matches}
	s.searchCache.Set(query, response)

	s.log.WithFields(logrus.Fields{
		"query": query,
		"count": len(matches),
	}).Info("Search query returned results")

	return c.JSON(http.StatusOK, response)
}

// handleAnalysis analyzes a subreddit's recent posting activity and maps
// the analyzer's error variants to HTTP status codes
func (s *Server) handleAnalysis(c echo.Context) error {
	subreddit := c.Param("subreddit")
	timezoneID := c.QueryParam("timezone")

	result, err := s.analyzer.Analyze(c.Request().Context(), subreddit, timezoneID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, result)
	case errors.Is(err, analysis.ErrInvalidTimezone):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid timezone provided.",
		})
	case errors.Is(err, api.ErrSubredditNotFound):
		s.log.WithField("subreddit", subreddit).Error("Subreddit not found")
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Subreddit not found.",
		})
	case errors.Is(err, analysis.ErrNoPosts):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "No posts found in the specified subreddit.",
		})
	default:
		s.log.WithError(err).Error("Unexpected analysis error")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("An unexpected error occurred: %s", err),
		})
	}
}
