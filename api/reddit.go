package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/reddintoit/redd-into-it/models"
)

const (
	baseURL  = "https://oauth.reddit.com"
	authURL  = "https://www.reddit.com/api/v1/access_token"
	pageSize = 100 // max number of posts per listing request
)

// ErrSubredditNotFound is returned when Reddit reports that the requested
// subreddit does not exist (404, or the search redirect Reddit serves for
// unknown names).
var ErrSubredditNotFound = errors.New("subreddit not found")

// RedditClient is an application-only (client credentials) Reddit API client
type RedditClient struct {
	clientID     string
	clientSecret string
	userAgent    string
	baseURL      string
	authURL      string
	httpClient   *http.Client
	accessToken  string
	tokenExpiry  time.Time
	mutex        sync.RWMutex
	limiter      *rate.Limiter
	log          *logrus.Logger
}

// redditListing is the listing envelope Reddit wraps around posts and
// subreddit search results
type redditListing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Author      string  `json:"author"`
				Subreddit   string  `json:"subreddit"`
				CreatedUTC  float64 `json:"created_utc"`
				Permalink   string  `json:"permalink"`
				DisplayName string  `json:"display_name"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewRedditClient creates a new Reddit API client
func NewRedditClient(clientID, clientSecret, userAgent string, maxRequestsPerMinute int, log *logrus.Logger) *RedditClient {
	// default to 100 requests per minute (real Reddit limit)
	if maxRequestsPerMinute <= 0 {
		maxRequestsPerMinute = 100
	}

	// pace at 95% of the allocation for a safety buffer, single-token
	// bucket so there is no burst
	targetRate := rate.Limit(float64(maxRequestsPerMinute) / 60.0 * 0.95)

	return &RedditClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		baseURL:      baseURL,
		authURL:      authURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			// Reddit redirects listing requests for unknown subreddit
			// names into search; surface the redirect itself so it can
			// be mapped to not-found
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter:      rate.NewLimiter(targetRate, 1),
		log:          log,
	}
}

// authenticate obtains an access token if the cached one is missing or expired
func (r *RedditClient) authenticate(ctx context.Context) error {
	r.mutex.RLock()
	token := r.accessToken
	expiry := r.tokenExpiry
	r.mutex.RUnlock()

	if token != "" && time.Now().Before(expiry) {
		return nil
	}

	r.log.Info("Authenticating with Reddit API")

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait cancelled during authentication: %w", err)
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}

	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var authResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	r.mutex.Lock()
	r.accessToken = authResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn) * time.Second)
	r.mutex.Unlock()

	r.log.Info("Successfully authenticated with Reddit API")
	return nil
}

// getListing performs an authenticated GET against an oauth.reddit.com
// endpoint and decodes the listing envelope
func (r *RedditClient) getListing(ctx context.Context, endpoint string) (*redditListing, error) {
	if err := r.authenticate(ctx); err != nil {
		return nil, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	r.mutex.RLock()
	token := r.accessToken
	r.mutex.RUnlock()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Reddit answers a request for an unknown subreddit with a 404, or
	// (for some name shapes) a redirect into search
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusFound {
		return nil, ErrSubredditNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.log.WithFields(logrus.Fields{
			"endpoint":      endpoint,
			"status_code":   resp.StatusCode,
			"response_body": string(body),
		}).Error("Reddit API error response")
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &listing, nil
}

// SearchSubreddits searches for subreddits matching query, returning at
// most limit matches in Reddit's relevance order
func (r *RedditClient) SearchSubreddits(ctx context.Context, query string, limit int) ([]models.SubredditMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	endpoint := fmt.Sprintf("%s/subreddits/search.json?q=%s&limit=%d", r.baseURL, url.QueryEscape(query), limit)

	listing, err := r.getListing(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	matches := make([]models.SubredditMatch, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		matches = append(matches, models.SubredditMatch{
			Name:  child.Data.DisplayName,
			Title: child.Data.Title,
		})
	}

	r.log.WithFields(logrus.Fields{
		"query": query,
		"count": len(matches),
	}).Info("Subreddit search completed")

	return matches, nil
}

// FetchNewPosts fetches up to window of the newest posts from a subreddit,
// paginating through Reddit's listing API. Returns fewer than window posts
// when the subreddit has fewer.
func (r *RedditClient) FetchNewPosts(ctx context.Context, subreddit string, window int) ([]models.Post, error) {
	if window <= 0 {
		window = pageSize
	}

	posts := make([]models.Post, 0, window)
	after := ""

	for len(posts) < window {
		limit := window - len(posts)
		if limit > pageSize {
			limit = pageSize
		}

		endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d", r.baseURL, url.PathEscape(subreddit), limit)
		if after != "" {
			endpoint += "&after=" + url.QueryEscape(after)
		}

		r.log.WithFields(logrus.Fields{
			"subreddit": subreddit,
			"after":     after,
			"limit":     limit,
		}).Debug("Fetching posts from Reddit API")

		listing, err := r.getListing(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		for _, child := range listing.Data.Children {
			posts = append(posts, models.Post{
				ID:         child.Data.ID,
				Title:      child.Data.Title,
				Author:     child.Data.Author,
				Subreddit:  child.Data.Subreddit,
				CreatedUTC: child.Data.CreatedUTC,
				Permalink:  child.Data.Permalink,
			})
		}

		// an empty page or a missing pagination token means the listing
		// is exhausted
		if len(listing.Data.Children) == 0 || listing.Data.After == "" {
			break
		}
		after = listing.Data.After
	}

	r.log.WithFields(logrus.Fields{
		"subreddit":  subreddit,
		"post_count": len(posts),
	}).Info("Fetched posts from Reddit")

	return posts, nil
}
