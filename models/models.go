package models

// Post represents a Reddit post. Only the creation time feeds the analysis
// pipeline; posts live for the duration of a single request.
type Post struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
	Permalink  string  `json:"permalink"`
}

// SubredditMatch is a single subreddit search hit
type SubredditMatch struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// SearchResponse wraps search results for the HTTP response body
type SearchResponse struct {
	Results []SubredditMatch `json:"results"`
}

// AnalysisResult holds a completed posting-activity analysis for one
// subreddit under one timezone
type AnalysisResult struct {
	Subreddit        string  `json:"subreddit"`
	Timezone         string  `json:"timezone"`
	HourlyPostCounts [24]int `json:"hourly_post_counts"`
	OptimalHours     []int   `json:"optimal_hours"`
	MaxPostCount     int     `json:"max_post_count"`
}
