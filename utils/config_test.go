package utils

import (
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func setRequiredEnv(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	t.Setenv("REDDIT_USER_AGENT", "redd-into-it/1.0 by tester")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "test-value")

	value := getEnv("TEST_ENV_VAR", "default-value")
	assert.Equal(t, "test-value", value)

	value = getEnv("NON_EXISTENT_VAR", "default-value")
	assert.Equal(t, "default-value", value)
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")

	value := getEnvAsInt("TEST_INT_VAR", 10)
	assert.Equal(t, 42, value)

	t.Setenv("TEST_INVALID_INT_VAR", "not-an-int")

	value = getEnvAsInt("TEST_INVALID_INT_VAR", 10)
	assert.Equal(t, 10, value)

	value = getEnvAsInt("NON_EXISTENT_VAR", 10)
	assert.Equal(t, 10, value)
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION_VAR", "90s")

	value := getEnvAsDuration("TEST_DURATION_VAR", time.Minute)
	assert.Equal(t, 90*time.Second, value)

	t.Setenv("TEST_INVALID_DURATION_VAR", "soon")

	value = getEnvAsDuration("TEST_INVALID_DURATION_VAR", time.Minute)
	assert.Equal(t, time.Minute, value)
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Single origin",
			input:    "http://localhost:3000",
			expected: []string{"http://localhost:3000"},
		},
		{
			name:     "Multiple origins",
			input:    "https://redd-into-it.vercel.app,http://localhost:3000",
			expected: []string{"https://redd-into-it.vercel.app", "http://localhost:3000"},
		},
		{
			name:     "Whitespace and empty parts",
			input:    " https://a.example ,, http://b.example ",
			expected: []string{"https://a.example", "http://b.example"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := parseOrigins(tc.input)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("parseOrigins(%q) = %v; want %v", tc.input, result, tc.expected)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	config, err := LoadConfig("./does-not-exist.env", testLogger())
	require.NoError(t, err)

	assert.Equal(t, 5000, config.Server.Port)
	assert.Equal(t, 1000, config.Reddit.FetchWindow)
	assert.Equal(t, 5*time.Minute, config.Cache.TTL)
	assert.Equal(t, 10, config.RateLimit.SearchPerMinute)
	assert.Equal(t, 10, config.RateLimit.AnalysisPerMinute)
	assert.Equal(t, 50, config.RateLimit.GlobalPerHour)
	assert.Equal(t,
		[]string{"https://redd-into-it.vercel.app", "http://localhost:3000"},
		config.Server.AllowedOrigins,
	)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("REDDIT_FETCH_WINDOW", "500")

	config, err := LoadConfig("./does-not-exist.env", testLogger())
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 2*time.Minute, config.Cache.TTL)
	assert.Equal(t, 500, config.Reddit.FetchWindow)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Reddit: RedditConfig{
				ClientID:     "id",
				ClientSecret: "secret",
				UserAgent:    "agent",
				FetchWindow:  1000,
			},
			Server: ServerConfig{
				Port:           5000,
				AllowedOrigins: []string{"http://localhost:3000"},
			},
			Cache: CacheConfig{TTL: 5 * time.Minute},
		}
	}

	assert.NoError(t, validateConfig(valid()))

	missingID := valid()
	missingID.Reddit.ClientID = ""
	err := validateConfig(missingID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REDDIT_CLIENT_ID")

	missingAgent := valid()
	missingAgent.Reddit.UserAgent = ""
	err = validateConfig(missingAgent)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REDDIT_USER_AGENT")

	badWindow := valid()
	badWindow.Reddit.FetchWindow = 0
	err = validateConfig(badWindow)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REDDIT_FETCH_WINDOW")

	badPort := valid()
	badPort.Server.Port = 0
	assert.Error(t, validateConfig(badPort))

	badTTL := valid()
	badTTL.Cache.TTL = 0
	assert.Error(t, validateConfig(badTTL))

	noOrigins := valid()
	noOrigins.Server.AllowedOrigins = nil
	assert.Error(t, validateConfig(noOrigins))
}
