package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 30, c.Analysis.Duration)
	assert.Equal(t, []int{1, 5}, c.Analysis.Horizons)
	assert.Equal(t, "calendar", c.Analysis.HorizonMode)
	assert.Equal(t, 120, c.Analysis.LookbackDays)
	assert.Equal(t, "none", c.Store.Type)
	assert.Contains(t, c.Analysis.Exclusions, "Insider Trading")
	assert.Equal(t, "analysis.requests", c.Kafka.RequestTopic)
	assert.Equal(t, 24*time.Hour, c.CacheTTL.Tickers)
	assert.Zero(t, c.CacheTTL.Filings)
}

func TestParseAcceptsHorizonZero(t *testing.T) {
	c, err := Parse([]byte("environment: test\nanalysis:\n  horizons: [0, 3, 10, 30]\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 10, 30}, c.Analysis.Horizons)
}

func TestParseExplicitEmptyExclusions(t *testing.T) {
	c, err := Parse([]byte("environment: test\nanalysis:\n  exclusions: []\n"))
	require.NoError(t, err)
	assert.Empty(t, c.Analysis.Exclusions)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"missing environment": "store:\n  type: none\n",
		"bad store":           "environment: test\nstore:\n  type: mongo\n",
		"sqlite without path": "environment: test\nstore:\n  type: sqlite\n",
		"bad horizon mode":    "environment: test\nanalysis:\n  horizon_mode: weekly\n",
		"negative horizon":    "environment: test\nanalysis:\n  horizons: [1, -5]\n",
		"claude without key":  "environment: test\nsentiment:\n  provider: claude\n",
		"kafka no brokers":    "environment: test\nkafka:\n  enabled: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	env := map[string]string{
		"ALPHAVANTAGE_API_KEY": "av-key",
		"SEC_USER_AGENT":       "EventPulse ops@example.com",
		"STORE_TYPE":           "sqlite",
		"KAFKA_BROKERS":        "a:9092,b:9092",
		"WATCHLIST":            "AAPL,MSFT",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "av-key", c.AlphaVantage.APIKey)
	assert.Equal(t, "EventPulse ops@example.com", c.SEC.UserAgent)
	assert.Equal(t, "sqlite", c.Store.Type)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, []string{"AAPL", "MSFT"}, c.Watchlist.Tickers)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: dev\nserver:\n  port: 9000\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, c.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
