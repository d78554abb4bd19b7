package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{envMaxRetryAttempts, envQueueURL, envTableName, envSimulateDelay, envLogFormat, envLogLevel, envLogAddSource} {
		t.Setenv(key, "")
	}

	cfg := Load()

	// An empty MAX_RETRY_ATTEMPTS is present but not an integer.
	assert.Equal(t, DefaultMaxRetryAttempts, cfg.MaxRetryAttempts)
	assert.Empty(t, cfg.QueueURL)
	assert.Empty(t, cfg.TableName)
	assert.Zero(t, cfg.SimulateDelay)
	assert.False(t, cfg.Logging.AddSource)
}

func TestLoad_MaxRetryAttemptsAbsent(t *testing.T) {
	// Setenv restores the original value after the test.
	t.Setenv(envMaxRetryAttempts, "")
	require.NoError(t, os.Unsetenv(envMaxRetryAttempts))

	_, present := os.LookupEnv(envMaxRetryAttempts)
	require.False(t, present)
	assert.Equal(t, DefaultMaxRetryAttempts, Load().MaxRetryAttempts)
}

func TestLoad_MaxRetryAttempts(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"5", 5},
		{" 3 ", 3},
		{"0", 0},
		{"-1", -1},
		{"two", DefaultMaxRetryAttempts},
		{"2.5", DefaultMaxRetryAttempts},
		{"", DefaultMaxRetryAttempts},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Setenv(envMaxRetryAttempts, tc.raw)
			assert.Equal(t, tc.want, Load().MaxRetryAttempts)
		})
	}
}

func TestLoad_Values(t *testing.T) {
	t.Setenv(envQueueURL, "http://localhost:4566/000000000000/sbl-service-request-queue")
	t.Setenv(envTableName, "sbl_service_account_request")
	t.Setenv(envSimulateDelay, "3s")
	t.Setenv(envLogFormat, "text")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envLogAddSource, "yes")

	cfg := Load()

	assert.Equal(t, "http://localhost:4566/000000000000/sbl-service-request-queue", cfg.QueueURL)
	assert.Equal(t, "sbl_service_account_request", cfg.TableName)
	assert.Equal(t, 3*time.Second, cfg.SimulateDelay)
	assert.Equal(t, LoggingConfig{Format: "text", Level: "debug", AddSource: true}, cfg.Logging)
}

func TestLoad_InvalidDelay(t *testing.T) {
	t.Setenv(envSimulateDelay, "soon")
	assert.Zero(t, Load().SimulateDelay)

	t.Setenv(envSimulateDelay, "-1s")
	assert.Zero(t, Load().SimulateDelay)
}
