package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	failure "github.com/hatsunemiku3939/sqsbatch/policy/failure"
)

const (
	envMaxRetryAttempts = "MAX_RETRY_ATTEMPTS"
	envQueueURL         = "SQS_QUEUE_URL"
	envTableName        = "TABLE_NAME"
	envSimulateDelay    = "SIMULATE_DELAY"
	envLogFormat        = "LOG_FORMAT"
	envLogLevel         = "LOG_LEVEL"
	envLogAddSource     = "LOG_ADD_SOURCE"

	// DefaultMaxRetryAttempts applies when MAX_RETRY_ATTEMPTS is absent or not an integer.
	DefaultMaxRetryAttempts = failure.DefaultMaxRetryAttempts
)

// Config is the process-wide configuration, read once at start-up.
type Config struct {
	MaxRetryAttempts int
	QueueURL         string
	TableName        string
	SimulateDelay    time.Duration
	Logging          LoggingConfig
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string
	Level     string
	AddSource bool
}

// Load reads the configuration from the environment. It never fails;
// unparseable values fall back to their defaults.
func Load() Config {
	return Config{
		MaxRetryAttempts: getenvInt(envMaxRetryAttempts, DefaultMaxRetryAttempts),
		QueueURL:         strings.TrimSpace(os.Getenv(envQueueURL)),
		TableName:        strings.TrimSpace(os.Getenv(envTableName)),
		SimulateDelay:    getenvDuration(envSimulateDelay, 0),
		Logging: LoggingConfig{
			Format:    strings.TrimSpace(os.Getenv(envLogFormat)),
			Level:     strings.TrimSpace(os.Getenv(envLogLevel)),
			AddSource: parseBool(os.Getenv(envLogAddSource)),
		},
	}
}

// getenvInt reads an integer from env with default. Any integer is accepted;
// zero or a negative threshold means transient failures are never retried.
func getenvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func parseBool(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
