package queue

import "time"

// Config holds queue settings loaded from the environment.
type Config struct {
	PollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"5s"`
	ErrorBackoff      time.Duration `env:"QUEUE_ERROR_BACKOFF" envDefault:"10s"`
	DrainInterval     time.Duration `env:"QUEUE_DRAIN_INTERVAL" envDefault:"1m"`
	DrainBatchSize    int           `env:"QUEUE_DRAIN_BATCH_SIZE" envDefault:"10"`
	DefaultMaxRetries int           `env:"QUEUE_DEFAULT_MAX_RETRIES" envDefault:"3"`
	KeyPrefix         string        `env:"QUEUE_KEY_PREFIX" envDefault:"jobkit:queue"`
	ShutdownTimeout   time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the same values as the env defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:      5 * time.Second,
		ErrorBackoff:      10 * time.Second,
		DrainInterval:     time.Minute,
		DrainBatchSize:    10,
		DefaultMaxRetries: DefaultMaxRetries,
		KeyPrefix:         DefaultKeyPrefix,
		ShutdownTimeout:   30 * time.Second,
	}
}

// WorkerOptions converts the config into worker options.
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithPollInterval(c.PollInterval),
		WithErrorBackoff(c.ErrorBackoff),
		WithBatchSize(c.DrainBatchSize),
	}
}
