package idempotency

import "time"

// DefaultTTL is how long a key blocks duplicates.
const DefaultTTL = 15 * time.Minute

type Config struct {
	TTL       time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"15m"`
	KeyPrefix string        `env:"IDEMPOTENCY_KEY_PREFIX" envDefault:"jobkit:idempotency"`
}
