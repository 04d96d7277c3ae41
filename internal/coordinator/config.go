package coordinator

import "time"

// Config configures the Coordinator.
type Config struct {
	// PerTargetTimeout is the maximum time one target may spend on a batch.
	PerTargetTimeout time.Duration `json:"per_target_timeout"`

	// MaxWords bounds the words in one batch.
	MaxWords int `json:"max_words"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PerTargetTimeout: 5 * time.Second,
		MaxWords:         256,
	}
}
