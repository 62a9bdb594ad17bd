package tasks

import "time"

// Config tunes the shared worker pool behind the delivery queues.
// Retry, timeout and retention policy are decided per queue, in each
// task type's QueueConfig.
type Config struct {
	// Workers is the number of concurrent queue workers.
	Workers int

	// ReleaseAfter returns a claimed but stalled task to the queue.
	ReleaseAfter time.Duration

	// CleanupInterval is the sweep cadence for expired task rows.
	CleanupInterval time.Duration
}

// DefaultConfig sizes the pool for a single-library deployment: notice
// volume is small and bursty, two workers keep up.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = 15 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Hour
	}
	return c
}
