package report

import (
	"fmt"

	"github.com/arloliu/cellreport/internal/options"
)

// Config holds the reader settings chosen at Open.
type Config struct {
	cacheCapacity int
	concurrent    bool
}

// Option configures a Report.
type Option = options.Option[*Config]

func newConfig() *Config {
	return &Config{}
}

// WithCacheCapacity sets the number of block cache slots.
//
// Block id i uses slot i mod capacity, so a capacity that covers the distinct
// block id range of a query avoids re-fetches. Defaults to cache.DefaultCapacity.
func WithCacheCapacity(capacity int) Option {
	return options.New(func(c *Config) error {
		if capacity < 1 {
			return fmt.Errorf("invalid cache capacity: %d", capacity)
		}
		c.cacheCapacity = capacity

		return nil
	})
}

// WithConcurrentAccess serializes block cache access so that views of the same
// Report can be loaded from several goroutines.
func WithConcurrentAccess() Option {
	return options.NoError(func(c *Config) {
		c.concurrent = true
	})
}
