package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	size  int
	name  string
	calls []string
}

func withSize(n int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if n <= 0 {
			return errors.New("size must be positive")
		}
		c.size = n
		c.calls = append(c.calls, "size")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.name = name
		c.calls = append(c.calls, "name")
	})
}

func TestApply(t *testing.T) {
	t.Run("AppliesInOrder", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, withName("a"), withSize(4), nil, withName("b")))
		require.Equal(t, 4, cfg.size)
		require.Equal(t, "b", cfg.name)
		require.Equal(t, []string{"name", "size", "name"}, cfg.calls)
	})

	t.Run("StopsOnError", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withSize(-1), withName("never"))
		require.EqualError(t, err, "size must be positive")
		require.Empty(t, cfg.name)
	})

	t.Run("NoOptions", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg))
		require.Zero(t, cfg.size)
	})
}
