package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, c.Validate())
	assert.Equal(t, 4000, c.Tables.Pit.DefaultLifetime)
	assert.True(t, c.Fw.NackOnReject)
	assert.Equal(t, 10000, c.Tables.Tib.PruneInterval)
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	c.Core.LogLevel = "LOUD"
	c.Fw.Threads = 0
	c.Tables.Tib.DefaultLifetime = -1
	c.Tables.Tib.PruneInterval = -5

	err := c.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "core.log_level")
	assert.Contains(t, err.Error(), "fw.threads")
	assert.Contains(t, err.Error(), "tables.tib.default_lifetime")
	assert.Contains(t, err.Error(), "tables.tib.prune_interval")
	assert.NotContains(t, err.Error(), "fw.queue_size")
}

func TestResolveRelPath(t *testing.T) {
	c := DefaultConfig()
	c.Core.BaseDir = "/etc/kite"
	assert.Equal(t, "/etc/kite/kite.log", c.ResolveRelPath("kite.log"))
	assert.Equal(t, "/var/log/kite.log", c.ResolveRelPath("/var/log/kite.log"))
}
