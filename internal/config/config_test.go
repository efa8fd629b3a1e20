package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/answerset/internal/answerset"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "LOG_MODE", "MAX_CHOICES", "MAX_UNITS", "ENABLE_HISTORY", "OPTIONS_FILE", "CORS_ORIGINS_OFFLINE", "REDIS_ADDR", "REDIS_CHANNEL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "dev", c.LogMode)
	assert.Equal(t, answerset.DefaultMaxChoices, c.MaxChoices)
	assert.Equal(t, answerset.DefaultMaxUnits, c.MaxUnits)
	assert.True(t, c.EnableHistory)
	assert.Empty(t, c.OptionsFile)
	assert.Empty(t, c.RedisAddr)
	assert.Equal(t, "answerset.events", c.RedisChannel)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3010"}, c.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("LOG_MODE", "")
	t.Setenv("MAX_CHOICES", "8")
	t.Setenv("MAX_UNITS", "-3")
	t.Setenv("ENABLE_HISTORY", "no")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("OPTIONS_FILE", "/etc/answerset/options.yaml")
	t.Setenv("REDIS_ADDR", " redis:6379 ")

	c := FromEnv()
	assert.Equal(t, ModeOnline, c.Mode)
	assert.Equal(t, "prod", c.LogMode)
	assert.True(t, c.LogRedact)
	assert.Equal(t, 8, c.MaxChoices)
	assert.Equal(t, answerset.DefaultMaxUnits, c.MaxUnits)
	assert.False(t, c.EnableHistory)
	assert.Equal(t, "/etc/answerset/options.yaml", c.OptionsFile)
	assert.Equal(t, "redis:6379", c.RedisAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins())
}
