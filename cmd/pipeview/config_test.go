package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "http://localhost:12555/api", cfg.APIBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "* * * * *", cfg.PollSchedule)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PIPEVIEW_API_BASE_URL", "http://recorder:9000/api")
	t.Setenv("PIPEVIEW_LOG_LEVEL", "debug")
	t.Setenv("PIPEVIEW_PIPELINES", "pl-1, pl-2,,pl-3")
	t.Setenv("PIPEVIEW_POLL_SCHEDULE", "*/5 * * * *")

	cfg := loadConfig()

	assert.Equal(t, "http://recorder:9000/api", cfg.APIBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"pl-1", "pl-2", "pl-3"}, cfg.Pipelines)
	assert.Equal(t, "*/5 * * * *", cfg.PollSchedule)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a"}, splitList("a"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a , b "))
}
