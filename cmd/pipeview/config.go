package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all pipeview configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	APIBaseURL   string   `json:"api_base_url"`
	APIKey       string   `json:"api_key"`
	Query        string   `json:"query"`
	DBPath       string   `json:"db_path"`
	LogLevel     string   `json:"log_level"`
	PollSchedule string   `json:"poll_schedule"`
	Pipelines    []string `json:"pipelines"`
	JobBaseURL   string   `json:"job_base_url"`
}

func defaultConfig() Config {
	return Config{
		APIBaseURL:   "http://localhost:12555/api",
		DBPath:       filepath.Join(pipeviewDir(), "pipeview.db"),
		LogLevel:     "info",
		PollSchedule: "* * * * *",
	}
}

func pipeviewDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pipeview"
	}
	return filepath.Join(home, ".pipeview")
}

func settingsPath() string {
	return filepath.Join(pipeviewDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("PIPEVIEW_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("PIPEVIEW_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("PIPEVIEW_QUERY"); v != "" {
		cfg.Query = v
	}
	if v := os.Getenv("PIPEVIEW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PIPEVIEW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PIPEVIEW_POLL_SCHEDULE"); v != "" {
		cfg.PollSchedule = v
	}
	if v := os.Getenv("PIPEVIEW_PIPELINES"); v != "" {
		cfg.Pipelines = splitList(v)
	}
	if v := os.Getenv("PIPEVIEW_JOB_BASE_URL"); v != "" {
		cfg.JobBaseURL = v
	}

	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
