// Package config loads the layered skillpath configuration.
package config

import (
	"time"

	"github.com/abhisek/skillpath/internal/contentgen"
	"github.com/abhisek/skillpath/internal/diagnosis"
	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/ratelimit"
	"github.com/abhisek/skillpath/internal/reviewscan"
)

// Config is the full process configuration.
type Config struct {
	LogLevel string `koanf:"log_level"`

	// DBPath is the SQLite file. Empty resolves to the XDG data dir.
	DBPath string `koanf:"db_path"`

	// Addr is the HTTP listen address for serve.
	Addr string `koanf:"addr"`

	ReviewScanInterval time.Duration `koanf:"review_scan_interval"`

	Engine    mastery.Config    `koanf:"engine"`
	RateLimit ratelimit.Config  `koanf:"rate_limit"`
	Content   contentgen.Config `koanf:"content"`
	Diagnosis diagnosis.Config  `koanf:"diagnosis"`
	LLM       llm.Config        `koanf:"llm"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		ReviewScanInterval: reviewscan.DefaultInterval,
		Engine:             mastery.DefaultConfig(),
		RateLimit:          ratelimit.DefaultConfig(),
		Content:            contentgen.DefaultConfig(),
		Diagnosis:          diagnosis.DefaultConfig(),
		LLM:                llm.DefaultConfig(),
	}
}
