// Package server provides configuration helpers that define runtime
// defaults, validation, and rate-limiting parameters for the Perch service.
package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including security controls
// and the fan-out buffer sizes.
type Config struct {
	Addr           string
	Env            string
	AllowedOrigins []string

	// MaxMessageChars bounds a chat message's length in characters.
	// Oversized messages are dropped, not rejected.
	MaxMessageChars int

	// RoomBuffer is the per-subscriber broadcast buffer. Large enough that
	// bursty rooms do not drop messages, small enough to bound memory.
	RoomBuffer int

	RateLimit RateLimitConfig
}

// NewConfig creates a Config instance populated with default values for all
// settings.
func NewConfig() *Config {
	return &Config{
		Addr: ":8080",
		Env:  "dev",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageChars: 128,
		RoomBuffer:      100000,
		RateLimit: RateLimitConfig{
			Burst:          100,
			RefillInterval: time.Second,
		},
	}
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set or
// cannot be parsed.
func NewConfigFromEnv() *Config {
	cfg := NewConfig()

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxChars := os.Getenv("MAX_MESSAGE_CHARS"); maxChars != "" {
		cfg.MaxMessageChars = parseIntValue(maxChars, cfg.MaxMessageChars)
	}

	if buffer := os.Getenv("ROOM_BUFFER"); buffer != "" {
		cfg.RoomBuffer = parseIntValue(buffer, cfg.RoomBuffer)
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}

	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseRefillInterval(interval, cfg.RateLimit.RefillInterval)
	}

	return cfg
}

// sanitize replaces zero or negative settings with their defaults so a
// partially filled Config is always usable.
func (c *Config) sanitize() {
	def := NewConfig()

	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.Env == "" {
		c.Env = def.Env
	}
	if c.MaxMessageChars <= 0 {
		c.MaxMessageChars = def.MaxMessageChars
	}
	if c.RoomBuffer <= 0 {
		c.RoomBuffer = def.RoomBuffer
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseRefillInterval(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
