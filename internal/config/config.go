// Package config provides environment configuration for the sync daemon.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Backend settings
	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration

	// Session identity
	TenantID string
	UserID   string

	// Polling intervals
	UnreadPollInterval  time.Duration
	ReplyBeaconInterval time.Duration
	ReplyPollInterval   time.Duration

	// Routing
	MessagesRoute string
	InitialRoute  string

	// Sound
	SoundEnabled        bool
	SoundRequireGesture bool
	SoundMaxRepeats     int
	SoundSpacing        time.Duration

	// NATS settings
	NATSEnabled  bool
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Local API settings
	JWTSecret          string
	CORSAllowedOrigins []string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 0),

		// Backend; zero timeout keeps the HTTP client default
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:5000/api"),
		BackendToken:   getEnv("BACKEND_TOKEN", ""),
		BackendTimeout: getDurationEnv("BACKEND_TIMEOUT", 0),

		// Session
		TenantID: getEnv("TENANT_ID", ""),
		UserID:   getEnv("USER_ID", ""),

		// Polling
		UnreadPollInterval:  getDurationEnv("UNREAD_POLL_INTERVAL", 5*time.Second),
		ReplyBeaconInterval: getDurationEnv("REPLY_BEACON_INTERVAL", 8*time.Second),
		ReplyPollInterval:   getDurationEnv("REPLY_POLL_INTERVAL", 3*time.Second),

		// Routing
		MessagesRoute: getEnv("MESSAGES_ROUTE", "/messages"),
		InitialRoute:  getEnv("INITIAL_ROUTE", "/dashboard"),

		// Sound
		SoundEnabled:        getBoolEnv("SOUND_ENABLED", true),
		SoundRequireGesture: getBoolEnv("SOUND_REQUIRE_GESTURE", false),
		SoundMaxRepeats:     clampInt(getIntEnv("SOUND_MAX_REPEATS", 3), 1, 3),
		SoundSpacing:        getDurationEnv("SOUND_SPACING", 180*time.Millisecond),

		// NATS
		NATSEnabled:  getBoolEnv("NATS_ENABLED", false),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Local API
		JWTSecret:          getEnv("JWT_SECRET", "development-secret-change-in-production"),
		CORSAllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", nil),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
