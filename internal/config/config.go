package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the kiosk runtime configuration loaded from environment variables.
type App struct {
	Env          string
	AdminPort    string
	DeviceID     string
	BackendURL   string
	PushBackend  string
	PushURL      string
	RedisAddr    string
	PushInbound  string
	PushOutbound string
	FrameSource  string

	TickInterval      time.Duration
	MinFrameInterval  time.Duration
	FrameQuality      int
	CooldownWindow    time.Duration
	AnnounceDuration  time.Duration
	StatusRevertAfter time.Duration

	RateLimitPerMin int
}

// Load returns kiosk config populated from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() App {
	_ = godotenv.Load()
	return App{
		Env:          getEnv("APP_ENV", "dev"),
		AdminPort:    getEnv("ADMIN_PORT", "8082"),
		DeviceID:     getEnv("DEVICE_ID", "kiosk-dev"),
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:8081"),
		PushBackend:  getEnv("PUSH_BACKEND", "websocket"),
		PushURL:      getEnv("PUSH_URL", "ws://localhost:8081/v1/push"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		PushInbound:  getEnv("PUSH_INBOUND", "kiosk:events"),
		PushOutbound: getEnv("PUSH_OUTBOUND", "kiosk:frames"),
		FrameSource:  getEnv("FRAME_SOURCE", "synthetic"),

		TickInterval:      durationEnv("TICK_INTERVAL", 33*time.Millisecond),
		MinFrameInterval:  durationEnv("MIN_FRAME_INTERVAL", 2*time.Second),
		FrameQuality:      intEnv("FRAME_QUALITY", 40),
		CooldownWindow:    durationEnv("COOLDOWN_WINDOW", 5*time.Second),
		AnnounceDuration:  durationEnv("ANNOUNCE_DURATION", time.Second),
		StatusRevertAfter: durationEnv("STATUS_REVERT_AFTER", 3*time.Second),

		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
