package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mind-engage/answerset/internal/answerset"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	LogMode   string // dev|prod
	LogLevel  string
	LogRedact bool

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// YAML option map seeded as the "default" profile.
	OptionsFile string
	MaxChoices  int
	MaxUnits    int

	EnableHistory bool
	SiteID        string

	// Recorded events are also published here when set.
	RedisAddr    string
	RedisChannel string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	logMode := "dev"
	if mode == ModeOnline {
		logMode = "prod"
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		LogMode:            envOr("LOG_MODE", logMode),
		LogLevel:           envOr("LOG_LEVEL", ""),
		LogRedact:          envBool("LOG_REDACT", mode == ModeOnline),
		AuthHMACSecret:     envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:          envOr("ADMIN_USER", "admin"),
		AdminPassHash:      envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://cards.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
		OptionsFile:        os.Getenv("OPTIONS_FILE"),
		MaxChoices:         envInt("MAX_CHOICES", answerset.DefaultMaxChoices),
		MaxUnits:           envInt("MAX_UNITS", answerset.DefaultMaxUnits),
		EnableHistory:      envBool("ENABLE_HISTORY", true),
		SiteID:             envOr("SITE_ID", "local"),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisChannel:       envOr("REDIS_CHANNEL", "answerset.events"),
	}
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

// envInt ignores values that are not positive integers.
func envInt(k string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
