package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/Craig-Turley/listsync/pkg/utils"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	DBDriver string
	DBDSN    string
	NodeId   int64

	MailChimpBaseURL string
	MailChimpAPIKey  string
	MailChimpTimeout time.Duration

	RedisURL string
	LockTTL  time.Duration

	JWTSecret   string
	CORSOrigins []string

	// empty disables the in-process audit
	AuditSchedule string

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	godotenv.Load()

	nodeId, err := strconv.ParseInt(utils.Getenv("NODE_ID", "1"), 10, 64)
	if err != nil {
		return nil, utils.NewError("Couldn't parse NODE_ID %s", utils.Getenv("NODE_ID", ""))
	}

	timeout, err := time.ParseDuration(utils.Getenv("MAILCHIMP_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}

	lockTTL, err := time.ParseDuration(utils.Getenv("LOCK_TTL", "30s"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Addr:             utils.Getenv("ADDR", ":8080"),
		DBDriver:         utils.Getenv("DB_DRIVER", "sqlite3"),
		DBDSN:            utils.Getenv("DB_DSN", "./listsync.db"),
		NodeId:           nodeId,
		MailChimpBaseURL: utils.Getenv("MAILCHIMP_BASE_URL", "https://us1.api.mailchimp.com/3.0"),
		MailChimpAPIKey:  utils.Getenv("MAILCHIMP_API_KEY", ""),
		MailChimpTimeout: timeout,
		RedisURL:         utils.Getenv("REDIS_URL", ""),
		LockTTL:          lockTTL,
		JWTSecret:        utils.Getenv("JWT_SECRET", ""),
		CORSOrigins:      splitList(utils.Getenv("CORS_ORIGINS", "http://localhost:5173")),
		AuditSchedule:    utils.Getenv("AUDIT_SCHEDULE", ""),
		LogLevel:         utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:        utils.Getenv("LOG_FORMAT", "console"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
