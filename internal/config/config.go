package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Role identifies which of the two bot processes is being configured.
type Role string

const (
	RoleUserBot Role = "userbot"
	RoleTABot   Role = "tabot"
)

// Config aggregates runtime configuration for a bot process.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Chat         ChatConfig
	Peer         PeerConfig
	Reports      ReportsConfig
	Redis        RedisConfig
	Postgres     PostgresConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// ChatConfig configures the outbound chat channel and reply-token signing.
type ChatConfig struct {
	// DeliveryURL is the base URL of the chat channel service that accepts
	// out-of-band activity pushes per conversation.
	DeliveryURL string
	// ChannelID identifies the chat channel inside reply tokens.
	ChannelID string
	// ReplyTokenSecret signs serialized conversation references. Both bot
	// processes must share the same secret.
	ReplyTokenSecret string
}

// PeerConfig points at the other bot process.
type PeerConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// ReportsConfig controls where handover report files are written.
type ReportsConfig struct {
	Dir string
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// Redis-backed conversation state store and falls back to in-memory state.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PostgresConfig holds connection values for the optional report archive.
// An empty DSN disables the archive.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// NotificationConfig holds the optional webhook used by the notification
// sidecar.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying role-specific
// defaults where possible.
func Load(role Role) (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	defaultPort := "3979"
	defaultPeer := "http://localhost:3978"
	if role == RoleTABot {
		defaultPort = "3978"
		defaultPeer = "http://localhost:3979"
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", string(role)),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", defaultPort),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Chat: ChatConfig{
			DeliveryURL:      getEnv("CHAT_DELIVERY_URL", "http://localhost:3980"),
			ChannelID:        getEnv("CHAT_CHANNEL_ID", "msteams"),
			ReplyTokenSecret: getEnv("REPLY_TOKEN_SECRET", "dev-secret"),
		},
		Peer: PeerConfig{
			BaseURL:        getEnv("PEER_BASE_URL", defaultPeer),
			TimeoutSeconds: getEnvAsInt("PEER_TIMEOUT_SECONDS", 10),
		},
		Reports: ReportsConfig{
			Dir: getEnv("REPORTS_DIR", "handover-reports"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the peer call timeout duration.
func (p PeerConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
