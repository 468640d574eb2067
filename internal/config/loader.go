package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies GOMBOT_* environment variable overrides, and
// returns the final Config. An empty path skips the file and starts from the
// defaults alone. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known GOMBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── App ──
	setStr(&cfg.App.Mode, "GOMBOT_MODE")
	setStr(&cfg.Logging.Level, "GOMBOT_LOG_LEVEL")

	// ── Server ──
	setStr(&cfg.Server.Host, "GOMBOT_SERVER_HOST")
	setInt(&cfg.Server.Port, "GOMBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "GOMBOT_SERVER_CORS_ORIGINS")
	setDuration(&cfg.Server.ReadTimeout, "GOMBOT_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "GOMBOT_SERVER_WRITE_TIMEOUT")

	// ── GoMarket ──
	setStr(&cfg.GoMarket.BaseURL, "GOMBOT_GOMARKET_BASE_URL")
	setDuration(&cfg.GoMarket.Timeout, "GOMBOT_GOMARKET_TIMEOUT")
	setBool(&cfg.GoMarket.MockFallback, "GOMBOT_GOMARKET_MOCK_FALLBACK")
	setBool(&cfg.GoMarket.MockOnly, "GOMBOT_GOMARKET_MOCK_ONLY")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "GOMBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "GOMBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "GOMBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "GOMBOT_REDIS_DB")
	setDuration(&cfg.Redis.TickerTTL, "GOMBOT_REDIS_TICKER_TTL")
	setInt64(&cfg.Redis.StreamMaxLen, "GOMBOT_REDIS_STREAM_MAX_LEN")

	// ── Notify ──
	setBool(&cfg.Notify.Enabled, "GOMBOT_NOTIFY_ENABLED")
	setStr(&cfg.Notify.TelegramToken, "GOMBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "GOMBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "GOMBOT_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Monitor ──
	setDuration(&cfg.Monitor.UpdateInterval, "GOMBOT_MONITOR_UPDATE_INTERVAL")
	setFloat64(&cfg.Monitor.DefaultThresholdPct, "GOMBOT_MONITOR_DEFAULT_THRESHOLD_PCT")
	setFloat64(&cfg.Monitor.ResetFactor, "GOMBOT_MONITOR_RESET_FACTOR")
	setInt(&cfg.Monitor.HistoryLimit, "GOMBOT_MONITOR_HISTORY_LIMIT")
	setInt(&cfg.Monitor.AlertQueueSize, "GOMBOT_MONITOR_ALERT_QUEUE_SIZE")
	setStringSlice(&cfg.Monitor.Exchanges, "GOMBOT_MONITOR_EXCHANGES")

	// ── CBBO ──
	setDuration(&cfg.CBBO.FetchTimeout, "GOMBOT_CBBO_FETCH_TIMEOUT")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
