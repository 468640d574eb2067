// Package config defines the top-level configuration for the gomarket bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by GOMBOT_* environment variables.
type Config struct {
	App      AppConfig      `toml:"app"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
	GoMarket GoMarketConfig `toml:"gomarket"`
	Redis    RedisConfig    `toml:"redis"`
	Notify   NotifyConfig   `toml:"notify"`
	Monitor  MonitorConfig  `toml:"monitor"`
	CBBO     CBBOConfig     `toml:"cbbo"`
}

// AppConfig selects the top-level run mode.
type AppConfig struct {
	// Mode is either "server" (HTTP API + websocket) or "watch" (headless
	// monitors with notification delivery only).
	Mode string `toml:"mode"`
}

// LoggingConfig holds structured-logging parameters.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// GoMarketConfig holds GoMarket REST API parameters.
type GoMarketConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
	// MockFallback degrades ticker fetches to the deterministic synthetic
	// generator when the upstream API fails.
	MockFallback bool `toml:"mock_fallback"`
	// MockOnly serves every request from the synthetic generator without
	// touching the network.
	MockOnly bool `toml:"mock_only"`
}

// RedisConfig holds Redis connection parameters. The bot runs fully without
// Redis; enabling it adds the ticker cache, the alert stream, and the
// websocket fan-out.
type RedisConfig struct {
	Enabled      bool     `toml:"enabled"`
	Addr         string   `toml:"addr"`
	Password     string   `toml:"password"`
	DB           int      `toml:"db"`
	TickerTTL    duration `toml:"ticker_ttl"`
	StreamMaxLen int64    `toml:"stream_max_len"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	Enabled           bool   `toml:"enabled"`
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// MonitorConfig holds arbitrage monitor parameters.
type MonitorConfig struct {
	UpdateInterval      duration `toml:"update_interval"`
	DefaultThresholdPct float64  `toml:"default_threshold_pct"`
	// ResetFactor scales the threshold down to the re-arm level; a fired
	// monitor stays quiet until the spread magnitude drops below
	// threshold * reset_factor.
	ResetFactor    float64 `toml:"reset_factor"`
	HistoryLimit   int     `toml:"history_limit"`
	AlertQueueSize int     `toml:"alert_queue_size"`
	// Exchanges is the default venue set for CBBO queries that do not name
	// their own.
	Exchanges []string     `toml:"exchanges"`
	Pairs     []PairConfig `toml:"pairs"`
}

// PairConfig describes one monitored pair started at boot. An empty
// market_type defaults to "spot"; a zero threshold_pct uses the global
// default.
type PairConfig struct {
	ID           string  `toml:"id"`
	SymbolA      string  `toml:"symbol_a"`
	ExchangeA    string  `toml:"exchange_a"`
	MarketTypeA  string  `toml:"market_type_a"`
	SymbolB      string  `toml:"symbol_b"`
	ExchangeB    string  `toml:"exchange_b"`
	MarketTypeB  string  `toml:"market_type_b"`
	ThresholdPct float64 `toml:"threshold_pct"`
}

// CBBOConfig holds consolidated best bid/offer parameters.
type CBBOConfig struct {
	// FetchTimeout bounds each per-exchange ticker fetch inside one CBBO
	// computation.
	FetchTimeout duration `toml:"fetch_timeout"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		App: AppConfig{
			Mode: "server",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			CORSOrigins:  []string{"*"},
			ReadTimeout:  duration{15 * time.Second},
			WriteTimeout: duration{15 * time.Second},
		},
		GoMarket: GoMarketConfig{
			BaseURL:      "https://gomarket-api.goquant.io/api",
			Timeout:      duration{10 * time.Second},
			MockFallback: true,
			MockOnly:     false,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			TickerTTL:    duration{2 * time.Second},
			StreamMaxLen: 10000,
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
		Monitor: MonitorConfig{
			UpdateInterval:      duration{15 * time.Second},
			DefaultThresholdPct: 0.5,
			ResetFactor:         0.8,
			HistoryLimit:        100,
			AlertQueueSize:      64,
			Exchanges:           []string{"binance", "okx", "bybit", "deribit"},
		},
		CBBO: CBBOConfig{
			FetchTimeout: duration{5 * time.Second},
		},
	}
}

// validModes enumerates the accepted values for AppConfig.Mode.
var validModes = map[string]bool{
	"server": true,
	"watch":  true,
}

// validLogLevels enumerates the accepted values for LoggingConfig.Level.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.App.Mode)] {
		errs = append(errs, fmt.Sprintf("app: unknown mode %q (valid: server, watch)", c.App.Mode))
	}

	// Logging
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging: unknown level %q (valid: debug, info, warn, error)", c.Logging.Level))
	}

	// Server settings only matter in server mode.
	if strings.ToLower(c.App.Mode) == "server" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.ReadTimeout.Duration <= 0 {
			errs = append(errs, "server: read_timeout must be > 0")
		}
		if c.Server.WriteTimeout.Duration <= 0 {
			errs = append(errs, "server: write_timeout must be > 0")
		}
	}

	// GoMarket
	if !c.GoMarket.MockOnly && c.GoMarket.BaseURL == "" {
		errs = append(errs, "gomarket: base_url must not be empty (or set mock_only)")
	}
	if c.GoMarket.Timeout.Duration <= 0 {
		errs = append(errs, "gomarket: timeout must be > 0")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.TickerTTL.Duration <= 0 {
			errs = append(errs, "redis: ticker_ttl must be > 0")
		}
	}

	// Enabled notify needs at least one channel, and Telegram credentials
	// must be set together.
	if c.Notify.Enabled {
		tgToken := c.Notify.TelegramToken != ""
		tgChat := c.Notify.TelegramChatID != ""
		if tgToken != tgChat {
			errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
		}
		if !tgToken && !tgChat && c.Notify.DiscordWebhookURL == "" {
			errs = append(errs, "notify: no channel configured (set telegram_token/telegram_chat_id or discord_webhook_url)")
		}
	}

	// Monitor
	if c.Monitor.UpdateInterval.Duration <= 0 {
		errs = append(errs, "monitor: update_interval must be > 0")
	}
	if c.Monitor.DefaultThresholdPct <= 0 {
		errs = append(errs, "monitor: default_threshold_pct must be > 0")
	}
	if c.Monitor.ResetFactor <= 0 || c.Monitor.ResetFactor > 1 {
		errs = append(errs, fmt.Sprintf("monitor: reset_factor must be in (0, 1], got %g", c.Monitor.ResetFactor))
	}
	if c.Monitor.HistoryLimit < 1 {
		errs = append(errs, "monitor: history_limit must be >= 1")
	}
	if c.Monitor.AlertQueueSize < 1 {
		errs = append(errs, "monitor: alert_queue_size must be >= 1")
	}
	if len(c.Monitor.Exchanges) == 0 {
		errs = append(errs, "monitor: exchanges must not be empty")
	}
	for i, p := range c.Monitor.Pairs {
		if p.SymbolA == "" || p.ExchangeA == "" || p.SymbolB == "" || p.ExchangeB == "" {
			errs = append(errs, fmt.Sprintf("monitor: pairs[%d]: symbol_a, exchange_a, symbol_b, exchange_b are all required", i))
		}
		if p.ThresholdPct < 0 {
			errs = append(errs, fmt.Sprintf("monitor: pairs[%d]: threshold_pct must not be negative", i))
		}
	}

	// CBBO
	if c.CBBO.FetchTimeout.Duration <= 0 {
		errs = append(errs, "cbbo: fetch_timeout must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
