// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"numbers-lottery/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Draw     DrawConfig     `mapstructure:"draw"`
	Games    GamesConfig    `mapstructure:"games"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DrawConfig holds the draw clock configuration. Draws run only inside the
// operating window; the final draw of the day fires exactly at closing hour.
type DrawConfig struct {
	Timezone    string `mapstructure:"timezone"`
	OpenHour    int    `mapstructure:"open_hour"`
	CloseHour   int    `mapstructure:"close_hour"`
	TicketValid int    `mapstructure:"ticket_valid_days"`
}

// GamesConfig holds per-variant game configuration.
type GamesConfig struct {
	TwoDigit     GameConfig `mapstructure:"two_digit"`
	ThreeDigit   GameConfig `mapstructure:"three_digit"`
	TwelveSymbol GameConfig `mapstructure:"twelve_symbol"`
	HundredBlock GameConfig `mapstructure:"hundred_block"`
}

// GameConfig holds one variant's configuration.
type GameConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	TargetPayoutPercent int  `mapstructure:"target_payout_percent"`
	IntervalMinutes     int  `mapstructure:"interval_minutes"`
}

// TelegramConfig holds the optional Telegram result-channel notifier.
// Notification is disabled when the token is empty.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Location resolves the configured draw timezone.
func (d *DrawConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// Game returns the configuration for a variant.
func (g *GamesConfig) Game(v model.GameVariant) GameConfig {
	switch v {
	case model.VariantTwoDigit:
		return g.TwoDigit
	case model.VariantThreeDigit:
		return g.ThreeDigit
	case model.VariantTwelveSymbol:
		return g.TwelveSymbol
	case model.VariantHundredBlock:
		return g.HundredBlock
	default:
		return GameConfig{}
	}
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. SERVER_ADDR, DATABASE_HOST, TELEGRAM_TOKEN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lottery")
	v.SetDefault("database.name", "lottery")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Draw clock defaults: 09:00-22:00 IST with a terminal run at 22:00
	v.SetDefault("draw.timezone", "Asia/Kolkata")
	v.SetDefault("draw.open_hour", 9)
	v.SetDefault("draw.close_hour", 22)
	v.SetDefault("draw.ticket_valid_days", 10)

	// Game defaults
	v.SetDefault("games.two_digit.enabled", true)
	v.SetDefault("games.two_digit.target_payout_percent", 70)
	v.SetDefault("games.two_digit.interval_minutes", 15)
	v.SetDefault("games.three_digit.enabled", true)
	v.SetDefault("games.three_digit.target_payout_percent", 60)
	v.SetDefault("games.three_digit.interval_minutes", 15)
	v.SetDefault("games.twelve_symbol.enabled", true)
	v.SetDefault("games.twelve_symbol.target_payout_percent", 75)
	v.SetDefault("games.twelve_symbol.interval_minutes", 5)
	v.SetDefault("games.hundred_block.enabled", true)
	v.SetDefault("games.hundred_block.target_payout_percent", 70)
	v.SetDefault("games.hundred_block.interval_minutes", 15)
}
