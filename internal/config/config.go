// Package config provides configuration management using viper.
// Values come from an optional config.yaml, a .env file and environment
// variables prefixed with MONADBOT_ (e.g. MONADBOT_DISCORD_TOKEN).
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Rumble    RumbleConfig    `mapstructure:"rumble"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Health    HealthConfig    `mapstructure:"health"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// DiscordConfig holds the bot session configuration.
type DiscordConfig struct {
	Token         string   `mapstructure:"token"`
	ApplicationID string   `mapstructure:"application_id"`
	Guilds        []string `mapstructure:"guilds"`
	DeveloperIDs  []string `mapstructure:"developer_ids"`
	// RegisterGuild registers slash commands on a single guild for fast iteration.
	RegisterGuild string `mapstructure:"register_guild"`
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"`
	File     FileConfig     `mapstructure:"file"`
	Database DatabaseConfig `mapstructure:"database"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// FileConfig holds the JSON snapshot backend settings.
type FileConfig struct {
	Path string `mapstructure:"path"`
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

// SQLiteConfig holds the embedded database settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LimitsConfig holds daily activity caps.
type LimitsConfig struct {
	DiceGames      int `mapstructure:"dice_games"`
	Hunts          int `mapstructure:"hunts"`
	DuelsInitiated int `mapstructure:"duels_initiated"`
	DuelsReceived  int `mapstructure:"duels_received"`
	ChatExperience int `mapstructure:"chat_experience"`
	RetentionDays  int `mapstructure:"retention_days"`
}

// EconomyConfig holds reward and timing settings.
type EconomyConfig struct {
	CheckInCooldown time.Duration `mapstructure:"checkin_cooldown"`
	CheckInMin      int64         `mapstructure:"checkin_min"`
	CheckInMax      int64         `mapstructure:"checkin_max"`
	MinWager        int64         `mapstructure:"min_wager"`
	DuelDelay       time.Duration `mapstructure:"duel_delay"`
	HuntDelay       time.Duration `mapstructure:"hunt_delay"`
	InventorySize   int           `mapstructure:"inventory_size"`
}

// RumbleConfig holds battle royale timing.
type RumbleConfig struct {
	DefaultSignup time.Duration `mapstructure:"default_signup"`
	MinSignup     time.Duration `mapstructure:"min_signup"`
	MaxSignup     time.Duration `mapstructure:"max_signup"`
	FirstRound    time.Duration `mapstructure:"first_round"`
	RoundInterval time.Duration `mapstructure:"round_interval"`
}

// CatalogConfig points at an optional catalog override file.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// HealthConfig holds the HTTP health endpoint settings.
type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// RateLimitConfig throttles commands per user.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. MONADBOT_DISCORD_TOKEN, MONADBOT_STORAGE_BACKEND
	v.SetEnvPrefix("monadbot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.file.path", "data/monadbot.json")
	v.SetDefault("storage.sqlite.path", "data/monadbot.db")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.key_prefix", "monadbot")

	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.user", "monadbot")
	v.SetDefault("storage.database.name", "monadbot")
	v.SetDefault("storage.database.pool_size", 10)
	v.SetDefault("storage.database.connect_timeout", "10s")
	v.SetDefault("storage.database.max_conn_lifetime", "1h")
	v.SetDefault("storage.database.max_conn_idle_time", "30m")

	v.SetDefault("limits.dice_games", 10)
	v.SetDefault("limits.hunts", 10)
	v.SetDefault("limits.duels_initiated", 3)
	v.SetDefault("limits.duels_received", 3)
	v.SetDefault("limits.chat_experience", 1000)
	v.SetDefault("limits.retention_days", 7)

	v.SetDefault("economy.checkin_cooldown", "12h")
	v.SetDefault("economy.checkin_min", 80)
	v.SetDefault("economy.checkin_max", 120)
	v.SetDefault("economy.min_wager", 10)
	v.SetDefault("economy.duel_delay", "5s")
	v.SetDefault("economy.hunt_delay", "3s")
	v.SetDefault("economy.inventory_size", 12)

	v.SetDefault("rumble.default_signup", "60s")
	v.SetDefault("rumble.min_signup", "10s")
	v.SetDefault("rumble.max_signup", "300s")
	v.SetDefault("rumble.first_round", "3s")
	v.SetDefault("rumble.round_interval", "5s")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.addr", ":3000")

	v.SetDefault("ratelimit.per_second", 1.0)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendPostgres, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Economy.CheckInMin > c.Economy.CheckInMax {
		return fmt.Errorf("economy.checkin_min %d exceeds checkin_max %d", c.Economy.CheckInMin, c.Economy.CheckInMax)
	}
	if c.Rumble.MinSignup > c.Rumble.MaxSignup {
		return fmt.Errorf("rumble.min_signup exceeds rumble.max_signup")
	}
	if c.Economy.InventorySize <= 0 {
		return fmt.Errorf("economy.inventory_size must be positive")
	}
	return nil
}

// IsDeveloper reports whether a user may review role submissions.
func (c *Config) IsDeveloper(userID string) bool {
	return slices.Contains(c.Discord.DeveloperIDs, userID)
}

// IsGuildAllowed checks the guild whitelist. An empty whitelist allows every guild.
func (c *Config) IsGuildAllowed(guildID string) bool {
	if len(c.Discord.Guilds) == 0 {
		return true
	}
	return slices.Contains(c.Discord.Guilds, guildID)
}
