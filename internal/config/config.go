// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Effects  EffectsConfig  `mapstructure:"effects"`
	Farm     FarmConfig     `mapstructure:"farm"`
	Mining   MiningConfig   `mapstructure:"mining"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Rob      RobConfig      `mapstructure:"rob"`
	Family   FamilyConfig   `mapstructure:"family"`
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

// EffectsConfig holds the status-effect ticker configuration.
type EffectsConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// FarmConfig holds farming configuration.
type FarmConfig struct {
	MaxSlots        int `mapstructure:"max_slots"`
	MaxSlotsLoyalty int `mapstructure:"max_slots_loyalty"`
}

// MiningConfig holds mining configuration.
type MiningConfig struct {
	EnergyCost    int           `mapstructure:"energy_cost"`
	EventCooldown time.Duration `mapstructure:"event_cooldown"`
}

// BattleConfig holds adventure combat configuration.
type BattleConfig struct {
	SpawnChance  float64 `mapstructure:"spawn_chance"`
	EscapeChance float64 `mapstructure:"escape_chance"`
	PlayerHealth int     `mapstructure:"player_health"`
	InjuryTicks  int64   `mapstructure:"injury_ticks"`
}

// RobConfig holds robbery configuration.
type RobConfig struct {
	AllowByDefault bool `mapstructure:"allow_by_default"`
}

// FamilyConfig holds relationship graph caps.
type FamilyConfig struct {
	MaxPartners       int `mapstructure:"max_partners"`
	MaxChildren       int `mapstructure:"max_children"`
	MaxParentsPerKid  int `mapstructure:"max_parents_per_kid"`
	MaxTraversalDepth int `mapstructure:"max_traversal_depth"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., DATABASE_HOST, DATABASE_PORT, EFFECTS_TICK_INTERVAL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "economy")
	v.SetDefault("database.name", "economy")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Effect ticker defaults
	v.SetDefault("effects.tick_interval", "30s")

	// Farming defaults
	v.SetDefault("farm.max_slots", 5)
	v.SetDefault("farm.max_slots_loyalty", 10)

	// Mining defaults
	v.SetDefault("mining.energy_cost", 10)
	v.SetDefault("mining.event_cooldown", "5m")

	// Battle defaults
	v.SetDefault("battle.spawn_chance", 0.5)
	v.SetDefault("battle.escape_chance", 0.6)
	v.SetDefault("battle.player_health", 100)
	v.SetDefault("battle.injury_ticks", 10)

	// Robbery defaults
	v.SetDefault("rob.allow_by_default", true)

	// Relationship defaults
	v.SetDefault("family.max_partners", 2)
	v.SetDefault("family.max_children", 5)
	v.SetDefault("family.max_parents_per_kid", 1)
	v.SetDefault("family.max_traversal_depth", 32)
}
