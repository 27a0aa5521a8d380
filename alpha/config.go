package alpha

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log       LogConfig       `toml:"log"`
	Bot       BotConfig       `toml:"bot"`
	DB        DBConfig        `toml:"db"`
	Leveling  LevelingConfig  `toml:"leveling"`
	Events    EventsConfig    `toml:"events"`
	Migration MigrationConfig `toml:"migration"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// LevelingConfig holds the default XP tuning. Guild rows can override the
// per-guild values; these apply to guilds that never changed anything.
type LevelingConfig struct {
	VoiceBaseXp        int64 `toml:"voice_base_xp"`
	TextXpMin          int64 `toml:"text_xp_min"`
	TextXpMax          int64 `toml:"text_xp_max"`
	MessageCooldownSec int   `toml:"message_cooldown_sec"`
	VoiceTickMinutes   int   `toml:"voice_tick_minutes"`
}

type EventsConfig struct {
	AnnounceLeadDays  int `toml:"announce_lead_days"`
	TickSeconds       int `toml:"tick_seconds"`
	GenerateEveryDays int `toml:"generate_every_days"`
}

// MigrationConfig configures the one-shot legacy importer (-migrate flag).
type MigrationConfig struct {
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	BatchSize     int    `toml:"batch_size"`
}

func (c *Config) applyDefaults() {
	if c.Leveling.VoiceBaseXp == 0 {
		c.Leveling.VoiceBaseXp = 5
	}
	if c.Leveling.TextXpMin == 0 {
		c.Leveling.TextXpMin = 15
	}
	if c.Leveling.TextXpMax == 0 {
		c.Leveling.TextXpMax = 25
	}
	if c.Leveling.MessageCooldownSec == 0 {
		c.Leveling.MessageCooldownSec = 60
	}
	if c.Leveling.VoiceTickMinutes == 0 {
		c.Leveling.VoiceTickMinutes = 1
	}
	if c.Events.AnnounceLeadDays == 0 {
		c.Events.AnnounceLeadDays = 7
	}
	if c.Events.TickSeconds == 0 {
		c.Events.TickSeconds = 60
	}
	if c.Events.GenerateEveryDays == 0 {
		c.Events.GenerateEveryDays = 7
	}
	if c.Migration.BatchSize == 0 {
		c.Migration.BatchSize = 1000
	}
}
