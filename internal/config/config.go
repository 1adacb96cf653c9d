package config

import (
	"time"

	pkgconfig "github.com/Foresight-builder/Foresight-backend/pkg/config"
	"github.com/Foresight-builder/Foresight-backend/pkg/database"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Reconciler ReconcilerConfig
	Follow     FollowConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	URL             string `mapstructure:"url"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string `mapstructure:"timezone"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// Connection converts the section into a database.Config.
func (c DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Driver:          c.Driver,
		URL:             c.URL,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		DBName:          c.DBName,
		SSLMode:         c.SSLMode,
		TimeZone:        c.TimeZone,
		FilePath:        c.FilePath,
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogLevel:        c.LogLevel,
	}
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type ReconcilerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	TopN     int           `mapstructure:"top_n"`
}

// FollowConfig controls the follow-count degradation policy.
type FollowConfig struct {
	// FallbackEnabled lets migration-symptom failures be served from the
	// local fallback store instead of aborting with "setup required".
	FallbackEnabled bool `mapstructure:"fallback_enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]any{
	"server.host":                "0.0.0.0",
	"server.port":                8095,
	"database.driver":            "postgres",
	"database.url":               "",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.dbname":            "postgres",
	"database.sslmode":           "disable",
	"database.timezone":          "UTC",
	"database.file_path":         "./data/foresight.db",
	"database.max_idle_conns":    10,
	"database.max_open_conns":    100,
	"database.conn_max_lifetime": 60,
	"database.log_level":         "warn",
	"redis.address":              "localhost:6379",
	"redis.password":             "",
	"redis.db":                   0,
	"kafka.brokers":              "",
	"kafka.topic":                "dbserver1.public.event_follows",
	"kafka.group_id":             "foresight-follow-service",
	"reconciler.interval":        "60s",
	"reconciler.top_n":           100,
	"follow.fallback_enabled":    false,
	"log.level":                  "info",
}

var envBindings = map[string][]string{
	"server.port":                {"PORT"},
	"database.driver":            {"DB_DRIVER"},
	"database.url":               {"SUPABASE_DB_URL", "SUPABASE_CONNECTION_STRING", "DATABASE_URL"},
	"database.host":              {"DB_HOST"},
	"database.port":              {"DB_PORT"},
	"database.user":              {"DB_USER"},
	"database.password":          {"DB_PASSWORD"},
	"database.dbname":            {"DB_NAME"},
	"database.sslmode":           {"DB_SSLMODE"},
	"database.timezone":          {"DB_TIMEZONE"},
	"database.file_path":         {"DB_FILE_PATH"},
	"database.max_idle_conns":    {"DB_MAX_IDLE_CONNS"},
	"database.max_open_conns":    {"DB_MAX_OPEN_CONNS"},
	"database.conn_max_lifetime": {"DB_CONN_MAX_LIFETIME"},
	"database.log_level":         {"DB_LOG_LEVEL"},
	"redis.address":              {"REDIS_ADDRESS"},
	"redis.password":             {"REDIS_PASSWORD"},
	"redis.db":                   {"REDIS_DB"},
	"kafka.brokers":              {"KAFKA_BROKERS"},
	"kafka.topic":                {"KAFKA_TOPIC"},
	"kafka.group_id":             {"KAFKA_GROUP_ID"},
	"reconciler.interval":        {"RECONCILER_INTERVAL"},
	"reconciler.top_n":           {"RECONCILER_TOP_N"},
	"follow.fallback_enabled":    {"ENABLE_LOCAL_FOLLOW_FALLBACK"},
	"log.level":                  {"LOG_LEVEL"},
}

// Load reads config.yaml from CONFIG_DIR (default ./config), then applies
// defaults and environment overrides.
func Load() (*Config, error) {
	v, err := pkgconfig.Load(pkgconfig.GetEnv("CONFIG_DIR", "./config"), "config")
	if err != nil {
		return nil, err
	}

	if err := pkgconfig.Apply(v, defaults, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
