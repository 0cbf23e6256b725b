package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mcuadros/go-defaults"
)

// Storage backend names accepted in BIOMATCH_STORAGE.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageMariaDB  = "mariadb"
	StorageSQLite   = "sqlite"
	StorageS3       = "s3"
)

var storageBackends = []string{StorageFile, StoragePostgres, StorageMariaDB, StorageSQLite, StorageS3}

type Config struct {
	Matching MatchingConfig
	Storage  StorageConfig
	Database DatabaseConfig
	MariaDB  MariaDBConfig
	S3       S3Config
	Log      LogConfig
	Web      WebConfig
}

type MatchingConfig struct {
	MatchThreshold     float64 `default:"40"` // percent required to accept a match
	DuplicateThreshold float64 `default:"70"` // percent at which enrollment is rejected as duplicate
}

type StorageConfig struct {
	Backend    string `default:"file"`
	DataFile   string `default:"data/enrollments.json"`
	SQLitePath string `default:"data/biomatch.db"`
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    `default:"10"`
	MaxIdleConns int    `default:"2"`
}

type MariaDBConfig struct {
	DSN string // e.g. biomatch:secret@tcp(mariadb:3306)/biomatch
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string `default:"biomatch"`
	ObjectKey string `default:"biomatch/enrollments.json.zst"`
	UseSSL    bool
}

type LogConfig struct {
	Level      string `default:"info"`
	Format     string `default:"text"` // text or json
	File       string // optional rotated log file
	MaxAgeDays int    `default:"14"`
}

type WebConfig struct {
	Host           string `default:"0.0.0.0"`
	Port           int    `default:"8080"`
	AllowedOrigins []string
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a float environment variable. Invalid values keep the default.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load builds the configuration from struct defaults overridden by the environment.
func Load() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)

	cfg.Matching.MatchThreshold = envFloat("BIOMATCH_MATCH_THRESHOLD", cfg.Matching.MatchThreshold)
	cfg.Matching.DuplicateThreshold = envFloat("BIOMATCH_DUPLICATE_THRESHOLD", cfg.Matching.DuplicateThreshold)

	cfg.Storage.Backend = strings.ToLower(envString("BIOMATCH_STORAGE", cfg.Storage.Backend))
	cfg.Storage.DataFile = envString("BIOMATCH_DATA_FILE", cfg.Storage.DataFile)
	cfg.Storage.SQLitePath = envString("SQLITE_PATH", cfg.Storage.SQLitePath)

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.MariaDB.DSN = os.Getenv("MARIADB_DSN")

	cfg.S3.Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3.SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.S3.Bucket = envString("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.ObjectKey = envString("S3_OBJECT_KEY", cfg.S3.ObjectKey)
	cfg.S3.UseSSL = envBool("S3_USE_SSL", cfg.S3.UseSSL)

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envString("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = os.Getenv("LOG_FILE")
	cfg.Log.MaxAgeDays = envInt("LOG_MAX_AGE_DAYS", cfg.Log.MaxAgeDays)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	cfg.Web.AllowedOrigins = envList("WEB_ALLOWED_ORIGINS")

	return cfg
}

// Validate checks the values that would otherwise fail deep inside the service.
func (c *Config) Validate() error {
	if err := checkThreshold("BIOMATCH_MATCH_THRESHOLD", c.Matching.MatchThreshold); err != nil {
		return err
	}
	if err := checkThreshold("BIOMATCH_DUPLICATE_THRESHOLD", c.Matching.DuplicateThreshold); err != nil {
		return err
	}
	if !slices.Contains(storageBackends, c.Storage.Backend) {
		return fmt.Errorf("unknown storage backend %q (expected one of %s)",
			c.Storage.Backend, strings.Join(storageBackends, ", "))
	}
	switch c.Storage.Backend {
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for %s storage", c.Storage.Backend)
		}
	case StorageMariaDB:
		if c.MariaDB.DSN == "" {
			return fmt.Errorf("MARIADB_DSN environment variable is required for %s storage", c.Storage.Backend)
		}
	case StorageS3:
		if c.S3.Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT environment variable is required for %s storage", c.Storage.Backend)
		}
	}
	return nil
}

func checkThreshold(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s must be between 0 and 100, got %v", name, v)
	}
	return nil
}
