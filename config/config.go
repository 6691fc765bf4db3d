package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	ierr "rent-dashboard/errors"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataSource   string `validate:"oneof=csv postgres"`
	DataPath     string `validate:"required_if=DataSource csv"`
	CSVDelimiter string `validate:"max=1"`
	SampleSize   int    `validate:"gte=0"`
	SampleSeed   int64
	CacheEnabled bool
	LogLevel     string `validate:"oneof=debug info warn error"`

	PostgresHost     string `validate:"required_if=DataSource postgres"`
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ImportConcurrency int `validate:"gte=1"`
	MaxRetries        int `validate:"gte=1"`
}

// Load reads the .env file and returns a populated, validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DataSource:   strings.ToLower(getEnv("DATA_SOURCE", "csv")),
		DataPath:     getEnv("DATA_PATH", "./Data/eda_data.csv"),
		CSVDelimiter: strings.ReplaceAll(os.Getenv("CSV_DELIMITER"), `\t`, "\t"),
		SampleSize:   getEnvInt("SAMPLE_SIZE", 0),
		SampleSeed:   getEnvInt64("SAMPLE_SEED", 42),
		CacheEnabled: getEnvBool("CACHE_ENABLED", true),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "rent"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "rent123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rent_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", 3),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return ierr.Mark(err, ierr.ErrValidation, "invalid configuration")
	}
	return nil
}

// Delimiter returns the configured CSV delimiter, or 0 to auto-detect.
func (c *Config) Delimiter() rune {
	if c.CSVDelimiter == "" {
		return 0
	}
	return []rune(c.CSVDelimiter)[0]
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
