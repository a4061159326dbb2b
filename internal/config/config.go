// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Audit backends
const (
	AuditBackendFile   = "file"
	AuditBackendSQLite = "sqlite"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the audit log (always absolute)
	LogLevel     string
	LogPretty    bool
	Port         int
	DevMode      bool
	PolicyFile   string // Optional YAML gate policy; built-in defaults when empty
	AuditBackend string // "file" or "sqlite"
	AuditPath    string // Defaults to a file under DataDir
	Archive      ArchiveConfig
}

// ArchiveConfig controls the scheduled upload of the audit log to object storage
type ArchiveConfig struct {
	Enabled        bool
	Bucket         string
	Prefix         string
	Region         string
	Endpoint       string // S3-compatible endpoint (R2, MinIO); AWS when empty
	AccessKeyID    string
	SecretKey      string
	Schedule       string // cron expression
	RetentionCount int    // archives kept after pruning, 0 keeps all
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("GATEKEEPER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	backend := strings.ToLower(getEnv("AUDIT_BACKEND", AuditBackendSQLite))

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("GATEKEEPER_PORT", 8080),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", false),
		PolicyFile:   getEnv("GATE_POLICY_FILE", ""),
		AuditBackend: backend,
		AuditPath:    getEnv("AUDIT_PATH", defaultAuditPath(absDataDir, backend)),
		Archive:      loadArchiveConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.AuditBackend {
	case AuditBackendFile, AuditBackendSQLite:
	default:
		return fmt.Errorf("unknown audit backend %q (want %q or %q)", c.AuditBackend, AuditBackendFile, AuditBackendSQLite)
	}
	if c.AuditPath == "" {
		return fmt.Errorf("audit path is required")
	}
	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive enabled but ARCHIVE_BUCKET is empty")
		}
		if c.Archive.Schedule == "" {
			return fmt.Errorf("archive enabled but ARCHIVE_SCHEDULE is empty")
		}
		if c.Archive.RetentionCount < 0 {
			return fmt.Errorf("archive retention must not be negative")
		}
	}
	return nil
}

func defaultAuditPath(dataDir, backend string) string {
	if backend == AuditBackendFile {
		return filepath.Join(dataDir, "overrides.jsonl")
	}
	return filepath.Join(dataDir, "audit.db")
}

// loadArchiveConfig loads the archive settings; archiving is off unless a bucket is set
func loadArchiveConfig() ArchiveConfig {
	bucket := getEnv("ARCHIVE_BUCKET", "")
	return ArchiveConfig{
		Enabled:        getEnvAsBool("ARCHIVE_ENABLED", bucket != ""),
		Bucket:         bucket,
		Prefix:         getEnv("ARCHIVE_PREFIX", "gatekeeper/audit"),
		Region:         getEnv("ARCHIVE_REGION", "auto"),
		Endpoint:       getEnv("ARCHIVE_ENDPOINT", ""),
		AccessKeyID:    getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
		SecretKey:      getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		Schedule:       getEnv("ARCHIVE_SCHEDULE", "0 0 3 * * *"), // Daily at 03:00 (cron with seconds)
		RetentionCount: getEnvAsInt("ARCHIVE_RETENTION", 30),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
