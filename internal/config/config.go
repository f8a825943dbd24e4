package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	MaxUploadMB  int
	LogFile      string
	DataDir      string
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8450"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "64"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		MaxUploadMB:  mb,
		LogFile:      getenv("LOG_FILE", "logs/armkala-backend.log"),
		DataDir:      getenv("DATA_DIR", "data"),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// LedgerPath is the invoice database location inside the data dir.
func (c Config) LedgerPath() string { return filepath.Join(c.DataDir, "armkala.db") }

// AppConfigPath is the mutable application settings document.
func (c Config) AppConfigPath() string { return filepath.Join(c.DataDir, "app_config.json") }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
