package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/thesavant42/icr-browser/internal/catalog"
)

// Host backends selectable with ICR_HOST / -host
const (
	HostDocker = "docker"
	HostCLI    = "cli"
	HostNone   = "none"
)

type Config struct {
	Registry    string
	Username    string
	Password    string
	DataDir     string
	Host        string
	MajorWidth  int
	PublicTools []string
	LogLevel    log.Level
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Registry:   getEnv("ICR_REGISTRY", catalog.DefaultRegistry),
		Username:   getEnv("ICR_USERNAME", ""),
		Password:   getEnv("ICR_PASSWORD", ""),
		DataDir:    getEnv("ICR_DATA_DIR", defaultDataDir()),
		Host:       getEnv("ICR_HOST", HostDocker),
		MajorWidth: getEnvInt("ICR_MAJOR_WIDTH", catalog.DefaultMajorWidth),
		LogLevel:   log.InfoLevel,
	}

	if tools := getEnv("ICR_PUBLIC_TOOLS", ""); tools != "" {
		for _, t := range strings.Split(tools, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.PublicTools = append(cfg.PublicTools, t)
			}
		}
	}

	if lvl, err := log.ParseLevel(getEnv("ICR_LOG_LEVEL", "info")); err == nil {
		cfg.LogLevel = lvl
	}

	return cfg
}

// Rules returns the classification rules for the configured registry
func (c *Config) Rules() catalog.Rules {
	rules := catalog.DefaultRules()
	rules.Registry = c.Registry
	if len(c.PublicTools) > 0 {
		rules.PublicTools = c.PublicTools
	}
	return rules
}

// CachePath is the sqlite listing cache inside the data dir
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// LogPath is the TUI log file inside the data dir
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "icr-browser.log")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".icr-browser"
	}
	return filepath.Join(home, ".icr-browser")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
