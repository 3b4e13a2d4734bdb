package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

const (
	KeyCacheMaxEntries        = "CMDCORE_CACHE_MAX_ENTRIES"
	KeyCacheExpireAfterAccess = "CMDCORE_CACHE_EXPIRE_AFTER_ACCESS"
	KeyOwnerName              = "CMDCORE_OWNER"
	KeyCommandsFile           = "CMDCORE_COMMANDS_FILE"
	KeyHistoryFile            = "CMDCORE_HISTORY_FILE"

	DefaultOwnerName         = "cmdhost"
	DefaultCacheMaxEntries   = 1000
	DefaultExpireAfterAccess = 5 * time.Minute
)

// CacheConfig sizes the registry caches
type CacheConfig struct {
	MaxEntries        int
	ExpireAfterAccess time.Duration
}

// HostConfig describes the demo host process
type HostConfig struct {
	OwnerName    string
	CommandsFile string
	HistoryFile  string
}

// Manager provides configuration management functionality
type Manager interface {
	GetString(key string) (string, error)
	GetStringWithDefault(key, defaultValue string) string
	RequireString(key string) string
	GetInt(key string) (int, error)
	GetIntWithDefault(key string, defaultValue int) int
	GetBoolWithDefault(key string, defaultValue bool) bool
	GetDurationWithDefault(key string, defaultValue time.Duration) time.Duration
	GetCacheConfig() CacheConfig
	GetHostConfig() HostConfig
}

// DefaultManager implements the Manager interface
type DefaultManager struct {
}

// NewConfigManager creates a new default config manager
func NewConfigManager() Manager {
	return &DefaultManager{}
}

// GetString gets a configuration value by key, returns error if not found
func (m *DefaultManager) GetString(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("configuration key %s not found", key)
	}
	return value, nil
}

// GetStringWithDefault gets a configuration value by key, returns default if not found
func (m *DefaultManager) GetStringWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// RequireString gets a configuration value by key, panics if not found
func (m *DefaultManager) RequireString(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required configuration key %s not found", key))
	}
	return value
}

// GetInt gets an integer configuration value by key, returns error if not found or invalid
func (m *DefaultManager) GetInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("configuration key %s not found", key)
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("configuration key %s has invalid integer value: %s", key, value)
	}
	return intValue, nil
}

// GetIntWithDefault gets an integer configuration value by key, returns default if not found or invalid
func (m *DefaultManager) GetIntWithDefault(key string, defaultValue int) int {
	intValue, err := m.GetInt(key)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetBoolWithDefault gets a boolean configuration value by key, returns default if not found or invalid
func (m *DefaultManager) GetBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// GetDurationWithDefault parses a Go duration ("90s", "5m"), returns default if not found or invalid
func (m *DefaultManager) GetDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// GetCacheConfig returns the registry cache sizing from environment variables or defaults
func (m *DefaultManager) GetCacheConfig() CacheConfig {
	maxEntries := m.GetIntWithDefault(KeyCacheMaxEntries, DefaultCacheMaxEntries)
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return CacheConfig{
		MaxEntries:        maxEntries,
		ExpireAfterAccess: m.GetDurationWithDefault(KeyCacheExpireAfterAccess, DefaultExpireAfterAccess),
	}
}

// GetHostConfig returns the host identity and declaration file location
func (m *DefaultManager) GetHostConfig() HostConfig {
	commandsFile := m.GetStringWithDefault(KeyCommandsFile, "")
	if commandsFile == "" {
		commandsFile, _ = DefaultCommandsFile()
	}
	historyFile := m.GetStringWithDefault(KeyHistoryFile, "")
	if historyFile == "" {
		historyFile, _ = defaultHostFile("history")
	}
	return HostConfig{
		OwnerName:    m.GetStringWithDefault(KeyOwnerName, DefaultOwnerName),
		CommandsFile: commandsFile,
		HistoryFile:  historyFile,
	}
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// DefaultCommandsFile returns ~/.cmdhost/commands.yaml
func DefaultCommandsFile() (string, error) {
	return defaultHostFile("commands.yaml")
}

func defaultHostFile(name string) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cmdhost", name), nil
}
