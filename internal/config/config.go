package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	API      APIConfig      `toml:"api"`
	Document DocumentConfig `toml:"document"`
	Tools    ToolsConfig    `toml:"tools"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig contains MCP server identity and the streamable HTTP listener.
type ServerConfig struct {
	Name string `toml:"name"`
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// APIConfig contains settings for the live REST API.
type APIConfig struct {
	BaseURL         string  `toml:"base_url"`
	Token           string  `toml:"token"`
	TokenHeader     string  `toml:"token_header"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	RateLimit       float64 `toml:"rate_limit"`
	RateBurst       int     `toml:"rate_burst"`
	CacheTTLSeconds int     `toml:"cache_ttl_seconds"`
	CacheMaxEntries int     `toml:"cache_max_entries"`
}

// DocumentConfig locates the OpenAPI document.
type DocumentConfig struct {
	Path      string `toml:"path"`
	SourceURL string `toml:"source_url"`
}

// ToolsConfig selects how tools are assembled and executed.
type ToolsConfig struct {
	Strategy string `toml:"strategy"`
	Mock     bool   `toml:"mock"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// knownStrategies mirrors tools.Strategy values; config cannot import tools.
var knownStrategies = map[string]bool{
	"per_operation": true,
	"per_resource":  true,
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// PURELYMAIL_API_KEY and MOCK_MODE keep the names operators already use.
func applyEnvOverrides(config *Config) {
	if key := os.Getenv("PURELYMAIL_API_KEY"); key != "" {
		config.API.Token = key
	}
	if mock := os.Getenv("MOCK_MODE"); mock != "" {
		config.Tools.Mock = strings.EqualFold(mock, "true")
	}
	if baseURL := os.Getenv("PURELYMAIL_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if specPath := os.Getenv("PURELYMAIL_SPEC_PATH"); specPath != "" {
		config.Document.Path = specPath
	}
	if strategy := os.Getenv("PURELYMAIL_TOOL_STRATEGY"); strategy != "" {
		config.Tools.Strategy = strategy
	}
	if port := os.Getenv("PURELYMAIL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PURELYMAIL_HOST"); host != "" {
		config.Server.Host = host
	}
	if level := os.Getenv("PURELYMAIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string, mock bool) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if mock {
		config.Tools.Mock = true
	}
}

// Validate returns a list of human-readable problems with the configuration.
// An empty result means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if !c.Tools.Mock && strings.TrimSpace(c.API.Token) == "" {
		issues = append(issues, "PurelyMail API key required. Set PURELYMAIL_API_KEY environment variable (or [api] token), or enable mock mode with MOCK_MODE=true.")
	}
	if !c.Tools.Mock && strings.TrimSpace(c.API.BaseURL) == "" {
		issues = append(issues, "[api] base_url must not be empty")
	}
	if strings.TrimSpace(c.Document.Path) == "" {
		issues = append(issues, "[document] path must not be empty")
	}
	if !knownStrategies[c.Tools.Strategy] {
		issues = append(issues, fmt.Sprintf("[tools] strategy %q is not one of per_operation, per_resource", c.Tools.Strategy))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("[server] port %d is out of range", c.Server.Port))
	}

	return issues
}

// IsMockMode reports whether tools answer from the replay adapter.
func (c *Config) IsMockMode() bool {
	return c.Tools.Mock
}
