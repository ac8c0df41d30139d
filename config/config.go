package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mwillems/devassist/errors"
	"gopkg.in/yaml.v3"
)

type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	LLMClient string `yaml:"llm"`
	Model     string `yaml:"model"`

	// WorkspaceRoot is the directory file tools are confined to. Paths that
	// resolve outside it are rejected. Defaults to the working directory.
	WorkspaceRoot string `yaml:"workspace_root"`

	MaxTurns    int     `yaml:"max_turns"`
	PlanRetries int     `yaml:"plan_retries"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// ToolTimeoutSeconds bounds the wall clock of a single tool invocation.
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds"`

	// AllowedCommands is a regex allow-list for execute_command. An empty
	// list means command execution is not permitted at all.
	AllowedCommands  []string `yaml:"allowed_commands"`
	MaxCommandOutput int      `yaml:"max_command_output"`

	FilesystemAccess     FilesystemAccess `yaml:"filesystem_access"`
	AdditionalMCPServers []MCPServer      `yaml:"additional_mcp_servers"`

	Logging Logging `yaml:"logging"`
	Server  Server  `yaml:"server"`
}

// Defaults returns a config with every tunable set to its default. Loaded
// files override on top of this.
func Defaults() *Config {
	return &Config{
		MaxTurns:           10,
		PlanRetries:        2,
		MaxTokens:          2048,
		Temperature:        0.7,
		ToolTimeoutSeconds: 30,
		MaxCommandOutput:   64 * 1024,
		Logging:            Logging{Level: "info"},
		Server:             Server{Addr: ":8000"},
	}
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	// The agent's own state directory is never visible to file tools.
	cfg.FilesystemAccess.Hidden = append(cfg.FilesystemAccess.Hidden, ".devassist", ".devassist/**")

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".devassist", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".devassist", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = wd
	}
	abs, err := filepath.Abs(cfg.WorkspaceRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve workspace root '%s'", cfg.WorkspaceRoot)
	}
	cfg.WorkspaceRoot = abs

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML, so project-level
	// config replaces user-level field by field.
	return yaml.Unmarshal(data, cfg)
}

// ToolTimeout returns the per-invocation deadline as a duration.
func (c *Config) ToolTimeout() time.Duration {
	if c.ToolTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}
