// Package config handles configuration loading for handover.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for handover.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Interview InterviewConfig `mapstructure:"interview"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseAWSBedrock routes calls through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// AnalysisConfig holds per-item analysis settings.
type AnalysisConfig struct {
	// PassesStructured is the pass ceiling for structured item types.
	PassesStructured int `mapstructure:"passes_structured"`
	// PassesDefault is the pass ceiling for everything else.
	PassesDefault int `mapstructure:"passes_default"`
	// MaxQuestionsPerItem caps the questions one analysis pass may raise.
	MaxQuestionsPerItem int `mapstructure:"max_questions_per_item"`
}

// InterviewConfig holds interview loop settings.
type InterviewConfig struct {
	// MaxRounds is the hard cap on interview rounds per session.
	MaxRounds int `mapstructure:"max_rounds"`
	// MaxOpenQuestions caps the open backlog after reconciliation.
	MaxOpenQuestions int `mapstructure:"max_open_questions"`
}

// StorageConfig holds session storage settings.
type StorageConfig struct {
	// DataDir is where the session database and artifacts live.
	DataDir string `mapstructure:"data_dir"`
	// RetentionDays controls how long finished sessions are kept.
	RetentionDays int `mapstructure:"retention_days"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.handover.yaml in current directory or parent)
// 3. User config (~/.config/handover/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in the key and data dir.
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Storage.DataDir = os.ExpandEnv(cfg.Storage.DataDir)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Storage.DataDir = os.ExpandEnv(cfg.Storage.DataDir)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("analysis.passes_structured", cfg.Analysis.PassesStructured)
	v.Set("analysis.passes_default", cfg.Analysis.PassesDefault)
	v.Set("analysis.max_questions_per_item", cfg.Analysis.MaxQuestionsPerItem)
	v.Set("interview.max_rounds", cfg.Interview.MaxRounds)
	v.Set("interview.max_open_questions", cfg.Interview.MaxOpenQuestions)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("storage.retention_days", cfg.Storage.RetentionDays)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("analysis.passes_structured", 3)
	v.SetDefault("analysis.passes_default", 2)
	v.SetDefault("analysis.max_questions_per_item", 5)

	v.SetDefault("interview.max_rounds", 10)
	v.SetDefault("interview.max_open_questions", 8)

	v.SetDefault("storage.data_dir", getDefaultDataDir())
	v.SetDefault("storage.retention_days", 30)
}

// getUserConfigDir returns the XDG config directory for handover.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "handover")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "handover")
	}
	return filepath.Join(home, ".config", "handover")
}

// getDefaultDataDir returns the XDG data directory for handover.
func getDefaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "handover")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".handover")
	}
	return filepath.Join(home, ".local", "share", "handover")
}

// findProjectConfig searches for .handover.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".handover.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			PassesStructured:    3,
			PassesDefault:       2,
			MaxQuestionsPerItem: 5,
		},
		Interview: InterviewConfig{
			MaxRounds:        10,
			MaxOpenQuestions: 8,
		},
		Storage: StorageConfig{
			DataDir:       getDefaultDataDir(),
			RetentionDays: 30,
		},
	}
}
