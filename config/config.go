package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/codebro/code_analyzer"
	"github.com/meysamhadeli/codebro/code_writer"
	"github.com/meysamhadeli/codebro/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigName is the configuration file looked up in the project directory, as .yml, .yaml or .json.
const ConfigName = "codebro-config"

// LogFile is the debug log location relative to the project directory.
const LogFile = ".codebro/logs/codebro.log"

// ScanConfig bounds what the scanner reads.
type ScanConfig struct {
	MaxFileSizeKB       int      `mapstructure:"max_file_size_kb"`
	MaxTotalChars       int      `mapstructure:"max_total_chars"`
	IgnorePatterns      []string `mapstructure:"ignore_patterns"`
	ExtraIgnorePatterns []string `mapstructure:"extra_ignore_patterns"`
	KeyFiles            []string `mapstructure:"key_files"`
}

// MarkersConfig holds the literals file changes are wrapped in.
type MarkersConfig struct {
	FileChangeStart string `mapstructure:"file_change_start"`
	FileChangeEnd   string `mapstructure:"file_change_end"`
	File            string `mapstructure:"file"`
	Action          string `mapstructure:"action"`
	Content         string `mapstructure:"content"`
	Patch           string `mapstructure:"patch"`
}

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	Debug            bool                        `mapstructure:"debug"`
	BackupDir        string                      `mapstructure:"backup_dir"`
	Scan             ScanConfig                  `mapstructure:"scan"`
	Markers          MarkersConfig               `mapstructure:"markers"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:   "1.0.0",
	Theme:     "dracula",
	Debug:     false,
	BackupDir: code_writer.DefaultBackupDir,
	Scan: ScanConfig{
		MaxFileSizeKB:  50,
		MaxTotalChars:  100000,
		IgnorePatterns: code_analyzer.DefaultIgnorePatterns,
		KeyFiles:       code_analyzer.DefaultKeyFiles,
	},
	Markers: MarkersConfig{
		FileChangeStart: code_analyzer.DefaultMarkers.FileChangeStart,
		FileChangeEnd:   code_analyzer.DefaultMarkers.FileChangeEnd,
		File:            code_analyzer.DefaultMarkers.FileKey,
		Action:          code_analyzer.DefaultMarkers.ActionKey,
		Content:         code_analyzer.DefaultMarkers.ContentKey,
		Patch:           code_analyzer.DefaultMarkers.PatchKey,
	},
	AIProviderConfig: &providers.AIProviderConfig{
		Provider: "xai",
		BaseURL:  "https://api.x.ai/v1",
		Model:    "grok-3",
		ApiKey:   "",
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, environment variables and flags, and returns the final config.
// Precedence, lowest first: defaults, config file, environment, flags.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Explicitly bind environment variables to config keys
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Bind CLI flags to override config values
	bindFlags(v, rootCmd)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Scan.MaxTotalChars <= 0 {
		return fmt.Errorf("scan.max_total_chars must be positive, got %d", c.Scan.MaxTotalChars)
	}
	if c.Scan.MaxFileSizeKB < 0 {
		return fmt.Errorf("scan.max_file_size_kb must not be negative, got %d", c.Scan.MaxFileSizeKB)
	}
	markers := map[string]string{
		"file_change_start": c.Markers.FileChangeStart,
		"file":              c.Markers.File,
		"action":            c.Markers.Action,
		"content":           c.Markers.Content,
		"patch":             c.Markers.Patch,
	}
	for key, value := range markers {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("markers.%s must not be empty", key)
		}
	}
	if c.AIProviderConfig == nil {
		return errors.New("ai_provider_config is required")
	}
	return nil
}

// ToSettings converts the loaded configuration into the analyzer's immutable settings.
func (c *Config) ToSettings() code_analyzer.Settings {
	ignore := append([]string(nil), c.Scan.IgnorePatterns...)
	ignore = append(ignore, c.Scan.ExtraIgnorePatterns...)

	// never scan our own backups and logs
	if !containsString(ignore, ".codebro") {
		ignore = append(ignore, ".codebro")
	}

	return code_analyzer.Settings{
		IgnorePatterns: ignore,
		ExcludeDirs:    backupExcludeDirs(c.BackupDir),
		KeyFiles:       append([]string(nil), c.Scan.KeyFiles...),
		MaxFileSizeKB:  c.Scan.MaxFileSizeKB,
		MaxTotalChars:  c.Scan.MaxTotalChars,
		Markers: code_analyzer.Markers{
			FileChangeStart: c.Markers.FileChangeStart,
			FileChangeEnd:   c.Markers.FileChangeEnd,
			FileKey:         c.Markers.File,
			ActionKey:       c.Markers.Action,
			ContentKey:      c.Markers.Content,
			PatchKey:        c.Markers.Patch,
		},
	}
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("debug", DefaultConfig.Debug)
	v.SetDefault("backup_dir", DefaultConfig.BackupDir)
	v.SetDefault("scan.max_file_size_kb", DefaultConfig.Scan.MaxFileSizeKB)
	v.SetDefault("scan.max_total_chars", DefaultConfig.Scan.MaxTotalChars)
	v.SetDefault("scan.ignore_patterns", DefaultConfig.Scan.IgnorePatterns)
	v.SetDefault("scan.extra_ignore_patterns", []string{})
	v.SetDefault("scan.key_files", DefaultConfig.Scan.KeyFiles)
	v.SetDefault("markers.file_change_start", DefaultConfig.Markers.FileChangeStart)
	v.SetDefault("markers.file_change_end", DefaultConfig.Markers.FileChangeEnd)
	v.SetDefault("markers.file", DefaultConfig.Markers.File)
	v.SetDefault("markers.action", DefaultConfig.Markers.Action)
	v.SetDefault("markers.content", DefaultConfig.Markers.Content)
	v.SetDefault("markers.patch", DefaultConfig.Markers.Patch)
	v.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	v.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	v.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	v.SetDefault("ai_provider_config.max_tokens", 0)
	v.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("theme", "THEME")
	_ = v.BindEnv("debug", "DEBUG")
	_ = v.BindEnv("backup_dir", "BACKUP_DIR")
	_ = v.BindEnv("scan.max_total_chars", "MAX_TOTAL_CHARS")
	_ = v.BindEnv("scan.max_file_size_kb", "MAX_FILE_SIZE_KB")
	_ = v.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = v.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = v.BindEnv("ai_provider_config.model", "MODEL")
	_ = v.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
	_ = v.BindEnv("ai_provider_config.api_key", "API_KEY", "XAI_API_KEY", "VITE_XAI_API_KEY")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	if rootCmd == nil {
		return
	}
	flags := map[string]string{
		"theme":                         "theme",
		"debug":                         "debug",
		"backup_dir":                    "backup_dir",
		"scan.max_total_chars":          "max_total_chars",
		"scan.max_file_size_kb":         "max_file_size_kb",
		"ai_provider_config.provider":   "provider",
		"ai_provider_config.base_url":   "base_url",
		"ai_provider_config.model":      "model",
		"ai_provider_config.max_tokens": "max_tokens",
		"ai_provider_config.api_key":    "api_key",
	}
	for key, name := range flags {
		if flag := rootCmd.PersistentFlags().Lookup(name); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set the chroma theme used to highlight AI responses (e.g., 'dracula', 'monokai', 'github').")
	rootCmd.PersistentFlags().Bool("debug", DefaultConfig.Debug, "Write diagnostic logs to "+LogFile+".")
	rootCmd.PersistentFlags().String("backup_dir", DefaultConfig.BackupDir, "Directory, relative to the project, where overwritten files are backed up.")
	rootCmd.PersistentFlags().Int("max_total_chars", DefaultConfig.Scan.MaxTotalChars, "Character budget of the deep scan context.")
	rootCmd.PersistentFlags().Int("max_file_size_kb", DefaultConfig.Scan.MaxFileSizeKB, "Files larger than this are skipped by the deep scan.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (e.g., 'xai', 'openai', 'ollama').")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of AI Provider (e.g., default is 'https://api.x.ai/v1').")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for chat completions, such as 'grok-3'.")
	rootCmd.PersistentFlags().Int("max_tokens", 0, "Upper bound on completion tokens, 0 for the provider default.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

// backupExcludeDirs anchors the backup directory at the project root so only that directory,
// not every directory sharing its first segment, is skipped.
func backupExcludeDirs(backupDir string) []string {
	if backupDir == "" || filepath.IsAbs(backupDir) {
		return nil
	}
	cleaned := filepath.ToSlash(filepath.Clean(backupDir))
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return nil
	}
	return []string{cleaned + "/"}
}
