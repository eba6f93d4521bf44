/*
Package config manages TOML (or YAML) config for trieserve.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bastiangx/trieserve/internal/utils"
	apperrors "github.com/bastiangx/trieserve/pkg/errors"
	"github.com/bastiangx/trieserve/pkg/hasharray"
	"github.com/bastiangx/trieserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Trie   TrieConfig   `toml:"trie" yaml:"trie"`
	Server ServerConfig `toml:"server" yaml:"server"`
	CLI    CliConfig    `toml:"cli" yaml:"cli"`
}

// TrieConfig mirrors suggest.Options in file form.
// Fields and IndexField use dots for nested paths ("meta.title").
type TrieConfig struct {
	Fields               []string `toml:"fields" yaml:"fields"`
	IndexField           string   `toml:"index_field" yaml:"index_field"`
	Min                  int      `toml:"min" yaml:"min"`
	IgnoreCase           bool     `toml:"ignore_case" yaml:"ignore_case"`
	Cache                bool     `toml:"cache" yaml:"cache"`
	MaxCacheSize         int      `toml:"max_cache_size" yaml:"max_cache_size"`
	MaxWordCacheSize     int      `toml:"max_word_cache_size" yaml:"max_word_cache_size"`
	SplitOn              string   `toml:"split_on" yaml:"split_on"`
	SplitOnGet           string   `toml:"split_on_get" yaml:"split_on_get"`
	InsertFullUnsplitKey bool     `toml:"insert_full_unsplit_key" yaml:"insert_full_unsplit_key"`
	Expand               bool     `toml:"expand" yaml:"expand"`
	FoldDiacritics       bool     `toml:"fold_diacritics" yaml:"fold_diacritics"`
	Tokenizer            string   `toml:"tokenizer" yaml:"tokenizer"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit    int    `toml:"max_limit" yaml:"max_limit"`
	MaxPhrases  int    `toml:"max_phrases" yaml:"max_phrases"`
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit" yaml:"default_limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Trie: TrieConfig{
			Fields:           []string{"text"},
			IndexField:       "id",
			Min:              1,
			IgnoreCase:       true,
			Cache:            true,
			MaxCacheSize:     64,
			MaxWordCacheSize: 64,
			SplitOn:          `\s`,
			SplitOnGet:       `\s`,
			Expand:           true,
			Tokenizer:        "chars",
		},
		Server: ServerConfig{
			MaxLimit:   64,
			MaxPhrases: 16,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
		},
	}
}

func parseField(s string) hasharray.KeyField {
	return hasharray.Path(strings.Split(s, ".")...)
}

// KeyFields converts the configured field names to key descriptors.
func (tc TrieConfig) KeyFields() ([]hasharray.KeyField, error) {
	out := make([]hasharray.KeyField, 0, len(tc.Fields))
	for _, f := range tc.Fields {
		kf := parseField(f)
		if !kf.Valid() {
			return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "invalid field %q", f)
		}
		out = append(out, kf)
	}
	return out, nil
}

// Options builds suggest.Options. Empty split patterns disable splitting.
func (tc TrieConfig) Options() (suggest.Options, error) {
	opts := suggest.DefaultOptions()
	opts.Min = tc.Min
	opts.IgnoreCase = tc.IgnoreCase
	opts.Cache = tc.Cache
	opts.MaxCacheSize = tc.MaxCacheSize
	opts.MaxWordCacheSize = tc.MaxWordCacheSize
	opts.InsertFullUnsplitKey = tc.InsertFullUnsplitKey
	opts.FoldDiacritics = tc.FoldDiacritics

	var err error
	if opts.SplitOn, err = compileSplit(tc.SplitOn); err != nil {
		return opts, err
	}
	if opts.SplitOnGet, err = compileSplit(tc.SplitOnGet); err != nil {
		return opts, err
	}
	if !tc.Expand {
		opts.ExpandRules = []suggest.ExpandRule{}
	}
	if opts.Tokenizer, err = suggest.TokenizerByName(tc.Tokenizer); err != nil {
		return opts, err
	}
	if tc.IndexField != "" {
		if opts.IndexField = parseField(tc.IndexField); !opts.IndexField.Valid() {
			return opts, apperrors.Newf(apperrors.ErrInvalidArgument, "invalid index field %q", tc.IndexField)
		}
	}
	return opts, nil
}

func compileSplit(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "split pattern %q: %v", pattern, err)
	}
	return re, nil
}

// GetConfigDir returns the first writable directory of utils.ConfigDirCandidates.
func GetConfigDir() (string, error) {
	for _, dir := range utils.ConfigDirCandidates() {
		if result := utils.CheckDirStatus(dir); result.Writable {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no writable config directory")
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/trieserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML or YAML file. Keys missing from the file keep
// their defaults; a file that fails to decode is recovered section by section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadConfigFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "trie"); ok {
		extractTrieConfig(section, &config.Trie)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractTrieConfig(data map[string]any, trie *TrieConfig) {
	if val, ok := utils.ExtractStrings(data, "fields"); ok {
		trie.Fields = val
	}
	if val, ok := utils.ExtractString(data, "index_field"); ok {
		trie.IndexField = val
	}
	if val, ok := utils.ExtractInt(data, "min"); ok {
		trie.Min = val
	}
	if val, ok := utils.ExtractBool(data, "ignore_case"); ok {
		trie.IgnoreCase = val
	}
	if val, ok := utils.ExtractBool(data, "cache"); ok {
		trie.Cache = val
	}
	if val, ok := utils.ExtractInt(data, "max_cache_size"); ok {
		trie.MaxCacheSize = val
	}
	if val, ok := utils.ExtractInt(data, "max_word_cache_size"); ok {
		trie.MaxWordCacheSize = val
	}
	if val, ok := utils.ExtractString(data, "split_on"); ok {
		trie.SplitOn = val
	}
	if val, ok := utils.ExtractString(data, "split_on_get"); ok {
		trie.SplitOnGet = val
	}
	if val, ok := utils.ExtractBool(data, "insert_full_unsplit_key"); ok {
		trie.InsertFullUnsplitKey = val
	}
	if val, ok := utils.ExtractBool(data, "expand"); ok {
		trie.Expand = val
	}
	if val, ok := utils.ExtractBool(data, "fold_diacritics"); ok {
		trie.FoldDiacritics = val
	}
	if val, ok := utils.ExtractString(data, "tokenizer"); ok {
		trie.Tokenizer = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt(data, "max_phrases"); ok {
		server.MaxPhrases = val
	}
	if val, ok := utils.ExtractString(data, "metrics_addr"); ok {
		server.MetricsAddr = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file, or YAML for .yaml/.yml paths.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveConfigFile(config, configPath)
}
