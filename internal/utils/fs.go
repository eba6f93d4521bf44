package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const dirPerm = 0755

// DirCheckResult reports whether a config directory is usable.
type DirCheckResult struct {
	Exists   bool
	Writable bool
	Error    error
}

// FileExists reports whether path can be stat'ed.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates dirPath and its parents.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, dirPerm)
}

// SaveConfigFile encodes data to filePath as YAML for .yaml/.yml, TOML otherwise.
func SaveConfigFile(data any, filePath string) (err error) {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create %s: %w", filePath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !IsYAML(filePath) {
		return toml.NewEncoder(f).Encode(data)
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode %s: %w", filePath, err)
	}
	return enc.Close()
}

// GetAbsolutePath resolves configPath for display; "" is reported as "unknown".
func GetAbsolutePath(configPath string) string {
	if configPath == "" {
		return "unknown"
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return configPath
	}
	return abs
}

// CheckDirStatus creates dirPath when missing and checks it for write access.
func CheckDirStatus(dirPath string) DirCheckResult {
	if err := EnsureDir(dirPath); err != nil {
		log.Warnf("Config dir %s unavailable: %v", dirPath, err)
		return DirCheckResult{Error: err}
	}
	return DirCheckResult{Exists: true, Writable: writable(dirPath)}
}

func writable(dirPath string) bool {
	tmp, err := os.CreateTemp(dirPath, ".trieserve-write-*")
	if err != nil {
		log.Debugf("Config dir %s is read-only: %v", dirPath, err)
		return false
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)
	return true
}
