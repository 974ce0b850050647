package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the paths a fresh installation uses.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns default paths, checking environment variables first:
//   - FOODLOG_CONFIG_PATH: config file (default ~/.config/foodlog.toml)
//   - FOODLOG_HOME: data directory (default ~/.local/share/foodlog)
func GetDefaults() (Defaults, error) {
	configPath, err := envOrHome("FOODLOG_CONFIG_PATH", ".config", "foodlog.toml")
	if err != nil {
		return Defaults{}, err
	}
	baseDir, err := envOrHome("FOODLOG_HOME", ".local", "share", "foodlog")
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func envOrHome(env string, rel ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, rel...)...), nil
}
