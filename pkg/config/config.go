package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

var configDir string
var configFilePath string

// getConfigDir returns platform-specific config directory
func getConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		// Windows: %LOCALAPPDATA%\sidechain\reels
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "sidechain", "reels"), nil
	}

	// Unix-like (macOS, Linux): ~/.config/sidechain/reels
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sidechain", "reels"), nil
}

// getSystemConfigPaths returns platform-specific system config paths
func getSystemConfigPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(os.Getenv("ProgramFiles"), "Sidechain", "reels", "config.toml")}
	}
	return []string{
		"/etc/sidechain/reels/config.toml",
		"/usr/local/etc/sidechain/reels/config.toml",
	}
}

// Init initializes the configuration
func Init(configPath string) error {
	var err error
	if configPath != "" {
		configDir = filepath.Dir(configPath)
		configFilePath = configPath
	} else {
		configDir, err = getConfigDir()
		if err != nil {
			return err
		}
		configFilePath = filepath.Join(configDir, "config.toml")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	viper.SetConfigType("toml")
	viper.SetEnvPrefix("REELS")
	viper.AutomaticEnv()

	setDefaults()

	// System config first, user config overrides it
	for _, sysConfigPath := range getSystemConfigPaths() {
		if _, err := os.Stat(sysConfigPath); err == nil {
			viper.SetConfigFile(sysConfigPath)
			_ = viper.ReadInConfig()
			break
		}
	}

	viper.SetConfigFile(configFilePath)
	_ = viper.ReadInConfig()

	return nil
}

func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("api.token", "")
	viper.SetDefault("ws.url", "ws://localhost:8787/api/v1/ws")
	viper.SetDefault("output.format", "text")

	viper.SetDefault("feed.page_size", 10)
	viper.SetDefault("feed.prefetch_distance", 0)
	viper.SetDefault("feed.categories", []string{"dance", "comedy", "music", "food", "travel"})
	viper.SetDefault("comments.page_size", 20)

	viper.SetDefault("playback.grace", "1500ms")
	viper.SetDefault("playback.preload", 1)
	viper.SetDefault("playback.frame_interval", "120ms")
	viper.SetDefault("playback.muted", false)

	viper.SetDefault("render.ffmpeg", "ffmpeg")
	viper.SetDefault("render.width", 48)

	viper.SetDefault("devserver.addr", ":8787")
	viper.SetDefault("devserver.items", 60)
	viper.SetDefault("devserver.seed", 42)
	viper.SetDefault("devserver.fail_rate", 0.0)
	viper.SetDefault("devserver.latency", "0s")

	viper.SetDefault("prefs.file", filepath.Join(configDir, "prefs.json"))
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", filepath.Join(configDir, "sidechain-reels.log"))
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a string configuration value
func GetString(key string) string {
	value := viper.GetString(key)
	if key == "log.file" || key == "prefs.file" {
		return expandPath(value)
	}
	return value
}

// GetInt returns an int configuration value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetFloat64 returns a float configuration value
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetStringSlice returns a list configuration value
func GetStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}

// GetBool returns a bool configuration value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration configuration value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// SetString sets a string configuration value and persists it
func SetString(key string, value string) error {
	viper.Set(key, value)
	return viper.WriteConfigAs(configFilePath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	return configDir
}
