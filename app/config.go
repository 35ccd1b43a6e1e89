package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// LoadConfig reads the YAML config at path. An empty path looks for
// config.yaml in the user config directory; a missing file there is not
// an error, the defaults apply. An explicitly named file must exist.
func LoadConfig(path string) (*models.AppConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg models.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")
	v.SetDefault("scan.skip_hidden", true)
	v.SetDefault("search.page_size", defaultPageSize)
	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("enrich.enabled", true)
	v.SetDefault("enrich.cache_size", 8192)
	v.SetDefault("enrich.cache_ttl", time.Hour)
	v.SetDefault("scan_logs.enabled", true)
	v.SetDefault("scan_logs.retention_days", 30)
}

// DefaultConfigDir is where an empty --config flag looks for config.yaml.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "drivecat")
}

func defaultDataDir() string {
	return filepath.Join(DefaultConfigDir(), "data")
}
