package models

import "time"

type AppConfig struct {
	DataDir   string            `mapstructure:"data_dir"`
	LogLevel  string            `mapstructure:"log_level"`
	LogFile   string            `mapstructure:"log_file"`
	Roots     map[string]string `mapstructure:"roots"`     // alias -> path
	Schedules map[string]string `mapstructure:"schedules"` // alias -> cron expression
	Scan      ScanOptions       `mapstructure:"scan"`
	Search    SearchConfig      `mapstructure:"search"`
	Server    ServerConfig      `mapstructure:"server"`
	Enrich    EnrichConfig      `mapstructure:"enrich"`
	ScanLogs  ScanLogsConfig    `mapstructure:"scan_logs"`
}

type SearchConfig struct {
	PageSize int `mapstructure:"page_size"` // default result limit, 0 = 100
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type EnrichConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// ScanLogsConfig controls the per-scan audit logs kept next to the
// database.
type ScanLogsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	RetentionDays int  `mapstructure:"retention_days"`
}
