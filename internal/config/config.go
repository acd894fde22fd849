package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "DUCKDB_BACKUP"

	DefaultBinary    = "duckdb"
	DefaultTimeout   = 3600 * time.Second
	DefaultMethod    = "cp"
	DefaultExtension = "duckdb"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

type Config struct {
	DuckDB        DuckDBConfig         `mapstructure:"duckdb"`
	Backup        BackupConfig         `mapstructure:"backup"`
	Log           LogConfig            `mapstructure:"log"`
	Notifications []NotificationConfig `mapstructure:"notifications"`
}

type DuckDBConfig struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
	Args    []string      `mapstructure:"args"`
}

type BackupConfig struct {
	Method    string `mapstructure:"method"`
	Extension string `mapstructure:"extension"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NotificationConfig struct {
	Type   string              `mapstructure:"type"`
	On     []string            `mapstructure:"on"`
	Config NotificationDetails `mapstructure:"config"`
}

type NotificationDetails struct {
	SMTPHost string            `mapstructure:"smtp_host"`
	SMTPPort int               `mapstructure:"smtp_port"`
	From     string            `mapstructure:"from"`
	To       string            `mapstructure:"to"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig reads defaults, the optional config file at path and
// DUCKDB_BACKUP_* environment overrides, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ModifyConfig(&cfg)

	return &cfg, nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	return &Config{
		DuckDB: DuckDBConfig{Binary: DefaultBinary, Timeout: DefaultTimeout},
		Backup: BackupConfig{Method: DefaultMethod, Extension: DefaultExtension},
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("duckdb.binary", d.DuckDB.Binary)
	v.SetDefault("duckdb.timeout", d.DuckDB.Timeout)
	v.SetDefault("duckdb.args", []string{})
	v.SetDefault("backup.method", d.Backup.Method)
	v.SetDefault("backup.extension", d.Backup.Extension)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func ModifyConfig(cfg *Config) {
	cfg.DuckDB.Binary = os.ExpandEnv(cfg.DuckDB.Binary)
	for i := range cfg.DuckDB.Args {
		cfg.DuckDB.Args[i] = os.ExpandEnv(cfg.DuckDB.Args[i])
	}
	cfg.Backup.Extension = strings.TrimPrefix(strings.TrimSpace(cfg.Backup.Extension), ".")
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	for i := range cfg.Notifications {
		nt := &cfg.Notifications[i]
		nt.Type = os.ExpandEnv(nt.Type)
		for j := range nt.On {
			nt.On[j] = os.ExpandEnv(nt.On[j])
		}
		nt.Config.SMTPHost = os.ExpandEnv(nt.Config.SMTPHost)
		nt.Config.From = os.ExpandEnv(nt.Config.From)
		nt.Config.To = os.ExpandEnv(nt.Config.To)
		nt.Config.Username = os.ExpandEnv(nt.Config.Username)
		nt.Config.Password = os.ExpandEnv(nt.Config.Password)
		nt.Config.URL = os.ExpandEnv(nt.Config.URL)
		for k, v := range nt.Config.Headers {
			nt.Config.Headers[k] = os.ExpandEnv(v)
		}
	}
}
