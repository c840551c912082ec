package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "OFFICELEASE"

type AppConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" yaml:"driver"`
	Path         string `mapstructure:"path" yaml:"path"`
	DSN          string `mapstructure:"dsn" yaml:"dsn"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type StorageConfig struct {
	DocumentsDir string `mapstructure:"documents_dir" yaml:"documents_dir"`
	ReceiptsDir  string `mapstructure:"receipts_dir" yaml:"receipts_dir"`
	BackupDir    string `mapstructure:"backup_dir" yaml:"backup_dir"`
}

type ReceiptsConfig struct {
	CompanyName    string `mapstructure:"company_name" yaml:"company_name"`
	CompanyAddress string `mapstructure:"company_address" yaml:"company_address"`
	CompanyPhone   string `mapstructure:"company_phone" yaml:"company_phone"`
	SignaturePath  string `mapstructure:"signature_path" yaml:"signature_path"`
	Currency       string `mapstructure:"currency" yaml:"currency"`
}

// DriveConfig configures the Google Drive backup target. ClientSecret is only
// ever read from the environment and never written back.
type DriveConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"-"`
	TokenPath    string `mapstructure:"token_path" yaml:"token_path"`
	RedirectURL  string `mapstructure:"redirect_url" yaml:"redirect_url"`
	FolderName   string `mapstructure:"folder_name" yaml:"folder_name"`
}

type BackupConfig struct {
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
	Keep     int    `mapstructure:"keep" yaml:"keep"`
}

type Config struct {
	App      AppConfig      `mapstructure:"app" yaml:"app"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Receipts ReceiptsConfig `mapstructure:"receipts" yaml:"receipts"`
	Drive    DriveConfig    `mapstructure:"drive" yaml:"drive"`
	Backup   BackupConfig   `mapstructure:"backup" yaml:"backup"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Office Lease Manager")
	v.SetDefault("app.environment", "development")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/officelease.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("storage.documents_dir", "data/documents")
	v.SetDefault("storage.receipts_dir", "data/receipts")
	v.SetDefault("storage.backup_dir", "data/backups")

	v.SetDefault("receipts.company_name", "Office Lease Manager")
	v.SetDefault("receipts.company_address", "")
	v.SetDefault("receipts.company_phone", "")
	v.SetDefault("receipts.signature_path", "")
	v.SetDefault("receipts.currency", "TND")

	v.SetDefault("drive.client_id", "")
	v.SetDefault("drive.client_secret", "")
	v.SetDefault("drive.token_path", "data/drive_token.json")
	v.SetDefault("drive.redirect_url", "http://localhost:8085/callback")
	v.SetDefault("drive.folder_name", "Office Lease Backups")

	v.SetDefault("backup.schedule", "")
	v.SetDefault("backup.keep", 30)
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads config.yaml (or the explicit path) and OFFICELEASE_* environment
// variables on top of the defaults. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".officelease"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid backup.schedule %q: %w", c.Backup.Schedule, err)
		}
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Save writes the configuration as YAML. Secrets are left out.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
