package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Realmd holds all configuration for the authentication gateway. The value
// is constructed once at startup and passed by value; there is no mutable
// global configuration.
type Realmd struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Security
	StrictVersionCheck  bool `yaml:"strict_version_check"`
	WrongPassMaxCount   int  `yaml:"wrong_pass_max_count"` // 0 disables auto-ban
	WrongPassBanTime    int  `yaml:"wrong_pass_ban_time"`  // seconds
	WrongPassBanAccount bool `yaml:"wrong_pass_ban_account"` // false bans the IP instead
	AutoCreateAccounts  bool `yaml:"auto_create_accounts"`

	// Realm list
	RealmsUpdateInterval int `yaml:"realms_update_interval"` // seconds

	// Database keepalive
	MaxPingTime int `yaml:"max_ping_time"` // minutes
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultRealmd returns Realmd config with sensible defaults.
func DefaultRealmd() Realmd {
	return Realmd{
		BindAddress:          "0.0.0.0",
		Port:                 3724,
		StrictVersionCheck:   false,
		WrongPassMaxCount:    0,
		WrongPassBanTime:     600,
		WrongPassBanAccount:  false,
		AutoCreateAccounts:   false,
		RealmsUpdateInterval: 20,
		MaxPingTime:          30,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "realmd",
			Password: "realmd",
			DBName:   "realmd",
			SSLMode:  "disable",
		},
	}
}

// LoadRealmd loads realmd config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadRealmd(path string) (Realmd, error) {
	cfg := DefaultRealmd()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
