// Package config loads smskit settings from an optional config file, a
// .env file and SMSKIT_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/spachava753/smskit/android"
	"github.com/spachava753/smskit/internal/logger"
)

// Store kinds.
const (
	StoreAndroid  = "android"
	StoreBackup   = "backup"
	StoreMessages = "messages"
)

// Transports.
const (
	TransportGateway  = "gateway"
	TransportMessages = "messages"
)

// Segment policies.
const (
	PolicyUnits = "units"
	PolicyGSM   = "gsm"
)

type StoreConfig struct {
	Kind string
	Path string
	// Root is an extracted Android data directory. The android store reads
	// android.DefaultPath(Root) when Path is empty.
	Root string
	// Service filters the messages store, for example "SMS". Empty reads
	// every service.
	Service string
}

type BackupConfig struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
}

// GatewayConfig is optional; sending is unavailable when Addr is empty.
type GatewayConfig struct {
	Addr      string
	Security  string
	Username  string
	Password  string
	From      string
	Domain    string
	PerSecond float64
	Burst     int
}

// PermissionsConfig lists the capabilities granted to this process.
type PermissionsConfig struct {
	Read bool
	Send bool
}

type SegmentConfig struct {
	Policy    string
	Threshold int
}

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

type Config struct {
	Log         logger.Config
	Store       StoreConfig
	Backup      BackupConfig
	Gateway     GatewayConfig
	Transport   string
	Permissions PermissionsConfig
	Segment     SegmentConfig
	Server      ServerConfig
	Timeout     time.Duration
}

// Load reads configuration. path may be empty.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("smskit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s failed: %w", path, err)
		}
	}

	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid timeout: %w", err)
	}

	cfg := &Config{
		Log: logger.Config{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
			MaxSizeMB:   v.GetInt("log.max_size_mb"),
			MaxBackups:  v.GetInt("log.max_backups"),
			MaxAgeDays:  v.GetInt("log.max_age_days"),
			Compress:    v.GetBool("log.compress"),
		},
		Store: StoreConfig{
			Kind:    strings.ToLower(strings.TrimSpace(v.GetString("store.kind"))),
			Path:    strings.TrimSpace(v.GetString("store.path")),
			Root:    strings.TrimSpace(v.GetString("store.root")),
			Service: strings.TrimSpace(v.GetString("store.service")),
		},
		Backup: BackupConfig{
			Addr:     v.GetString("backup.addr"),
			Username: v.GetString("backup.username"),
			Password: v.GetString("backup.password"),
			Mailbox:  v.GetString("backup.mailbox"),
		},
		Gateway: GatewayConfig{
			Addr:      strings.TrimSpace(v.GetString("gateway.addr")),
			Security:  v.GetString("gateway.security"),
			Username:  v.GetString("gateway.username"),
			Password:  v.GetString("gateway.password"),
			From:      v.GetString("gateway.from"),
			Domain:    v.GetString("gateway.domain"),
			PerSecond: v.GetFloat64("gateway.per_second"),
			Burst:     v.GetInt("gateway.burst"),
		},
		Transport: strings.ToLower(strings.TrimSpace(v.GetString("transport"))),
		Permissions: PermissionsConfig{
			Read: v.GetBool("permissions.read"),
			Send: v.GetBool("permissions.send"),
		},
		Segment: SegmentConfig{
			Policy:    strings.ToLower(strings.TrimSpace(v.GetString("segment.policy"))),
			Threshold: v.GetInt("segment.threshold"),
		},
		Server: ServerConfig{
			Addr:           v.GetString("server.addr"),
			AllowedOrigins: parseList(v.GetString("server.allowed_origins")),
		},
		Timeout: timeout,
	}

	if cfg.Store.Kind == StoreAndroid && cfg.Store.Path == "" && cfg.Store.Root != "" {
		cfg.Store.Path = android.DefaultPath(cfg.Store.Root)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SendEnabled reports whether a transport is configured. The gateway
// transport needs gateway.addr; Messages.app needs nothing further.
func (c *Config) SendEnabled() bool {
	if c.Transport == TransportMessages {
		return true
	}
	return c.Gateway.Addr != ""
}

func (c *Config) validate() error {
	var errs []error

	switch c.Store.Kind {
	case StoreAndroid:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path or store.root is required for the android store"))
		}
	case StoreMessages:
	case StoreBackup:
		if c.Backup.Addr == "" || c.Backup.Username == "" || c.Backup.Password == "" {
			errs = append(errs, errors.New("backup.addr, backup.username and backup.password are required for the backup store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.kind must be one of %q, %q or %q, got %q",
			StoreAndroid, StoreBackup, StoreMessages, c.Store.Kind))
	}

	switch c.Transport {
	case TransportGateway:
		if c.SendEnabled() && (c.Gateway.Domain == "" || c.Gateway.From == "") {
			errs = append(errs, errors.New("gateway.domain and gateway.from are required when gateway.addr is set"))
		}
	case TransportMessages:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", TransportGateway, TransportMessages, c.Transport))
	}

	switch c.Segment.Policy {
	case PolicyUnits:
		if c.Segment.Threshold <= 0 {
			errs = append(errs, errors.New("segment.threshold must be positive"))
		}
	case PolicyGSM:
	default:
		errs = append(errs, fmt.Errorf("segment.policy must be %q or %q, got %q", PolicyUnits, PolicyGSM, c.Segment.Policy))
	}

	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("store.kind", StoreAndroid)
	v.SetDefault("store.path", "")
	v.SetDefault("store.root", "")
	v.SetDefault("store.service", "SMS")
	v.SetDefault("transport", TransportGateway)
	v.SetDefault("backup.addr", "imap.gmail.com:993")
	v.SetDefault("backup.username", "")
	v.SetDefault("backup.password", "")
	v.SetDefault("backup.mailbox", "SMS")
	v.SetDefault("gateway.addr", "")
	v.SetDefault("gateway.security", "tls")
	v.SetDefault("gateway.username", "")
	v.SetDefault("gateway.password", "")
	v.SetDefault("gateway.from", "")
	v.SetDefault("gateway.domain", "")
	v.SetDefault("gateway.per_second", 1)
	v.SetDefault("gateway.burst", 1)
	v.SetDefault("permissions.read", true)
	v.SetDefault("permissions.send", false)
	v.SetDefault("segment.policy", PolicyUnits)
	v.SetDefault("segment.threshold", 160)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", "")
	v.SetDefault("timeout", "30s")
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile loads .env from the working directory when present. Existing
// environment variables win.
func loadEnvFile() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}
