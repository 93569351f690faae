// Package config loads hypot's runtime configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables, then command-line flags. A later layer only
// overrides what it actually sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
	DriverMongo    = "mongo"
)

type Config struct {
	Port            int         `yaml:"port"`
	Store           StoreConfig `yaml:"store"`
	TLS             TLSConfig   `yaml:"tls"`
	BcryptCost      int         `yaml:"bcrypt_cost"`
	Log             LogConfig   `yaml:"log"`
	BootstrapAdmins []string    `yaml:"bootstrap_admins"`
}

// StoreConfig selects the storage backend. DSN is a file path for sqlite,
// a connection string for pgx and a mongodb:// URI for mongo. Database is
// only read by the mongo driver.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Enabled reports whether both halves of the key pair are configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Defaults() Config {
	return Config{
		Port: 8080,
		Store: StoreConfig{
			Driver:   DriverSQLite,
			DSN:      "data/hypot.db",
			Database: "hypot",
		},
		BcryptCost: 12,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from args (without the program name) and
// the environment lookup getenv. pflag.ErrHelp is returned unwrapped when
// --help was requested.
func Load(args []string, getenv func(string) string) (*Config, error) {
	flagged := Defaults()
	fs, configPath := newFlagSet(&flagged)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, pflag.ErrHelp
		}
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("config: unexpected argument %q", fs.Arg(0))
	}

	cfg := Defaults()
	path := *configPath
	if path == "" {
		path = getenv("HYPOT_CONFIG")
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	// Flags were parsed into a scratch copy; apply the ones actually given
	// last so they win over the file and the environment.
	applyFlags(fs, &cfg, &flagged)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile decodes the YAML file at path over cfg. Keys absent from the
// file leave cfg untouched; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func newFlagSet(cfg *Config) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("hypot", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (env HYPOT_CONFIG)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.Store.Driver, "store-driver", cfg.Store.Driver, "storage backend: sqlite, pgx or mongo")
	fs.StringVar(&cfg.Store.DSN, "store-dsn", cfg.Store.DSN, "storage data source (file path, postgres DSN or mongodb URI)")
	fs.StringVar(&cfg.Store.Database, "store-database", cfg.Store.Database, "mongo database name")
	fs.StringVar(&cfg.TLS.CertFile, "tls-cert-file", cfg.TLS.CertFile, "TLS certificate file")
	fs.StringVar(&cfg.TLS.KeyFile, "tls-key-file", cfg.TLS.KeyFile, "TLS private key file")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt work factor")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format: text or json")
	fs.StringSliceVar(&cfg.BootstrapAdmins, "bootstrap-admin", cfg.BootstrapAdmins, "username granted admin and premium on registration (repeatable)")
	return fs, configPath
}

// applyFlags copies only explicitly set flags from src into dst.
func applyFlags(fs *pflag.FlagSet, dst, src *Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "port":
			dst.Port = src.Port
		case "store-driver":
			dst.Store.Driver = src.Store.Driver
		case "store-dsn":
			dst.Store.DSN = src.Store.DSN
		case "store-database":
			dst.Store.Database = src.Store.Database
		case "tls-cert-file":
			dst.TLS.CertFile = src.TLS.CertFile
		case "tls-key-file":
			dst.TLS.KeyFile = src.TLS.KeyFile
		case "bcrypt-cost":
			dst.BcryptCost = src.BcryptCost
		case "log-level":
			dst.Log.Level = src.Log.Level
		case "log-format":
			dst.Log.Format = src.Log.Format
		case "bootstrap-admin":
			dst.BootstrapAdmins = src.BootstrapAdmins
		}
	})
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %q is not a number", key, v)
		}
		*dst = n
		return nil
	}

	if err := setInt("PORT", &cfg.Port); err != nil {
		return err
	}
	if err := setInt("BCRYPT_COST", &cfg.BcryptCost); err != nil {
		return err
	}
	setString("STORE_DRIVER", &cfg.Store.Driver)
	setString("STORE_DSN", &cfg.Store.DSN)
	setString("STORE_DATABASE", &cfg.Store.Database)
	setString("TLS_CERT_FILE", &cfg.TLS.CertFile)
	setString("TLS_KEY_FILE", &cfg.TLS.KeyFile)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	if v := getenv("BOOTSTRAP_ADMINS"); v != "" {
		var admins []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				admins = append(admins, name)
			}
		}
		cfg.BootstrapAdmins = admins
	}
	return nil
}

// Validate checks the values no layer can be trusted to get right.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return errors.New("config: store dsn is required")
	}
	if c.Store.Driver == DriverMongo && c.Store.Database == "" {
		return errors.New("config: store database is required for mongo")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: bcrypt cost %d outside [4, 31]", c.BcryptCost)
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return errors.New("config: tls needs both cert_file and key_file")
	}
	return nil
}
