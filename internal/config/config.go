// Package config loads querydeck settings once at process start.
// Sources, highest priority first: QUERYDECK_* environment variables,
// .env.local, .env, config.yaml (working directory, then the XDG config dir),
// built-in defaults. Nothing here can be changed after Load returns.
//
// Secrets such as engine DSNs may also live in the OS keychain; callers consult
// it only when the configuration leaves the DSN empty.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"querydeck/cli/internal/xdg"
)

// AppFs is the file system used to look up config and dotenv files.
var AppFs = afero.NewOsFs()

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "QUERYDECK"

// Config holds process-wide settings.
type Config struct {
	LogLevel  string
	LogFormat string
	Relay     RelayConfig
	Engine    EngineConfig
	Client    ClientConfig
}

// RelayConfig holds the relay's listening side.
type RelayConfig struct {
	// ListenAddr is the HTTP listen address, e.g. ":3001".
	ListenAddr string
	// GRPCAddr is the gRPC listen address; empty disables the gRPC listener.
	GRPCAddr string
	// AllowedOrigins lists origins allowed to call the relay from a browser.
	AllowedOrigins []string
}

// EngineConfig describes the downstream query engine.
type EngineConfig struct {
	// Kind selects the adapter: druid, postgres, mysql, sqlite or rqlite.
	Kind string
	// URL is the druid SQL endpoint.
	URL string
	// DSN is the connection string for the SQL adapters.
	DSN string
	// Timeout bounds one downstream call; zero means no limit.
	Timeout time.Duration
}

// ClientConfig holds settings for commands that talk to a running relay.
type ClientConfig struct {
	RelayURL      string
	RelayGRPC     string
	DashboardFile string
}

// Option customizes Load.
type Option func(*loader)

type loader struct {
	fs    afero.Fs
	paths []string
}

// WithFs makes Load read files from fs instead of AppFs.
func WithFs(fs afero.Fs) Option {
	return func(l *loader) { l.fs = fs }
}

// WithSearchPaths replaces the directories searched for config.yaml and dotenv files.
// The first path is also where dotenv files are looked up.
func WithSearchPaths(paths ...string) Option {
	return func(l *loader) { l.paths = paths }
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("listen_addr", ":3001")
	v.SetDefault("grpc_addr", "")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("engine", "druid")
	v.SetDefault("downstream_url", "http://localhost:8888/druid/v2/sql")
	v.SetDefault("engine_dsn", "")
	v.SetDefault("downstream_timeout", time.Duration(0))
	v.SetDefault("relay_url", "http://localhost:3001")
	v.SetDefault("relay_grpc", "")
	v.SetDefault("dashboard_file", "")
}

// Load reads the configuration.
// A missing config file is not an error; a malformed one is.
func Load(opts ...Option) (Config, error) {
	l := &loader{fs: AppFs}
	for _, opt := range opts {
		opt(l)
	}
	if l.paths == nil {
		l.paths = []string{"."}
		if dir, err := xdg.ConfigPath(); err == nil {
			l.paths = append(l.paths, dir)
		}
	}

	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range l.paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyDotEnv(v, l.fs, l.paths[0]); err != nil {
		return Config{}, err
	}

	c := Config{
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		Relay: RelayConfig{
			ListenAddr:     v.GetString("listen_addr"),
			GRPCAddr:       v.GetString("grpc_addr"),
			AllowedOrigins: splitList(v.GetStringSlice("allowed_origins")),
		},
		Engine: EngineConfig{
			Kind:    strings.ToLower(strings.TrimSpace(v.GetString("engine"))),
			URL:     v.GetString("downstream_url"),
			DSN:     v.GetString("engine_dsn"),
			Timeout: v.GetDuration("downstream_timeout"),
		},
		Client: ClientConfig{
			RelayURL:      v.GetString("relay_url"),
			RelayGRPC:     v.GetString("relay_grpc"),
			DashboardFile: v.GetString("dashboard_file"),
		},
	}
	if c.Engine.DSN == "" {
		c.Engine.DSN = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	return c, c.Validate()
}

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	switch c.Engine.Kind {
	case "druid", "postgres", "mysql", "sqlite", "rqlite":
	default:
		return fmt.Errorf("unknown engine %q (use druid, postgres, mysql, sqlite or rqlite)", c.Engine.Kind)
	}
	if strings.TrimSpace(c.Relay.ListenAddr) == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.Engine.Timeout < 0 {
		return errors.New("downstream_timeout must not be negative")
	}
	return nil
}

// applyDotEnv feeds .env.local and .env values into v for keys that the real
// environment does not set. .env.local wins over .env.
func applyDotEnv(v *viper.Viper, fs afero.Fs, dir string) error {
	seen := make(map[string]bool)
	for _, name := range []string{".env.local", ".env"} {
		p := filepath.Join(dir, name)
		if _, err := fs.Stat(p); err != nil {
			continue
		}
		f, err := fs.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		vals, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for envName, val := range vals {
			if !strings.HasPrefix(envName, EnvPrefix+"_") {
				continue
			}
			if _, set := os.LookupEnv(envName); set {
				continue
			}
			key := strings.ToLower(strings.TrimPrefix(envName, EnvPrefix+"_"))
			if seen[key] {
				continue
			}
			seen[key] = true
			v.Set(key, val)
		}
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
