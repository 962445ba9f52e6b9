// Package config resolves runtime settings from flags, JOHAR_* environment
// variables, an optional config file and a .env file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"example.com/johar/internal/recordstore"
)

const envPrefix = "JOHAR"

type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string

	Store    recordstore.Config
	Temporal Temporal

	// JWTSecret signs admin tokens. Admin routes reject every request when empty.
	JWTSecret  string
	CertSecret string

	CORSOrigins []string
	TrustProxy  bool
	ChatRate    float64
	ChatBurst   int
}

// Temporal points at a Temporal frontend. An empty HostPort means batches run
// in process.
type Temporal struct {
	HostPort  string
	Namespace string
}

// Flags returns the flag set shared by every binary. Callers may add their own
// flags before parsing.
func Flags(name string) *pflag.FlagSet {
	set := pflag.NewFlagSet(name, pflag.ContinueOnError)
	set.String("config", "", "optional config file (yaml, json or toml)")
	set.String("addr", ":8080", "HTTP listen address")
	set.String("log-level", "info", "minimum log level: debug, info, warn, error")
	set.String("log-format", "json", "log format: json or console")

	set.String("store-driver", recordstore.DriverSQLite, "record store backend: memory, sqlite, postgres, redis, s3")
	set.String("store-dsn", "johar.db", "backend location: sqlite path, postgres DSN or redis URL")
	set.String("store-prefix", "johar/", "key prefix for redis and s3 backends")
	set.Duration("store-connect-timeout", 30*time.Second, "how long to wait for a network backend on start")
	set.String("s3-bucket", "", "s3 bucket")
	set.String("s3-region", "ap-south-1", "s3 region")
	set.String("s3-endpoint", "", "custom s3 endpoint, e.g. a MinIO URL")
	set.String("s3-access-key-id", "", "static s3 access key id")
	set.String("s3-secret-access-key", "", "static s3 secret access key")
	set.Bool("s3-path-style", false, "use path-style s3 addressing")

	set.String("temporal-host", "", "Temporal frontend host:port; empty runs batches in process")
	set.String("temporal-namespace", "default", "Temporal namespace")

	set.String("jwt-secret", "", "HMAC secret for admin bearer tokens")
	set.String("cert-secret", "johar-dev-certificate-secret", "HMAC secret for certificate proof tokens")
	set.StringSlice("cors-origins", []string{"*"}, "allowed CORS origins")
	set.Bool("trust-proxy", false, "take client addresses from X-Forwarded-For; only behind a trusted proxy")
	set.Float64("chat-rate", 2, "chat requests per second allowed per client")
	set.Int("chat-burst", 5, "chat burst size per client")
	return set
}

// Load resolves the configuration once flags have been parsed. A missing .env
// file is not an error.
func Load(flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Addr:      v.GetString("addr"),
		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),
		Store: recordstore.Config{
			Driver:         v.GetString("store-driver"),
			DSN:            v.GetString("store-dsn"),
			Prefix:         v.GetString("store-prefix"),
			ConnectTimeout: v.GetDuration("store-connect-timeout"),
			S3: recordstore.S3Config{
				Bucket:          v.GetString("s3-bucket"),
				Region:          v.GetString("s3-region"),
				Endpoint:        v.GetString("s3-endpoint"),
				AccessKeyID:     v.GetString("s3-access-key-id"),
				SecretAccessKey: v.GetString("s3-secret-access-key"),
				PathStyle:       v.GetBool("s3-path-style"),
			},
		},
		Temporal: Temporal{
			HostPort:  v.GetString("temporal-host"),
			Namespace: v.GetString("temporal-namespace"),
		},
		JWTSecret:   v.GetString("jwt-secret"),
		CertSecret:  v.GetString("cert-secret"),
		CORSOrigins: v.GetStringSlice("cors-origins"),
		TrustProxy:  v.GetBool("trust-proxy"),
		ChatRate:    v.GetFloat64("chat-rate"),
		ChatBurst:   v.GetInt("chat-burst"),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.CertSecret == "" {
		errs = append(errs, errors.New("cert-secret is required"))
	}
	if c.ChatRate <= 0 || c.ChatBurst < 1 {
		errs = append(errs, fmt.Errorf("chat rate %v burst %d must be positive", c.ChatRate, c.ChatBurst))
	}
	if c.Store.Driver == recordstore.DriverS3 && c.Store.S3.Bucket == "" {
		errs = append(errs, errors.New("s3-bucket is required for the s3 store"))
	}
	return errors.Join(errs...)
}
