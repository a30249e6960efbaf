package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/minitwitter/internal/logger"
)

// Where session records are kept
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultMediaRoot    = "media"
	defaultMountPrefix  = "/tweet"
	defaultSessionStore = SessionStorePostgres
	defaultRedisAddr    = "localhost:6379"
	defaultSessionTTL   = 14 * 24 * time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Session cookies are signed with it
	SecretKey string

	// Environment
	Environment string

	// Directory uploaded photos are stored in
	MediaRoot string

	// Tweet pages are served under the prefix
	MountPrefix string

	// Session store: postgres or redis
	SessionStore string

	// Redis address, used when sessions are stored in redis
	RedisAddr string

	// How long issued session is valid
	SessionTTL time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:     defaultLoggingLevel,
		ListenAddr:   defaultListenAddr,
		Environment:  defaultEnvironment,
		MediaRoot:    defaultMediaRoot,
		MountPrefix:  defaultMountPrefix,
		SessionStore: defaultSessionStore,
		RedisAddr:    defaultRedisAddr,
		SessionTTL:   defaultSessionTTL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}

	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":   setString(&c.ListenAddr),
		"DATABASE_URI":  setString(&c.DatabaseDSN),
		"SECRET_KEY":    setString(&c.SecretKey),
		"LOG_LEVEL":     setString(&c.LogLevel),
		"ENVIRONMENT":   setString(&c.Environment),
		"MEDIA_ROOT":    setString(&c.MediaRoot),
		"MOUNT_PREFIX":  setString(&c.MountPrefix),
		"SESSION_STORE": setString(&c.SessionStore),
		"REDIS_ADDRESS": setString(&c.RedisAddr),
		"SESSION_TTL":   setDuration(&c.SessionTTL),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("minitwitter", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.MediaRoot, "media-root", "m", c.MediaRoot, "Directory to store uploaded photos")
	fs.StringVarP(&c.MountPrefix, "mount-prefix", "p", c.MountPrefix, "Path prefix of tweet pages")
	fs.StringVar(&c.SessionStore, "session-store", c.SessionStore, "Session store (postgres, redis)")
	fs.StringVar(&c.RedisAddr, "redis-address", c.RedisAddr, "Redis address for session store")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Session lifetime")

	return fs.Parse(args)
}

// Check options that have no usable default
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database connection string is required")
	case c.SecretKey == "":
		return errors.New("secret key is required")
	case c.SessionStore != SessionStorePostgres && c.SessionStore != SessionStoreRedis:
		return fmt.Errorf("unknown session store %q, expected %q or %q", c.SessionStore, SessionStorePostgres, SessionStoreRedis)
	case c.SessionTTL <= 0:
		return errors.New("session ttl must be positive")
	}
	return nil
}
