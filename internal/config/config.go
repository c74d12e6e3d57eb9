// Package config loads the process configuration once at startup.
//
// Values come from an optional .env file and the environment. The returned
// Config is a plain value: constructors receive the part they need and nothing
// reads configuration globally after Load returns.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// RefreshTokenTTL is the fixed lifetime of refresh tokens.
const RefreshTokenTTL = 7 * 24 * time.Hour

// Config is the immutable process configuration.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string
	Database Database
	Auth     Auth
	Redis    Redis
	RabbitMQ RabbitMQ
}

// Database selects the GORM dialector and its DSN.
type Database struct {
	Driver string
	DSN    string
}

// Auth holds token signing and password hashing settings.
type Auth struct {
	SecretKey       string
	Algorithm       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// Redis backs the refresh-token revocation store. An empty Addr keeps
// revocations in process memory.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQ carries order events. An empty URL disables publishing.
type RabbitMQ struct {
	URL      string
	Exchange string
}

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// Load reads .env (when present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, errors.Wrap(err, "failed to read .env")
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "ordering.db")
	v.SetDefault("ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "orders")
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:  v.GetString("APP_PORT"),
		AppEnv:   strings.ToLower(v.GetString("APP_ENV")),
		LogLevel: v.GetString("LOG_LEVEL"),
		Database: Database{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: Auth{
			SecretKey:       v.GetString("SECRET_KEY"),
			Algorithm:       strings.ToUpper(v.GetString("ALGORITHM")),
			AccessTokenTTL:  time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
			RefreshTokenTTL: RefreshTokenTTL,
			BcryptCost:      v.GetInt("BCRYPT_COST"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RabbitMQ: RabbitMQ{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
	}

	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Auth.SecretKey == "" {
		return errors.New("SECRET_KEY must be set")
	}
	if !supportedAlgorithms[c.Auth.Algorithm] {
		return errors.Errorf("unsupported ALGORITHM %q (supported: HS256, HS384, HS512)", c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}
