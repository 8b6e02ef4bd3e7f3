package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"magal/internal/validation"
	"os"
	"path/filepath"
	"time"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"

	EnvConfigPath = "CONFIG_PATH"
)

type Config struct {
	Env    string       `yaml:"env" env:"MAGAL_ENV" env-default:"local" validate:"oneof=local dev prod"`
	API    APIConfig    `yaml:"api"`
	Store  StoreConfig  `yaml:"store"`
	Redis  StorageRedis `yaml:"redis"`
	Upload UploadConfig `yaml:"upload"`
}

type APIConfig struct {
	BaseURL       string        `yaml:"base_url" env:"MAGAL_API_URL" env-default:"https://magal-touba-service-main-wb2l6a.laravel.cloud/api" validate:"required,url"`
	Timeout       time.Duration `yaml:"timeout" env:"MAGAL_API_TIMEOUT" env-default:"10s" validate:"gt=0"`
	AssetBaseURL  string        `yaml:"asset_base_url" env:"MAGAL_ASSET_URL" env-default:"http://localhost:8000" validate:"required,url"`
	RefreshLeeway time.Duration `yaml:"refresh_leeway" env:"MAGAL_REFRESH_LEEWAY" env-default:"5m" validate:"gte=0"`
}

type StoreConfig struct {
	Kind string `yaml:"kind" env:"MAGAL_STORE" env-default:"file" validate:"oneof=memory file redis"`
	// Path of the session file; defaults to <user config dir>/magal/session.json.
	Path string `yaml:"path" env:"MAGAL_STORE_PATH"`
}

type StorageRedis struct {
	Host       string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost" validate:"required"`
	Port       string        `yaml:"port" env:"REDIS_PORT" env-default:"6379" validate:"required,numeric"`
	Password   string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db" env:"REDIS_DB" env-default:"0" validate:"gte=0"`
	Prefix     string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"magal:"`
	Attempts   int           `yaml:"attempts" env:"REDIS_ATTEMPTS" env-default:"3" validate:"min=1"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"REDIS_RETRY_DELAY" env-default:"1s"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" env:"MAGAL_UPLOAD_MAX_BYTES" env-default:"5242880" validate:"gt=0"`
}

// Path returns the config file path from CONFIG_PATH, or flagValue when the
// variable is unset.
func Path(flagValue string) string {
	if path, ok := os.LookupEnv(EnvConfigPath); ok {
		return path
	}
	return flagValue
}

// Load reads the optional yaml file at path, then env variables, then
// validates the result.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	cfg := &Config{}

	// 1. Сначала читаем yaml конфиг (если есть)
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", op, path, err)
		}
	}

	// 2. Затем читаем env переменные (имеют приоритет!)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("%s: read env: %w", op, err)
	}

	if cfg.Store.Kind == StoreFile && cfg.Store.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("%s: resolve session path: %w", op, err)
		}
		cfg.Store.Path = filepath.Join(dir, "magal", "session.json")
	}

	// 3. Валидация конфига
	if err := validation.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %s", op, validation.Describe(err))
	}

	return cfg, nil
}

// Usage describes every env variable the config understands.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}
