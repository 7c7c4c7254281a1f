package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Bot       BotConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string `validate:"required"`
	Env  string
}

type CatalogConfig struct {
	FeedURL         string        `validate:"required,url"`
	RefreshInterval time.Duration `validate:"min=1s"`
	FetchTimeout    time.Duration `validate:"min=1s"`
}

type BotConfig struct {
	AdminRecipient string `validate:"required"`
	PageSize       int    `validate:"min=1"`
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CATALOG_REFRESH_INTERVAL", "60s")
	viper.SetDefault("CATALOG_FETCH_TIMEOUT", "7s")
	viper.SetDefault("BOT_PAGE_SIZE", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATELIMIT_REQUESTS_PER_WINDOW", 60)
	viper.SetDefault("RATELIMIT_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Catalog: CatalogConfig{
			FeedURL:         viper.GetString("CATALOG_FEED_URL"),
			RefreshInterval: viper.GetDuration("CATALOG_REFRESH_INTERVAL"),
			FetchTimeout:    viper.GetDuration("CATALOG_FETCH_TIMEOUT"),
		},
		Bot: BotConfig{
			AdminRecipient: viper.GetString("BOT_ADMIN_RECIPIENT"),
			PageSize:       viper.GetInt("BOT_PAGE_SIZE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: viper.GetInt("RATELIMIT_REQUESTS_PER_WINDOW"),
			Window:            viper.GetDuration("RATELIMIT_WINDOW"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
