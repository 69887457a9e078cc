package main

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string        `env:"RELAY_SERVER_ADDR,default=localhost:9000" validate:"required,hostname_port"`
	LogLevel      string        `env:"LOG_LEVEL,default=WARN" validate:"required"`
	Colours       bool          `env:"RELAY_COLOURS,default=true"`
	Timeout       time.Duration `env:"RELAY_TIMEOUT,default=10s" validate:"gt=0"`
}

// loadConfig reads an optional .env file, then the environment.
func loadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, err
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, err
	}
	return config, nil
}
