package main

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	backendMemory = "memory"
	backendBadger = "badger"
)

type Config struct {
	Host               string        `env:"HOST,default=localhost" validate:"required"`
	Port               int           `env:"PORT,default=9000" validate:"min=0,max=65535"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	RepositoryBackend  string        `env:"REPOSITORY_BACKEND,default=memory" validate:"oneof=memory badger"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT,default=0s" validate:"min=0"`
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL,default=30s" validate:"min=0"`
	HealthPort         int           `env:"HEALTH_PORT,default=0" validate:"min=0,max=65535"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HealthAddress is empty when the health endpoint is disabled.
func (c Config) HealthAddress() string {
	if c.HealthPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.HealthPort)
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
