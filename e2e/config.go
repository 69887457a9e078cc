package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR targets an already running relay; empty starts one in-process
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_DEBUG_FRAMES logs every frame exchanged by the test clients
	DebugFrames bool `envconfig:"E2E_DEBUG_FRAMES" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// Concurrency scenario: number of sessions, messages per session
	Sessions int `envconfig:"RELAY_TEST_SESSIONS" default:"16"`
	Messages int `envconfig:"RELAY_TEST_MESSAGES" default:"25"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
