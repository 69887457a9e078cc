package e2e

import (
	"chat-relay/client"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

const exchangeTimeout = 5 * time.Second

// BaseRelaySuite gives scenarios real TCP clients against a relay, either
// an external one (RELAY_ADDR) or one started per test.
type BaseRelaySuite struct {
	suite.Suite
	Config     Config
	Repository repositories.IRelayRepository
	Relay      *runtime.Relay
	address    string
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// SetupTest starts a fresh in-process relay unless an external one is targeted.
func (s *BaseRelaySuite) SetupTest() {
	if s.Config.RelayAddr != "" {
		s.address = s.Config.RelayAddr
		return
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	s.Repository = repositories.NewMemoryRepository()
	s.Relay = runtime.NewRelay(log, runtime.NewListenerAcceptor(listener), s.Repository)
	s.Require().NoError(s.Relay.Start(context.Background()))
	s.address = s.Relay.Addr()
}

func (s *BaseRelaySuite) TearDownTest() {
	if s.Relay != nil {
		s.Relay.Stop()
		s.Require().NoError(s.Relay.Err())
		s.Relay = nil
	}
}

// Step prints a colorized header for a scenario step in the test logs.
func (s *BaseRelaySuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Dial connects a new client to the relay under test.
func (s *BaseRelaySuite) Dial(name string) *client.Client {
	level := slog.LevelWarn
	if s.Config.DebugFrames {
		level = slog.LevelDebug
	}
	log := logs.GetLoggerFromLevel(level).With("client", name)
	ctx, cancel := context.WithTimeout(context.Background(), exchangeTimeout)
	defer cancel()
	c, err := client.Dial(ctx, s.address, client.WithLogger(log), client.WithTimeout(exchangeTimeout))
	s.Require().NoError(err, "Failed to connect to relay at "+s.address)
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

// InProcess reports whether the relay internals (repository) are reachable.
func (s *BaseRelaySuite) InProcess() bool {
	return s.Relay != nil
}
