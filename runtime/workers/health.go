package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"net"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// RelayServiceName is the service reported by the health endpoint, next to
// the overall ("") status.
const RelayServiceName = "chat-relay"

var _ contract.Worker = (*HealthWorker)(nil)

// HealthWorker exposes the standard gRPC health service so that orchestrators
// can probe the relay. The relay protocol itself does not go through gRPC.
type HealthWorker struct {
	log     *slog.Logger
	address string
	health  *health.Server
}

func NewHealthWorker(log *slog.Logger, address string) *HealthWorker {
	return &HealthWorker{
		log:     log,
		address: address,
		health:  health.NewServer(),
	}
}

// Run serves the health service until ctx is cancelled.
func (w *HealthWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.address, err)
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(w.log)))
	grpc_health_v1.RegisterHealthServer(s, w.health)
	w.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	w.health.SetServingStatus(RelayServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting health endpoint", "address", listener.Addr().String())
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("health server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		w.SetNotServing()
		s.GracefulStop()
		w.log.Info("Health endpoint stopped")
		return nil
	case err := <-errChan:
		s.Stop()
		return err
	}
}

// SetNotServing reports the relay as unhealthy, e.g. once the repository failed.
func (w *HealthWorker) SetNotServing() {
	w.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	w.health.SetServingStatus(RelayServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}
