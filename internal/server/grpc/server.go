// Package grpc exposes the standard grpc.health.v1 service so orchestrators
// can probe readiness without touching the REST API.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "gophauth.Auth"

// shutdownTimeout bounds the graceful stop. Open Watch streams never end on
// their own, so the server is stopped hard once it runs out.
const shutdownTimeout = 5 * time.Second

type HealthServer struct {
	address         string
	logger          logging.Logger
	health          *health.Server
	shutdownTimeout time.Duration
}

// NewHealthServer starts out NOT_SERVING until SetServing(true) is called.
func NewHealthServer(address string, l logging.Logger) *HealthServer {
	s := &HealthServer{
		address:         address,
		logger:          l.With("module", "grpc_server"),
		health:          health.NewServer(),
		shutdownTimeout: shutdownTimeout,
	}
	s.SetServing(false)
	return s
}

// SetServing flips both the overall and the named service status.
func (s *HealthServer) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *HealthServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve blocks until ctx is done. Health turns NOT_SERVING before the
// graceful stop so probes see the shutdown; streams still open after
// shutdownTimeout are cut.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingUnaryInterceptor),
		grpc.ChainStreamInterceptor(s.loggingStreamInterceptor),
	)
	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(s.shutdownTimeout):
			s.logger.Warn(context.Background(), "gRPC graceful stop timed out, forcing")
			srv.Stop()
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
