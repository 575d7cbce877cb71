package server

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer carries the standard gRPC health service for load
// balancers and orchestrators that probe over gRPC, plus server
// reflection. The query surface itself is HTTP-only.
type GRPCServer struct {
	addr   string
	log    zerolog.Logger
	srv    *grpc.Server
	health *health.Server
}

func NewGRPCServer(addr string, log zerolog.Logger) *GRPCServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &GRPCServer{
		addr:   addr,
		log:    log.With().Str("component", "grpc_server").Logger(),
		srv:    srv,
		health: hs,
	}
}

// SetServing flips the health service between SERVING and NOT_SERVING.
func (s *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Start runs the gRPC server until ctx is cancelled, then stops it
// gracefully.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("grpc server listening")
		if err := s.srv.Serve(lis); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		s.srv.GracefulStop()
		return nil
	}
}
