package observability

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealthServer exposes the standard grpc.health.v1 service so
// load balancers and schedulers can probe the minutes service over gRPC
type GRPCHealthServer struct {
	server *grpc.Server
	health *health.Server
	logger zerolog.Logger
}

// NewGRPCHealthServer creates a health server reporting NOT_SERVING until SetServing is called
func NewGRPCHealthServer(logger zerolog.Logger) *GRPCHealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCHealthServer{server: srv, health: hs, logger: logger}
}

// SetServing flips the overall and service status
func (g *GRPCHealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(serviceName, status)
}

// ListenAndServe blocks serving on port
func (g *GRPCHealthServer) ListenAndServe(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %s: %w", port, err)
	}
	return g.Serve(lis)
}

// Serve blocks serving on lis
func (g *GRPCHealthServer) Serve(lis net.Listener) error {
	g.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server listening")
	return g.server.Serve(lis)
}

// Stop marks the service NOT_SERVING and stops gracefully
func (g *GRPCHealthServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
