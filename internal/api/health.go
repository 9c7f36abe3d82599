package api

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// CaptureService is the health service name reporting capture status.
const CaptureService = "netspike.capture"

// HealthServer reports SERVING while the capture pipeline runs and
// NOT_SERVING once it has ended.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	running    func() bool
	every      time.Duration
}

// NewHealthServer creates the gRPC server. running is polled every interval.
func NewHealthServer(running func() bool, every time.Duration) *HealthServer {
	if every <= 0 {
		every = time.Second
	}
	h := &HealthServer{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		running:    running,
		every:      every,
	}
	grpc_health_v1.RegisterHealthServer(h.grpcServer, h.health)
	h.update()
	return h
}

// Health returns the underlying health service.
func (h *HealthServer) Health() *health.Server { return h.health }

func (h *HealthServer) update() {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if h.running() {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(CaptureService, status)
}

// Watch keeps the serving status in step with the pipeline until ctx ends.
func (h *HealthServer) Watch(ctx context.Context) {
	ticker := time.NewTicker(h.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.update()
		}
	}
}

// Serve accepts connections on lis until Stop.
func (h *HealthServer) Serve(lis net.Listener) error {
	log.Printf("gRPC health server starting on %s", lis.Addr())
	return h.grpcServer.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops the server gracefully.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpcServer.GracefulStop()
}
