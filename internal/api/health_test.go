package api

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"
)

func checkStatus(t *testing.T, h *HealthServer) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.Health().Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: CaptureService})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	return resp.Status
}

func TestHealthServer_FollowsPipeline(t *testing.T) {
	var running atomic.Bool
	running.Store(true)
	h := NewHealthServer(running.Load, 5*time.Millisecond)

	if got := checkStatus(t, h); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("Expected SERVING, got %s", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Watch(ctx)

	running.Store(false)
	deadline := time.Now().Add(time.Second)
	for checkStatus(t, h) != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		if time.Now().After(deadline) {
			t.Fatalf("Expected NOT_SERVING after the pipeline ended")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
