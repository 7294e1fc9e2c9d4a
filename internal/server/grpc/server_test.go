package grpc

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/ordenes/pkg/errorbank"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "not found", err: errorbank.NotFound("order not found"), want: codes.NotFound},
		{name: "conflict", err: errorbank.Conflict("busy"), want: codes.AlreadyExists},
		{name: "status passthrough", err: status.Error(codes.Unavailable, "down"), want: codes.Unavailable},
		{name: "plain", err: errors.New("boom"), want: codes.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(toStatus(tt.err)); got != tt.want {
				t.Fatalf("toStatus() code = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHealthRegistered(t *testing.T) {
	hs := NewHealth()
	server := NewServer(zap.NewNop(), hs)
	defer server.Stop()

	if _, ok := server.GetServiceInfo()[healthpb.Health_ServiceDesc.ServiceName]; !ok {
		t.Fatalf("expected health service to be registered")
	}

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("Check() = %v, %v", resp, err)
	}
}
