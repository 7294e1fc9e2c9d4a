package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/config"
)

func TestNewEvent(t *testing.T) {
	msg, err := NewEvent("orders.imported", "reporte.xlsx", map[string]int{"imported_count": 3})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if msg.EventType() != "orders.imported" {
		t.Fatalf("unexpected event type %q", msg.EventType())
	}
	if string(msg.Key) != "reporte.xlsx" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	var decoded map[string]int
	if err := json.Unmarshal(msg.Value, &decoded); err != nil || decoded["imported_count"] != 3 {
		t.Fatalf("unexpected payload %s (%v)", msg.Value, err)
	}

	if _, err := NewEvent("bad", "k", make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
	if (Message{}).EventType() != "" {
		t.Fatalf("expected empty event type without headers")
	}
}

func TestNewClientDisabledIsNoop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Messaging: config.Messaging{Enabled: false, Kafka: config.Kafka{Topic: "orders.imports"}}}

	client, err := NewClient(lc, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.Topic() != "orders.imports" {
		t.Fatalf("unexpected topic %q", client.Topic())
	}
	if err := client.Publish(context.Background(), Message{}); err != nil {
		t.Fatalf("noop publish error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := client.Consume(ctx, func(context.Context, Message) error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected consume to stop with the context, got %v", err)
	}
}

func TestNewClientRejectsUnknownDriver(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Messaging: config.Messaging{Enabled: true, Driver: "nats"}}
	if _, err := NewClient(lc, cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
