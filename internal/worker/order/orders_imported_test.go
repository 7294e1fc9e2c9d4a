package order

import (
	"context"
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/logger"
	"github.com/Additional-Code/ordenes/internal/messaging"
	"github.com/Additional-Code/ordenes/internal/service/importer"
	"github.com/Additional-Code/ordenes/internal/worker"
)

func TestOrdersImportedHandlerUpdatesProvenance(t *testing.T) {
	store := importer.NewProvenanceStore()
	reg := NewOrdersImportedHandler(zap.NewNop(), store)
	if reg.Event != importer.EventOrdersImported {
		t.Fatalf("unexpected event %q", reg.Event)
	}

	stamp := time.Date(2024, 7, 1, 14, 30, 0, 0, time.UTC)
	msg, err := messaging.NewEvent(importer.EventOrdersImported, "julio.xlsx", importer.OrdersImportedEvent{
		FileName:      "julio.xlsx",
		ImportedCount: 42,
		Timestamp:     stamp,
	})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if err := reg.Handler(context.Background(), msg); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	got, ok := store.Get()
	if !ok || got.FileName != "julio.xlsx" || got.ImportedCount != 42 || !got.Timestamp.Equal(stamp) {
		t.Fatalf("unexpected provenance %+v", got)
	}
}

func TestOrdersImportedHandlerRejectsGarbage(t *testing.T) {
	reg := NewOrdersImportedHandler(zap.NewNop(), importer.NewProvenanceStore())
	msg := messaging.Message{Value: []byte("{"), Headers: map[string]string{messaging.HeaderEventType: importer.EventOrdersImported}}
	if err := reg.Handler(context.Background(), msg); err == nil {
		t.Fatalf("expected decode error")
	}
}

type registrations struct {
	fx.In

	Handlers []worker.HandlerRegistration `group:"worker.handlers"`
}

func TestModuleUsesWorkerLogger(t *testing.T) {
	var got registrations
	cfg := config.Config{Observability: config.Observability{LogLevel: "error", LogEncoding: "json"}}

	app := fxtest.New(t,
		fx.Supply(cfg),
		logger.Module,
		importer.ProvenanceModule,
		Module,
		fx.Invoke(func(r registrations) { got = r }),
	)
	app.RequireStart()
	defer app.RequireStop()

	if len(got.Handlers) != 1 || got.Handlers[0].Event != importer.EventOrdersImported {
		t.Fatalf("unexpected registrations %+v", got.Handlers)
	}
}
