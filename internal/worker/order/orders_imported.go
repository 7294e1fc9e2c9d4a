package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/messaging"
	"github.com/Additional-Code/ordenes/internal/service/importer"
	"github.com/Additional-Code/ordenes/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/ordenes/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrdersImportedHandler,
			fx.ParamTags(`name:"worker"`),
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrdersImportedHandler records imports announced by other processes so
// the local provenance stays current.
func NewOrdersImportedHandler(logger *zap.Logger, provenance *importer.ProvenanceStore) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.imported", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		var event importer.OrdersImportedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode orders imported", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		// Imports run by other processes only ever move provenance forward.
		updated := provenance.SetIfNewer(importer.Provenance(event))
		span.SetAttributes(attribute.Bool("provenance.updated", updated))
		logger.Info("orders imported event processed",
			zap.String("file", event.FileName),
			zap.Int("rows", event.ImportedCount),
			zap.Time("timestamp", event.Timestamp),
			zap.Bool("updated", updated),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Event:   importer.EventOrdersImported,
		Handler: handler,
	}
}
