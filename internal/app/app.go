package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/ordenes/internal/cache"
	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/database"
	"github.com/Additional-Code/ordenes/internal/inbox"
	"github.com/Additional-Code/ordenes/internal/logger"
	"github.com/Additional-Code/ordenes/internal/messaging"
	"github.com/Additional-Code/ordenes/internal/migration"
	"github.com/Additional-Code/ordenes/internal/observability"
	repositoryorder "github.com/Additional-Code/ordenes/internal/repository/order"
	grpcserver "github.com/Additional-Code/ordenes/internal/server/grpc"
	httpserver "github.com/Additional-Code/ordenes/internal/server/http"
	"github.com/Additional-Code/ordenes/internal/service/importer"
	serviceorder "github.com/Additional-Code/ordenes/internal/service/order"
	transporthttp "github.com/Additional-Code/ordenes/internal/transport/http"
	"github.com/Additional-Code/ordenes/internal/worker"
	workerorder "github.com/Additional-Code/ordenes/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// Import adds the inbox and the import pipeline on top of Core.
var Import = fx.Options(
	Core,
	inbox.Module,
	importer.Module,
)

// HTTP wires the HTTP and gRPC transports on top of the import pipeline. The
// worker keeps provenance in step with imports run by other processes; it
// stays idle unless messaging is enabled.
var HTTP = fx.Options(
	Import,
	migration.AutoModule,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
	worker.Module,
	workerorder.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	importer.ProvenanceModule,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring.
var Module = HTTP
