package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/entity"
	"github.com/Additional-Code/ordenes/internal/inbox"
	"github.com/Additional-Code/ordenes/internal/messaging"
	"github.com/Additional-Code/ordenes/internal/observability"
	repo "github.com/Additional-Code/ordenes/internal/repository/order"
	ordersvc "github.com/Additional-Code/ordenes/internal/service/order"
	"github.com/Additional-Code/ordenes/internal/spreadsheet"
	"github.com/Additional-Code/ordenes/pkg/errorbank"
)

const instrumentationName = "github.com/Additional-Code/ordenes/service/importer"

var importTracer = otel.Tracer(instrumentationName)

// EventOrdersImported is published after every successful import.
const EventOrdersImported = "orders.imported"

// OrdersImportedEvent is the payload of EventOrdersImported.
type OrdersImportedEvent struct {
	FileName      string    `json:"file_name"`
	ImportedCount int       `json:"imported_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// Extractor reads canonical orders from a workbook on disk.
type Extractor interface {
	ExtractFile(path string) ([]entity.Order, error)
}

// Replacer swaps the stored order set atomically.
type Replacer interface {
	ReplaceAll(ctx context.Context, orders []entity.Order, stamp time.Time) error
}

// Invalidator drops read-side caches after the order set changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service runs spreadsheet imports. At most one import runs at a time.
type Service struct {
	mu sync.Mutex

	extractor  Extractor
	store      Replacer
	cache      Invalidator
	inbox      *inbox.Inbox
	provenance *ProvenanceStore
	publisher  messaging.Client
	publish    bool
	extensions []string
	logger     *zap.Logger
	metrics    *observability.ImportMetrics
	now        func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository      *repo.Repository
	Orders          *ordersvc.Service
	Inbox           *inbox.Inbox
	Provenance      *ProvenanceStore
	Publisher       messaging.Client
	Config          config.Config
	Metrics         *observability.ImportMetrics `optional:"true"`
	Logger          *zap.Logger                  `name:"importer"`
	ExtractorLogger *zap.Logger                  `name:"extractor" optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	metrics := p.Metrics
	if metrics == nil {
		metrics = observability.DiscardImportMetrics()
	}
	extractorLogger := p.ExtractorLogger
	if extractorLogger == nil {
		extractorLogger = p.Logger
	}

	return &Service{
		extractor:  spreadsheet.NewExtractor(spreadsheet.WithLogger(extractorLogger)),
		store:      p.Repository,
		cache:      p.Orders,
		inbox:      p.Inbox,
		provenance: p.Provenance,
		publisher:  p.Publisher,
		publish:    p.Config.Messaging.Enabled,
		extensions: p.Config.Import.Extensions,
		logger:     p.Logger,
		metrics:    metrics,
		now:        time.Now,
	}, nil
}

// Provenance returns the latest successful import of this process.
func (s *Service) Provenance() (Provenance, bool) {
	return s.provenance.Get()
}

// RunFromInbox imports name from the inbox, or the newest file when name is
// empty.
func (s *Service) RunFromInbox(ctx context.Context, name string) (Provenance, error) {
	path, err := s.inbox.Resolve(name)
	switch {
	case errors.Is(err, inbox.ErrEmpty):
		return Provenance{}, errorbank.NotFound("no spreadsheet waiting in the inbox",
			errorbank.WithDetail("dir", s.inbox.Dir()))
	case errors.Is(err, inbox.ErrInvalidFile):
		invalid := &InvalidFileError{Path: name, Reason: "not an importable inbox file", Err: err}
		return Provenance{}, errorbank.BadRequest(invalid.Error(), errorbank.WithCause(invalid))
	case err != nil:
		return Provenance{}, errorbank.Internal("failed to read inbox", errorbank.WithCause(err))
	}
	return s.Run(ctx, path)
}

// Run replaces the stored orders with the contents of the workbook at path.
// On failure the previous orders and provenance are left untouched.
func (s *Service) Run(ctx context.Context, path string) (Provenance, error) {
	if !s.mu.TryLock() {
		return Provenance{}, errorbank.Conflict("another import is already running")
	}
	defer s.mu.Unlock()

	ctx, span := importTracer.Start(ctx, "ImportService.Run", trace.WithAttributes(
		attribute.String("import.file", filepath.Base(path)),
	))
	defer span.End()

	started := s.now()
	prov, err := s.run(ctx, path)
	s.metrics.RecordImport(ctx, err, prov.ImportedCount, s.now().Sub(started))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "import failed")
		s.logger.Error("import failed", zap.String("file", path), zap.Error(err))
		return Provenance{}, toAppError(err)
	}

	span.SetAttributes(attribute.Int("import.rows", prov.ImportedCount))
	s.logger.Info("import completed",
		zap.String("file", prov.FileName),
		zap.Int("rows", prov.ImportedCount),
		zap.Time("timestamp", prov.Timestamp),
	)
	return prov, nil
}

func (s *Service) run(ctx context.Context, path string) (Provenance, error) {
	if err := s.validate(path); err != nil {
		return Provenance{}, err
	}

	orders, err := s.extractor.ExtractFile(path)
	if err != nil {
		var missing *spreadsheet.MissingSheetError
		if errors.As(err, &missing) {
			return Provenance{}, err
		}
		return Provenance{}, &ReadError{Path: path, Err: err}
	}

	stamp := s.now().UTC()
	if err := s.store.ReplaceAll(ctx, orders, stamp); err != nil {
		return Provenance{}, &TransactionError{Err: err}
	}

	prov := Provenance{
		FileName:      filepath.Base(path),
		ImportedCount: len(orders),
		Timestamp:     stamp,
	}
	s.provenance.Set(prov)

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("orders cache invalidation failed", zap.Error(err))
	}
	s.publishImported(ctx, prov)

	return prov, nil
}

func (s *Service) validate(path string) error {
	if strings.TrimSpace(path) == "" {
		return &InvalidFileError{Path: path, Reason: "no file given"}
	}
	if !slices.Contains(s.extensions, strings.ToLower(filepath.Ext(path))) {
		return &InvalidFileError{Path: path, Reason: "unsupported extension " + filepath.Ext(path)}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &InvalidFileError{Path: path, Reason: "file not found", Err: err}
	}
	if !info.Mode().IsRegular() {
		return &InvalidFileError{Path: path, Reason: "not a regular file"}
	}
	return nil
}

func (s *Service) publishImported(ctx context.Context, prov Provenance) {
	if !s.publish || s.publisher == nil {
		return
	}
	msg, err := messaging.NewEvent(EventOrdersImported, prov.FileName, OrdersImportedEvent(prov))
	if err != nil {
		s.logger.Error("marshal orders imported", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish orders imported", zap.Error(err))
	}
}

func toAppError(err error) *errorbank.AppError {
	var (
		invalid *InvalidFileError
		missing *spreadsheet.MissingSheetError
		read    *ReadError
		tx      *TransactionError
	)
	switch {
	case errors.As(err, &invalid):
		return errorbank.BadRequest(invalid.Error(), errorbank.WithCause(err))
	case errors.As(err, &missing):
		return errorbank.BadRequest("workbook has no REPORTE sheet",
			errorbank.WithCause(err),
			errorbank.WithDetail("sheets", missing.Sheets))
	case errors.As(err, &read):
		return errorbank.BadRequest("workbook could not be read", errorbank.WithCause(err))
	case errors.As(err, &tx):
		return errorbank.BadRequest("import was rolled back", errorbank.WithCause(err))
	default:
		return errorbank.From(err)
	}
}
