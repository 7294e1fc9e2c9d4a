package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/cache"
	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/entity"
	repo "github.com/Additional-Code/ordenes/internal/repository/order"
	"github.com/Additional-Code/ordenes/internal/spreadsheet"
	"github.com/Additional-Code/ordenes/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/ordenes/service/order")

// Listing window bounds.
const (
	DefaultLimit = 20
	MinLimit     = 5
	MaxLimit     = 200
)

// Criteria is a listing request. Page is 1-based; Limit is clamped by the
// service.
type Criteria struct {
	ExpedientCode string
	OrderType     string
	OrderNumber   string
	Supplier      string
	Query         string
	Status        string
	From          string
	To            string
	Page          int
	Limit         int
}

// Result is one page of orders with aggregates over the whole filtered set.
type Result struct {
	Total     int
	SumAmount decimal.Decimal
	Rows      []entity.Order
	Page      int
	Limit     int
}

// ExportResult reports how many rows an export wrote and whether the cap cut
// it short.
type ExportResult struct {
	Written   int
	Truncated bool
}

// Service encapsulates the read side of the order store.
type Service struct {
	repo        *repo.Repository
	cache       cache.Store
	keys        *cache.Namespace
	cacheTTL    time.Duration
	exportLimit int
	logger      *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:        p.Repository,
		cache:       p.Cache,
		keys:        cache.NewNamespace(p.Cache, "orders"),
		cacheTTL:    p.Config.Cache.DefaultTTL,
		exportLimit: p.Config.Import.ExportLimit,
		logger:      p.Logger,
	}
}

// ClampLimit bounds a requested page size to [MinLimit, MaxLimit]; zero or
// negative values select DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit < MinLimit:
		return MinLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// OffsetForPage converts a 1-based page into a row offset. Offsets that
// would overflow saturate at math.MaxInt, which selects no rows.
func OffsetForPage(page, limit int) int {
	if page < 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func (c Criteria) filter() repo.Filter {
	return repo.Filter{
		ExpedientCode: c.ExpedientCode,
		OrderType:     c.OrderType,
		OrderNumber:   c.OrderNumber,
		Query:         c.Query,
		Supplier:      c.Supplier,
		Status:        c.Status,
		From:          c.From,
		To:            c.To,
	}
}

// Query lists one page of matching orders.
func (s *Service) Query(ctx context.Context, c Criteria) (Result, error) {
	limit := ClampLimit(c.Limit)
	page := max(c.Page, 1)

	ctx, span := serviceTracer.Start(ctx, "OrderService.Query", trace.WithAttributes(
		attribute.Int("query.page", page),
		attribute.Int("query.limit", limit),
	))
	defer span.End()

	f := c.filter()
	f.Limit = limit
	f.Offset = OffsetForPage(page, limit)

	res, err := s.repo.Query(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return Result{}, errorbank.Internal("failed to query orders", errorbank.WithCause(err))
	}

	return Result{
		Total:     res.Total,
		SumAmount: res.SumAmount,
		Rows:      res.Rows,
		Page:      page,
		Limit:     limit,
	}, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	key, keyErr := s.keys.Key(ctx, strconv.FormatInt(id, 10))
	if keyErr != nil {
		s.logger.Warn("orders cache generation read failed", zap.Error(keyErr))
	}

	if keyErr == nil {
		if order, err := s.getFromCache(ctx, key); err == nil {
			return order, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if keyErr == nil {
		if err := s.storeInCache(ctx, key, order); err != nil {
			s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	return order, nil
}

// Statuses lists the distinct non-blank statuses, sorted.
func (s *Service) Statuses(ctx context.Context) ([]string, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Statuses")
	defer span.End()

	statuses, err := s.repo.DistinctStatuses(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list statuses", errorbank.WithCause(err))
	}
	return statuses, nil
}

// Export writes every matching order, in listing order and up to the
// configured cap, as a workbook to w. Page and Limit are ignored.
func (s *Service) Export(ctx context.Context, c Criteria, w io.Writer) (ExportResult, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Export", trace.WithAttributes(attribute.Int("export.limit", s.exportLimit)))
	defer span.End()

	rows, err := s.repo.ListAll(ctx, c.filter(), s.exportLimit+1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return ExportResult{}, errorbank.Internal("failed to load orders for export", errorbank.WithCause(err))
	}

	var result ExportResult
	if len(rows) > s.exportLimit {
		rows = rows[:s.exportLimit]
		result.Truncated = true
	}
	result.Written = len(rows)

	if err := spreadsheet.WriteOrders(w, rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write error")
		return ExportResult{}, errorbank.Internal("failed to write export", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.Int("export.rows", result.Written), attribute.Bool("export.truncated", result.Truncated))
	return result, nil
}

// Invalidate drops every cached order by starting a new cache generation.
func (s *Service) Invalidate(ctx context.Context) error {
	gen, err := s.keys.Bump(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("orders cache invalidated", zap.String("generation", gen))
	return nil
}

func (s *Service) getFromCache(ctx context.Context, key string) (*entity.Order, error) {
	bytes, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, key string, order *entity.Order) error {
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, bytes, s.cacheTTL)
}
