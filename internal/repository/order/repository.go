package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/ordenes/internal/database"
	"github.com/Additional-Code/ordenes/internal/entity"
	"github.com/Additional-Code/ordenes/internal/normalize"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/ordenes/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

const insertBatchSize = 500

// searchColumns are matched by the free-text query.
var searchColumns = []string{
	"order_code",
	"title",
	"requester_area",
	"requester_name",
	"supplier_name",
	"supplier_tax_id",
	"expedient_code",
	"order_type",
	"order_number",
}

// Filter narrows a listing. Empty fields are ignored; text matching is a
// case-insensitive substring match.
type Filter struct {
	ExpedientCode string
	OrderType     string
	OrderNumber   string
	Query         string
	Supplier      string
	Status        string
	From          string
	To            string
	Limit         int
	Offset        int
}

// Page is one window of a filtered listing plus aggregates over the whole
// filtered set.
type Page struct {
	Total     int
	SumAmount decimal.Decimal
	Rows      []entity.Order
}

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// ReplaceAll swaps the stored set for orders in a single transaction. On
// failure the previous set is left untouched. The order code is always
// rebuilt from its three parts and a blank currency is stored as PEN.
func (r *Repository) ReplaceAll(ctx context.Context, orders []entity.Order, stamp time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ReplaceAll", trace.WithAttributes(attribute.Int("orders.count", len(orders))))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*entity.Order)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear orders: %w", err)
		}

		for start := 0; start < len(orders); start += insertBatchSize {
			batch := orders[start:min(start+insertBatchSize, len(orders))]
			for i := range batch {
				batch[i].ID = 0
				batch[i].UpdatedAt = stamp
				batch[i].OrderCode = normalize.OrderCode(batch[i].ExpedientCode, batch[i].OrderType, batch[i].OrderNumber)
				if batch[i].Currency == "" {
					batch[i].Currency = string(normalize.PEN)
				}
			}
			if _, err := tx.NewInsert().Model(&batch).Exec(ctx); err != nil {
				return fmt.Errorf("insert orders %d-%d: %w", start, start+len(batch), err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace failed")
	}
	return err
}

// Query returns the requested page together with the total count and the
// amount sum of every matching row. Rows with an issue date come first,
// newest first; ties fall back to insertion order, newest first.
func (r *Repository) Query(ctx context.Context, f Filter) (Page, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Query", trace.WithAttributes(
		attribute.Int("filter.limit", f.Limit),
		attribute.Int("filter.offset", f.Offset),
	))
	defer span.End()

	var page Page
	err := applyFilter(r.reader.NewSelect().Model((*entity.Order)(nil)), f).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Scan(ctx, &page.Total, &page.SumAmount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return Page{}, fmt.Errorf("aggregate orders: %w", err)
	}
	if f.Offset >= page.Total && f.Offset > 0 {
		page.Rows = []entity.Order{}
		return page, nil
	}

	rows, err := r.list(ctx, f, f.Limit, f.Offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return Page{}, err
	}
	page.Rows = rows
	return page, nil
}

// ListAll returns up to limit matching rows in listing order, ignoring the
// filter's own window.
func (r *Repository) ListAll(ctx context.Context, f Filter, limit int) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListAll", trace.WithAttributes(attribute.Int("filter.limit", limit)))
	defer span.End()

	rows, err := r.list(ctx, f, limit, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
	}
	return rows, err
}

func (r *Repository) list(ctx context.Context, f Filter, limit, offset int) ([]entity.Order, error) {
	rows := make([]entity.Order, 0)
	q := applyFilter(r.reader.NewSelect().Model(&rows), f).
		OrderExpr("CASE WHEN issue_date IS NULL OR issue_date = '' THEN 1 ELSE 0 END ASC").
		OrderExpr("issue_date DESC").
		OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return rows, nil
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// DistinctStatuses lists the non-blank statuses in ascending order.
func (r *Repository) DistinctStatuses(ctx context.Context) ([]string, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DistinctStatuses")
	defer span.End()

	statuses := make([]string, 0)
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Distinct().
		Column("status").
		Where("TRIM(status) <> ''").
		OrderExpr("status ASC").
		Scan(ctx, &statuses)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("select statuses: %w", err)
	}
	return statuses, nil
}

// Count returns the number of stored orders.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Count")
	defer span.End()

	n, err := r.reader.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}

func applyFilter(q *bun.SelectQuery, f Filter) *bun.SelectQuery {
	for _, c := range []struct{ col, value string }{
		{"expedient_code", f.ExpedientCode},
		{"order_type", f.OrderType},
		{"order_number", f.OrderNumber},
	} {
		if s := strings.TrimSpace(c.value); s != "" {
			q = q.Where("LOWER(?) LIKE ?", bun.Ident(c.col), likePattern(s))
		}
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		pattern := likePattern(s)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, col := range searchColumns {
				q = q.WhereOr("LOWER(?) LIKE ?", bun.Ident(col), pattern)
			}
			return q
		})
	}
	if s := strings.TrimSpace(f.Supplier); s != "" {
		pattern := likePattern(s)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("LOWER(supplier_name) LIKE ?", pattern).
				WhereOr("LOWER(supplier_tax_id) LIKE ?", pattern)
		})
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		q = q.Where("status = ?", s)
	}
	if s := strings.TrimSpace(f.From); s != "" {
		q = q.Where("issue_date >= ?", s)
	}
	if s := strings.TrimSpace(f.To); s != "" {
		q = q.Where("issue_date <= ?", s)
	}
	return q
}

// likePattern wraps s for a substring LIKE. Wildcards typed by the user are
// passed through.
func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
