package order

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/cache"
	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/database"
	"github.com/Additional-Code/ordenes/internal/entity"
	"github.com/Additional-Code/ordenes/internal/migration"
	repo "github.com/Additional-Code/ordenes/internal/repository/order"
	"github.com/Additional-Code/ordenes/internal/spreadsheet"
	"github.com/Additional-Code/ordenes/pkg/errorbank"
)

type countingStore struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func (s *countingStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	if !strings.HasSuffix(key, ":generation") {
		s.hits++
	}
	return v, nil
}

func (s *countingStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[key] = value
	return nil
}

func (s *countingStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func newTestService(t *testing.T, store cache.Store, exportLimit int) (*Service, *repo.Repository) {
	t.Helper()

	cfg := config.Config{
		Database: config.Database{Driver: "sqlite", WriterDSN: "file:" + filepath.Join(t.TempDir(), "svc.db")},
		Cache:    config.Cache{DefaultTTL: time.Minute},
		Import:   config.Import{ExportLimit: exportLimit},
	}
	conns, err := database.Open(cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = conns.Close() })

	m, err := migration.New(cfg, conns, zap.NewNop())
	if err != nil {
		t.Fatalf("create migrator: %v", err)
	}
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repository := repo.NewRepository(conns)
	return NewService(Params{Repository: repository, Cache: store, Config: cfg, Logger: zap.NewNop()}), repository
}

func seedOrders(t *testing.T, repository *repo.Repository, n int) {
	t.Helper()
	orders := make([]entity.Order, n)
	for i := range orders {
		orders[i] = entity.Order{
			ExpedientCode: "0000" + string(rune('1'+i%9)),
			OrderType:     "OC",
			Title:         "item",
			Currency:      "PEN",
			Status:        "ATENDIDO",
			Amount:        decimal.NewNullDecimal(decimal.NewFromInt(10)),
		}
	}
	if err := repository.ReplaceAll(context.Background(), orders, time.Now()); err != nil {
		t.Fatalf("seed orders: %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: 20, -3: 20, 1: 5, 5: 5, 50: 50, 200: 200, 201: 200, 10000: 200}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOffsetForPage(t *testing.T) {
	if got := OffsetForPage(0, 20); got != 0 {
		t.Fatalf("OffsetForPage(0) = %d", got)
	}
	if got := OffsetForPage(3, 20); got != 40 {
		t.Fatalf("OffsetForPage(3) = %d", got)
	}
	if got := OffsetForPage(1<<62, MaxLimit); got != math.MaxInt {
		t.Fatalf("OffsetForPage(1<<62) = %d, want saturation", got)
	}
	if got := OffsetForPage(math.MaxInt, 1); got != math.MaxInt-1 {
		t.Fatalf("OffsetForPage(MaxInt, 1) = %d", got)
	}
}

func TestQueryPastLastPageIsEmpty(t *testing.T) {
	svc, repository := newTestService(t, &countingStore{}, 100)
	seedOrders(t, repository, 8)

	res, err := svc.Query(context.Background(), Criteria{Page: 1 << 62, Limit: MaxLimit})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Total != 8 || len(res.Rows) != 0 || res.Page != 1<<62 {
		t.Fatalf("unexpected result total=%d rows=%d page=%d", res.Total, len(res.Rows), res.Page)
	}
}

func TestQueryPagesCoverEveryRowOnce(t *testing.T) {
	svc, repository := newTestService(t, &countingStore{}, 100)
	seedOrders(t, repository, 23)
	ctx := context.Background()

	seen := make(map[int64]bool)
	first, err := svc.Query(ctx, Criteria{Limit: 5})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	pages := (first.Total + first.Limit - 1) / first.Limit
	if first.Total != 23 || pages != 5 {
		t.Fatalf("unexpected total=%d pages=%d", first.Total, pages)
	}
	if !first.SumAmount.Equal(decimal.NewFromInt(230)) {
		t.Fatalf("unexpected sum %s", first.SumAmount)
	}

	for page := 1; page <= pages; page++ {
		res, err := svc.Query(ctx, Criteria{Page: page, Limit: 5})
		if err != nil {
			t.Fatalf("Query(page %d) error = %v", page, err)
		}
		if res.Page != page {
			t.Fatalf("expected page %d, got %d", page, res.Page)
		}
		for _, row := range res.Rows {
			if seen[row.ID] {
				t.Fatalf("row %d returned twice", row.ID)
			}
			seen[row.ID] = true
		}
	}
	if len(seen) != 23 {
		t.Fatalf("expected 23 distinct rows, got %d", len(seen))
	}
}

func TestQueryClampsLimit(t *testing.T) {
	svc, repository := newTestService(t, &countingStore{}, 100)
	seedOrders(t, repository, 8)

	res, err := svc.Query(context.Background(), Criteria{Limit: 2, Page: -1})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Limit != MinLimit || res.Page != 1 || len(res.Rows) != MinLimit {
		t.Fatalf("unexpected window limit=%d page=%d rows=%d", res.Limit, res.Page, len(res.Rows))
	}
}

func TestGetUsesCacheUntilInvalidated(t *testing.T) {
	store := &countingStore{}
	svc, repository := newTestService(t, store, 100)
	seedOrders(t, repository, 1)
	ctx := context.Background()

	res, err := svc.Query(ctx, Criteria{})
	if err != nil || len(res.Rows) != 1 {
		t.Fatalf("Query() = %+v, %v", res, err)
	}
	id := res.Rows[0].ID

	if _, err := svc.Get(ctx, id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if store.hits != 1 {
		t.Fatalf("expected second Get to hit the cache, hits=%d", store.hits)
	}
	if got.ID != id || !got.Amount.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected cached order %+v", got)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := svc.Get(ctx, id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if store.hits != 1 {
		t.Fatalf("expected a miss after invalidation, hits=%d", store.hits)
	}
}

func TestGetMissingOrder(t *testing.T) {
	svc, _ := newTestService(t, &countingStore{}, 100)

	_, err := svc.Get(context.Background(), 404)
	if !errorbank.Is(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatuses(t *testing.T) {
	svc, repository := newTestService(t, &countingStore{}, 100)
	seedOrders(t, repository, 3)

	statuses, err := svc.Statuses(context.Background())
	if err != nil {
		t.Fatalf("Statuses() error = %v", err)
	}
	if len(statuses) != 1 || statuses[0] != "ATENDIDO" {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}

func TestExportCapsRows(t *testing.T) {
	svc, repository := newTestService(t, &countingStore{}, 4)
	seedOrders(t, repository, 6)
	ctx := context.Background()

	var buf bytes.Buffer
	res, err := svc.Export(ctx, Criteria{Page: 3, Limit: 1}, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Written != 4 || !res.Truncated {
		t.Fatalf("unexpected export result %+v", res)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(spreadsheet.ExportSheet)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d", len(rows))
	}

	buf.Reset()
	res, err = svc.Export(ctx, Criteria{Query: "00001"}, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Written != 1 || res.Truncated {
		t.Fatalf("unexpected filtered export result %+v", res)
	}
}
