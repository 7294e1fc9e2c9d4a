package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/cache"
	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/database"
	"github.com/Additional-Code/ordenes/internal/dto"
	"github.com/Additional-Code/ordenes/internal/inbox"
	"github.com/Additional-Code/ordenes/internal/migration"
	repo "github.com/Additional-Code/ordenes/internal/repository/order"
	"github.com/Additional-Code/ordenes/internal/service/importer"
	ordersvc "github.com/Additional-Code/ordenes/internal/service/order"
)

const testKey = "s3cret"

type nopStore struct{}

func (nopStore) Get(context.Context, string) ([]byte, error) { return nil, cache.ErrCacheMiss }
func (nopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nopStore) Delete(context.Context, string) error { return nil }

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*echo.Echo, string) {
	t.Helper()

	root := t.TempDir()
	cfg := config.Config{
		Database: config.Database{Driver: "sqlite", WriterDSN: "file:" + filepath.Join(root, "admin.db")},
		Admin:    config.Admin{Key: testKey},
		Import:   config.Import{InboxDir: filepath.Join(root, "inbox"), Extensions: []string{".xlsx", ".xlsm"}, ExportLimit: 100},
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

	ib, err := inbox.New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("open inbox: %v", err)
	}
	repository := repo.NewRepository(conns)
	orders := ordersvc.NewService(ordersvc.Params{Repository: repository, Cache: nopStore{}, Config: cfg, Logger: zap.NewNop()})
	svc, err := importer.NewService(importer.Params{
		Repository: repository,
		Orders:     orders,
		Inbox:      ib,
		Provenance: importer.NewProvenanceStore(),
		Config:     cfg,
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("importer: %v", err)
	}

	e := echo.New()
	Register(e, NewHandler(svc, ib, cfg))
	return e, ib.Dir()
}

func writeReport(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", "Reporte 2024"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	headers := []interface{}{"SIAF", "Tipo de Orden", "N° Orden", "Razón Social", "Concepto Detallado"}
	row := []interface{}{"00099", "OC", "1", "ACME", "Papel"}
	if err := f.SetSheetRow("Reporte 2024", "A3", &headers); err != nil {
		t.Fatalf("headers: %v", err)
	}
	if err := f.SetSheetRow("Reporte 2024", "A4", &row); err != nil {
		t.Fatalf("row: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func request(e *echo.Echo, method, target, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if key != "" {
		req.Header.Set(HeaderAdminKey, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireKey(t *testing.T) {
	e, _ := newTestServer(t)

	for _, tc := range []struct{ method, target, key string }{
		{http.MethodGet, "/api/admin/inbox", ""},
		{http.MethodGet, "/api/admin/inbox", "wrong"},
		{http.MethodPost, "/api/admin/import-from-folder", "wrong"},
	} {
		rec := request(e, tc.method, tc.target, tc.key)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s with key %q: expected 401, got %d", tc.method, tc.target, tc.key, rec.Code)
		}
		var body envelope[any]
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Success || body.Error.Kind != "unauthorized" {
			t.Fatalf("unexpected error body %s", rec.Body.String())
		}
	}
}

func TestImportFromFolderFlow(t *testing.T) {
	e, dir := newTestServer(t)

	var info envelope[dto.AppInfoResponse]
	if err := json.Unmarshal(request(e, http.MethodGet, "/api/app/info", "").Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Data.LastImport != nil || info.Data.ServerTime.IsZero() {
		t.Fatalf("unexpected info before import %+v", info.Data)
	}

	if rec := request(e, http.MethodPost, "/api/admin/import-from-folder", testKey); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on empty inbox, got %d", rec.Code)
	}

	writeReport(t, filepath.Join(dir, "julio.xlsx"))

	var inboxBody envelope[dto.InboxResponse]
	if err := json.Unmarshal(request(e, http.MethodGet, "/api/admin/inbox", testKey).Body.Bytes(), &inboxBody); err != nil {
		t.Fatalf("decode inbox: %v", err)
	}
	if len(inboxBody.Data.Files) != 1 || inboxBody.Data.Files[0].Name != "julio.xlsx" {
		t.Fatalf("unexpected inbox %+v", inboxBody.Data)
	}

	if rec := request(e, http.MethodPost, "/api/admin/import-from-folder?file=otro.xlsx", testKey); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown file, got %d", rec.Code)
	}

	rec := request(e, http.MethodPost, "/api/admin/import-from-folder?file=julio.xlsx", testKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var imported envelope[dto.ProvenanceResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	if imported.Data.FileName != "julio.xlsx" || imported.Data.ImportedCount != 1 {
		t.Fatalf("unexpected import result %+v", imported.Data)
	}

	if err := json.Unmarshal(request(e, http.MethodGet, "/api/app/info", "").Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Data.LastImport == nil || info.Data.LastImport.FileName != "julio.xlsx" {
		t.Fatalf("expected provenance after import, got %+v", info.Data.LastImport)
	}
}
