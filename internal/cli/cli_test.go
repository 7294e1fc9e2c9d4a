package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func setEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_WRITER_DSN", "file:"+filepath.Join(root, "cli.db"))
	t.Setenv("INBOX_DIR", filepath.Join(root, "inbox"))
	t.Setenv("OBS_ENABLE_METRICS", "false")
	t.Setenv("OBS_LOG_LEVEL", "error")
	return root
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v (%s)", args, err, out.String())
	}
	return out.String()
}

func TestMigrateSeedImport(t *testing.T) {
	root := setEnv(t)

	if out := run(t, "migrate", "up"); !strings.Contains(out, "migrations applied") {
		t.Fatalf("unexpected migrate output %q", out)
	}
	if out := run(t, "migrate", "status"); !strings.Contains(out, "schema version 1") {
		t.Fatalf("unexpected status output %q", out)
	}
	if out := run(t, "seed"); !strings.Contains(out, "seeded 4 orders") {
		t.Fatalf("unexpected seed output %q", out)
	}

	path := filepath.Join(root, "reporte.xlsx")
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "REPORTE"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	headers := []interface{}{"SIAF", "Tipo de Orden", "N° Orden", "Razón Social"}
	row := []interface{}{"00001", "OC", "1", "ACME"}
	_ = f.SetSheetRow("REPORTE", "A3", &headers)
	_ = f.SetSheetRow("REPORTE", "A4", &row)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	if out := run(t, "import", path); !strings.Contains(out, "imported 1 orders from reporte.xlsx") {
		t.Fatalf("unexpected import output %q", out)
	}
	if out := run(t, "seed"); !strings.Contains(out, "seeded 0 orders") {
		t.Fatalf("expected seed to leave imported data alone, got %q", out)
	}
}

func TestImportEmptyInbox(t *testing.T) {
	setEnv(t)

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"import"})
	if err := root.ExecuteContext(context.Background()); err == nil || !strings.Contains(err.Error(), "inbox") {
		t.Fatalf("expected empty inbox error, got %v", err)
	}
}
