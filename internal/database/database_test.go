package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Additional-Code/ordenes/internal/config"
)

func TestOpenSQLiteCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	dsn := "file:" + filepath.Join(dir, "app.db")

	conns, err := Open(config.Database{Driver: "sqlite", WriterDSN: dsn, ReaderDSN: dsn})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer conns.Close()

	if conns.Reader != conns.Writer {
		t.Fatalf("expected reader to share the writer pool")
	}
	if err := pingContext(context.Background(), conns.Writer); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected sqlite dir to exist: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.Database{Driver: "oracle", WriterDSN: "x"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestEnsureSQLiteDirSkipsMemory(t *testing.T) {
	for _, dsn := range []string{"file::memory:?cache=shared", ":memory:", "file:app.db"} {
		if err := ensureSQLiteDir(dsn); err != nil {
			t.Fatalf("%s: unexpected error %v", dsn, err)
		}
	}
}
