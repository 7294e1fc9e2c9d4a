// Package inbox exposes the folder administrators drop spreadsheets into.
package inbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/config"
)

var (
	// ErrInvalidFile is returned for names that are not importable inbox entries.
	ErrInvalidFile = errors.New("invalid inbox file")
	// ErrEmpty is returned when no importable file is waiting.
	ErrEmpty = errors.New("inbox is empty")
)

// Module provides the inbox to Fx.
var Module = fx.Provide(New)

// File is one importable spreadsheet in the inbox.
type File struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Inbox lists and resolves spreadsheets inside a single directory.
type Inbox struct {
	dir        string
	extensions []string
}

// New prepares the configured inbox directory.
func New(cfg config.Config, logger *zap.Logger) (*Inbox, error) {
	ib, err := Open(cfg.Import.InboxDir, cfg.Import.Extensions)
	if err != nil {
		return nil, err
	}
	logger.Info("inbox ready", zap.String("dir", ib.dir), zap.Strings("extensions", ib.extensions))
	return ib, nil
}

// Open creates dir if needed. Extensions are matched case-insensitively and
// must include the leading dot.
func Open(dir string, extensions []string) (*Inbox, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("inbox dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		exts = append(exts, strings.ToLower(ext))
	}
	return &Inbox{dir: dir, extensions: exts}, nil
}

// Dir returns the inbox directory.
func (ib *Inbox) Dir() string {
	return ib.dir
}

// Allowed reports whether name carries an importable extension.
func (ib *Inbox) Allowed(name string) bool {
	return slices.Contains(ib.extensions, strings.ToLower(filepath.Ext(name)))
}

// List returns the importable files, newest first.
func (ib *Inbox) List() ([]File, error) {
	entries, err := os.ReadDir(ib.dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		// Office lock files ("~$name.xlsx") share the extension.
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), "~$") || !ib.Allowed(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	slices.SortFunc(files, func(a, b File) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return files, nil
}

// Latest returns the most recently modified importable file.
func (ib *Inbox) Latest() (File, error) {
	files, err := ib.List()
	if err != nil {
		return File{}, err
	}
	if len(files) == 0 {
		return File{}, ErrEmpty
	}
	return files[0], nil
}

// Resolve maps a bare file name to its path inside the inbox. An empty name
// selects the latest file.
func (ib *Inbox) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		latest, err := ib.Latest()
		if err != nil {
			return "", err
		}
		return filepath.Join(ib.dir, latest.Name), nil
	}

	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q is not a plain file name", ErrInvalidFile, name)
	}
	if !ib.Allowed(name) {
		return "", fmt.Errorf("%w: %q has an unsupported extension", ErrInvalidFile, name)
	}

	path := filepath.Join(ib.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q not found in inbox", ErrInvalidFile, name)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q is not a regular file", ErrInvalidFile, name)
	}
	return path, nil
}
