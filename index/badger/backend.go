package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// ErrBackendClosed is returned by transactions on a closed Backend.
var ErrBackendClosed = errors.New("badger backend is closed")

// Backend owns a BadgerDB handle shared by one or more Stores.
type Backend struct {
	db     *badger.DB
	path   string
	logger *slog.Logger
}

// slogAdapter routes badger's printf-style logging into slog.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = slogAdapter{}

func (a slogAdapter) Errorf(format string, args ...any)   { a.log(slog.LevelError, format, args) }
func (a slogAdapter) Warningf(format string, args ...any) { a.log(slog.LevelWarn, format, args) }
func (a slogAdapter) Infof(format string, args ...any)    { a.log(slog.LevelInfo, format, args) }
func (a slogAdapter) Debugf(format string, args ...any)   { a.log(slog.LevelDebug, format, args) }

func (a slogAdapter) log(level slog.Level, format string, args []any) {
	a.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// OpenBackend opens the database directory at path, creating it when
// missing. With inMemory set, path is ignored and nothing touches disk.
func OpenBackend(path string, inMemory bool) (*Backend, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		path = ""
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if err := prepareDir(path); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "badger")
	opts = opts.
		WithLogger(slogAdapter{logger: logger}).
		WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database %q: %w", path, err)
	}
	logger.Debug("opened database", "path", path, "inMemory", inMemory)

	return &Backend{db: db, path: path, logger: logger}, nil
}

func prepareDir(path string) error {
	if path == "" {
		return errors.New("database path is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
				return fmt.Errorf("%s is not a directory", path)
			}
		}
		return err
	}
	return nil
}

// View runs fn in a read-only transaction.
func (b *Backend) View(fn func(tx *badger.Txn) error) error {
	if b.db.IsClosed() {
		return ErrBackendClosed
	}
	return b.db.View(fn)
}

// Update runs fn in a read-write transaction committed when fn returns nil.
func (b *Backend) Update(fn func(tx *badger.Txn) error) error {
	if b.db.IsClosed() {
		return ErrBackendClosed
	}
	return b.db.Update(fn)
}

// Close closes the database. Closing twice is a no-op.
func (b *Backend) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}
