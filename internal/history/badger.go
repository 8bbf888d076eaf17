package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"

	"mediaqa/internal/models"
)

const snapPrefix = "snap|"

// BadgerStore persists snapshots in an embedded Badger database, one
// JSON value per key. Right fit when the service runs as a single node
// and history just has to survive restarts.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the database directory at path.
func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger: path required")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("badger: create dir %s: %w", path, err)
	}
	opts := badger.DefaultOptions(path)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenBadgerInMemory opens a throwaway in-memory instance, used by tests.
func OpenBadgerInMemory() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badger: open in-memory: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Upsert(_ context.Context, s models.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("badger: marshal snapshot: %w", err)
	}
	k := []byte(snapPrefix + key(s.Market, s.Year, s.Month, s.Dimension))
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, raw)
	})
	if err != nil {
		return fmt.Errorf("badger: upsert: %w", err)
	}
	return nil
}

func (b *BadgerStore) Query(ctx context.Context, f Filter, limit int) ([]models.Snapshot, error) {
	var out []models.Snapshot
	prefix := []byte(snapPrefix)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			err := it.Item().Value(func(val []byte) error {
				var s models.Snapshot
				if err := json.Unmarshal(val, &s); err != nil {
					return nil // valor corrupto, se ignora
				}
				if f.matches(s) {
					out = append(out, s)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: query: %w", err)
	}
	sortSnapshots(out)
	return clip(out, limit), nil
}

func (b *BadgerStore) Trend(ctx context.Context, market, dimension string, lookback int) ([]models.Snapshot, error) {
	return b.Query(ctx, Filter{Market: market, Dimension: dimension}, lookback)
}

func (b *BadgerStore) Clear(_ context.Context) error {
	if err := b.db.DropPrefix([]byte(snapPrefix)); err != nil {
		return fmt.Errorf("badger: clear: %w", err)
	}
	return nil
}

func (b *BadgerStore) Close() error { return b.db.Close() }

// badgerLogger adapts slog to Badger's internal logger.
type badgerLogger struct {
	l *slog.Logger
}

func (bl *badgerLogger) Errorf(format string, args ...interface{}) {
	bl.l.Error(fmt.Sprintf(format, args...))
}

func (bl *badgerLogger) Warningf(format string, args ...interface{}) {
	bl.l.Warn(fmt.Sprintf(format, args...))
}

func (bl *badgerLogger) Infof(format string, args ...interface{}) {
	bl.l.Debug(fmt.Sprintf(format, args...))
}

func (bl *badgerLogger) Debugf(format string, args ...interface{}) {
	bl.l.Debug(fmt.Sprintf(format, args...))
}
