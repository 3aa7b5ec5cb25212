package persistence

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend is a Backend over an embedded BadgerDB.
//
// The caller owns db and closes it.
type BadgerBackend struct {
	db     *badger.DB
	prefix []byte
}

var _ Backend = (*BadgerBackend)(nil)

// NewBadgerBackend wraps db. Keys are stored as prefix+key.
func NewBadgerBackend(db *badger.DB, prefix string) *BadgerBackend {
	if prefix == "" {
		prefix = "surveyflow/"
	}
	return &BadgerBackend{db: db, prefix: []byte(prefix)}
}

// OpenBadger opens (or creates) a BadgerDB at dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	return badger.Open(opts)
}

func (b *BadgerBackend) key(key string) []byte {
	out := make([]byte, 0, len(b.prefix)+len(key))
	out = append(out, b.prefix...)
	return append(out, key...)
}

func (b *BadgerBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *BadgerBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(key), data)
	})
}

func (b *BadgerBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(key))
	})
}
