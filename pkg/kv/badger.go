package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store implementation backed by BadgerDB v4.
type Badger struct {
	db   *badger.DB
	opts *Options
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Options is the common kv options (separator, etc.).
	Options *Options

	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence. Useful for
	// testing against the real engine.
	InMemory bool

	// Logger receives badger's own messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewBadger creates a new BadgerDB-backed Store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("kv: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(bopts.Dir)
	if bopts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	logger := bopts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(slogLogger{logger})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db, opts: bopts.Options}, nil
}

func (b *Badger) Get(_ context.Context, key Key) ([]byte, error) {
	k := b.opts.encode(key)
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Set(_ context.Context, key Key, value []byte) error {
	k := b.opts.encode(key)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
}

func (b *Badger) Delete(_ context.Context, key Key) error {
	k := b.opts.encode(key)
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	return b.scan(prefix, false)
}

func (b *Badger) ListReverse(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	return b.scan(prefix, true)
}

func (b *Badger) scan(prefix Key, reverse bool) iter.Seq2[Entry, error] {
	prefixBytes := b.opts.scanPrefix(prefix)
	return func(yield func(Entry, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefixBytes
			iterOpts.Reverse = reverse
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			seek := prefixBytes
			if reverse {
				// A reverse iterator starts at the last key of the
				// prefix range.
				seek = append(slices.Clone(prefixBytes), 0xff)
			}
			for it.Seek(seek); it.ValidForPrefix(prefixBytes); it.Next() {
				item := it.Item()
				keyCopy := item.KeyCopy(nil)

				val, err := item.ValueCopy(nil)
				if err != nil {
					if !yield(Entry{}, err) {
						return nil
					}
					continue
				}

				entry := Entry{
					Key:   b.opts.decode(keyCopy),
					Value: val,
				}
				if !yield(entry, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Entry{}, err)
		}
	}
}

func (b *Badger) BatchSet(_ context.Context, entries []Entry) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		k := b.opts.encode(e.Key)
		if err := wb.Set(k, e.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) DeletePrefix(_ context.Context, prefix Key) error {
	p := b.opts.scanPrefix(prefix)
	if p == nil {
		return errEmptyPrefix
	}
	return b.db.DropPrefix(p)
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogLogger adapts slog to badger's logger interface, dropping badger's
// info and debug chatter.
type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Errorf(f string, v ...interface{}) {
	s.l.Error("kv: " + strings.TrimRight(fmt.Sprintf(f, v...), "\n"))
}

func (s slogLogger) Warningf(f string, v ...interface{}) {
	s.l.Warn("kv: " + strings.TrimRight(fmt.Sprintf(f, v...), "\n"))
}

func (s slogLogger) Infof(string, ...interface{})  {}
func (s slogLogger) Debugf(string, ...interface{}) {}
