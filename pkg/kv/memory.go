package kv

import (
	"bytes"
	"context"
	"iter"
	"slices"
	"sort"
	"sync"
)

// Memory is an in-memory Store implementation backed by a sorted map.
// It is safe for concurrent use and intended primarily for testing.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	opts *Options
}

// NewMemory creates a new in-memory Store. Pass nil for default options.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		data: make(map[string][]byte),
		opts: opts,
	}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k := string(m.opts.encode(key))
	m.mu.RLock()
	v, ok := m.data[k]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	k := string(m.opts.encode(key))
	cp := slices.Clone(value)
	m.mu.Lock()
	m.data[k] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	return m.scan(prefix, false)
}

func (m *Memory) ListReverse(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	return m.scan(prefix, true)
}

func (m *Memory) scan(prefix Key, reverse bool) iter.Seq2[Entry, error] {
	prefixBytes := m.opts.scanPrefix(prefix)

	// Snapshot matching keys under the read lock; yield outside it.
	m.mu.RLock()
	type pair struct {
		key string
		val []byte
	}
	var matches []pair
	for k, v := range m.data {
		if len(prefixBytes) == 0 || bytes.HasPrefix([]byte(k), prefixBytes) {
			matches = append(matches, pair{k, slices.Clone(v)})
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if reverse {
			return matches[i].key > matches[j].key
		}
		return matches[i].key < matches[j].key
	})

	return func(yield func(Entry, error) bool) {
		for _, p := range matches {
			entry := Entry{
				Key:   m.opts.decode([]byte(p.key)),
				Value: p.val,
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (m *Memory) BatchSet(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		k := string(m.opts.encode(e.Key))
		m.data[k] = slices.Clone(e.Value)
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix Key) error {
	prefixBytes := m.opts.scanPrefix(prefix)
	if prefixBytes == nil {
		return errEmptyPrefix
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefixBytes) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
