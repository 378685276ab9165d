package kv_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/kv"
)

// backends runs the same suite against every Store implementation.
var backends = []struct {
	name string
	open func(t *testing.T, opts *kv.Options) kv.Store
}{
	{"memory", func(t *testing.T, opts *kv.Options) kv.Store {
		t.Helper()
		s := kv.NewMemory(opts)
		t.Cleanup(func() { s.Close() })
		return s
	}},
	{"badger", func(t *testing.T, opts *kv.Options) kv.Store {
		t.Helper()
		s, err := kv.NewBadger(kv.BadgerOptions{Options: opts, InMemory: true})
		if err != nil {
			t.Fatalf("NewBadger: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}},
}

func TestGetSetDelete(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, nil)

			key := kv.Key{"journal", "session", "123"}
			val := []byte("hello")

			_, err := s.Get(ctx, key)
			if !errors.Is(err, kv.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := s.Set(ctx, key, val); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != string(val) {
				t.Fatalf("Get = %q, want %q", got, val)
			}

			// Overwrite.
			if err := s.Set(ctx, key, []byte("world")); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, _ = s.Get(ctx, key)
			if string(got) != "world" {
				t.Fatalf("Get = %q, want %q", got, "world")
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}

			// Delete non-existent key should not error.
			if err := s.Delete(ctx, kv.Key{"no", "such", "key"}); err != nil {
				t.Fatalf("Delete non-existent: %v", err)
			}
		})
	}
}

func TestListOrder(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, nil)

			// Fixed-width segments make lexicographic order chronological.
			var entries []kv.Entry
			for i := 3; i >= 0; i-- {
				entries = append(entries, kv.Entry{
					Key:   kv.Key{"journal", "s1", fmt.Sprintf("%08d", i)},
					Value: []byte{byte(i)},
				})
			}
			entries = append(entries, kv.Entry{Key: kv.Key{"journal", "s2", "00000000"}, Value: []byte("x")})
			if err := s.BatchSet(ctx, entries); err != nil {
				t.Fatalf("BatchSet: %v", err)
			}

			var got []string
			for e, err := range s.List(ctx, kv.Key{"journal", "s1"}) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				got = append(got, e.Key.String())
			}
			want := []string{
				"journal:s1:00000000",
				"journal:s1:00000001",
				"journal:s1:00000002",
				"journal:s1:00000003",
			}
			if !slices.Equal(got, want) {
				t.Fatalf("List = %v, want %v", got, want)
			}

			// Reverse order for tail reads.
			got = nil
			for e, err := range s.ListReverse(ctx, kv.Key{"journal", "s1"}) {
				if err != nil {
					t.Fatalf("ListReverse: %v", err)
				}
				got = append(got, e.Key.String())
			}
			slices.Reverse(got)
			if !slices.Equal(got, want) {
				t.Fatalf("ListReverse (reversed) = %v, want %v", got, want)
			}
		})
	}
}

func TestListPrefixBoundary(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, nil)

			// "ab" prefix must not match "abc:x", only "ab:*".
			entries := []kv.Entry{
				{Key: kv.Key{"ab", "1"}, Value: []byte("yes")},
				{Key: kv.Key{"abc", "2"}, Value: []byte("no")},
				{Key: kv.Key{"ab", "3"}, Value: []byte("yes")},
			}
			if err := s.BatchSet(ctx, entries); err != nil {
				t.Fatalf("BatchSet: %v", err)
			}

			var got []string
			for e, err := range s.List(ctx, kv.Key{"ab"}) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				got = append(got, e.Key.String())
			}
			want := []string{"ab:1", "ab:3"}
			if !slices.Equal(got, want) {
				t.Fatalf("List ab = %v, want %v", got, want)
			}
		})
	}
}

func TestDeletePrefix(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, nil)

			entries := []kv.Entry{
				{Key: kv.Key{"journal", "s1", "00000000"}, Value: []byte("a")},
				{Key: kv.Key{"journal", "s1", "00000001"}, Value: []byte("b")},
				{Key: kv.Key{"journal", "s2", "00000000"}, Value: []byte("c")},
			}
			if err := s.BatchSet(ctx, entries); err != nil {
				t.Fatalf("BatchSet: %v", err)
			}

			if err := s.DeletePrefix(ctx, kv.Key{"journal", "s1"}); err != nil {
				t.Fatalf("DeletePrefix: %v", err)
			}

			var rest []string
			for e, err := range s.List(ctx, kv.Key{"journal"}) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				rest = append(rest, e.Key.String())
			}
			if want := []string{"journal:s2:00000000"}; !slices.Equal(rest, want) {
				t.Fatalf("after DeletePrefix = %v, want %v", rest, want)
			}

			// Wiping the whole store via an empty prefix is refused.
			if err := s.DeletePrefix(ctx, nil); err == nil {
				t.Fatal("DeletePrefix(nil) succeeded")
			}
		})
	}
}

func TestValueIsolation(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, nil)

			key := kv.Key{"iso", "test"}
			original := []byte("original")

			if err := s.Set(ctx, key, original); err != nil {
				t.Fatalf("Set: %v", err)
			}

			// Mutating the caller's slice must not reach the store.
			original[0] = 'X'
			got, err := s.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got[0] != 'o' {
				t.Fatal("store value was mutated via original slice")
			}

			// Mutating the returned slice must not reach the store.
			got[0] = 'Y'
			got2, _ := s.Get(ctx, key)
			if got2[0] != 'o' {
				t.Fatal("store value was mutated via returned slice")
			}
		})
	}
}

func TestCustomSeparator(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, &kv.Options{Separator: '/'})

			key := kv.Key{"path", "to", "value"}
			if err := s.Set(ctx, key, []byte("data")); err != nil {
				t.Fatalf("Set: %v", err)
			}

			var keys []string
			for e, err := range s.List(ctx, kv.Key{"path", "to"}) {
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				keys = append(keys, e.Key.String())
			}
			// Key.String() always displays with ':', storage encodes with '/'.
			if len(keys) != 1 || keys[0] != "path:to:value" {
				t.Fatalf("List = %v, want [path:to:value]", keys)
			}
		})
	}
}

func TestKeySegmentValidation(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemory(nil)
	t.Cleanup(func() { s.Close() })

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for key segment containing separator")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "contains separator") {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()

	_ = s.Set(ctx, kv.Key{"bad:seg", "x"}, []byte("v"))
}

func TestKeyChild(t *testing.T) {
	base := kv.Key{"journal"}
	child := base.Child("s1", "00000000")
	if got, want := child.String(), "journal:s1:00000000"; got != want {
		t.Fatalf("Child = %q, want %q", got, want)
	}
	if len(base) != 1 {
		t.Fatalf("Child mutated the base key: %v", base)
	}
}
