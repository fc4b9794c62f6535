package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func stores(t *testing.T, c *clock) map[string]Store {
	t.Helper()

	mem := NewMemory(DefaultTTL)
	mem.SetClock(c.now)

	sq, err := NewSQLite(DefaultTTL)
	if err != nil {
		t.Fatalf("failed to open sqlite cache: %v", err)
	}
	sq.SetClock(c.now)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{"memory": mem, "sqlite": sq}
}

func TestStore_TTL(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	for name, s := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c.t = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			key := Key("search", "SaaS market size 2024 2025 forecast")

			if err := s.Put(ctx, key, []byte(`{"organic":[]}`)); err != nil {
				t.Fatalf("put failed: %v", err)
			}

			c.t = c.t.Add(23*time.Hour + 59*time.Minute)
			got, ok, err := s.Get(ctx, key)
			if err != nil || !ok {
				t.Fatalf("expected hit within ttl, ok=%v err=%v", ok, err)
			}
			if string(got) != `{"organic":[]}` {
				t.Errorf("unexpected payload %q", got)
			}

			c.t = c.t.Add(2 * time.Minute)
			if _, ok, err := s.Get(ctx, key); err != nil || ok {
				t.Errorf("expected miss after ttl, ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStore_Miss(t *testing.T) {
	c := &clock{t: time.Now()}
	for name, s := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(context.Background(), "nope"); ok || err != nil {
				t.Errorf("expected clean miss, ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	c := &clock{t: time.Now()}
	for name, s := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = s.Put(ctx, "k", []byte("one"))
			_ = s.Put(ctx, "k", []byte("two"))
			got, ok, _ := s.Get(ctx, "k")
			if !ok || string(got) != "two" {
				t.Errorf("expected overwritten payload, got %q ok=%v", got, ok)
			}
		})
	}
}

func TestMemory_CopiesPayload(t *testing.T) {
	m := NewMemory(0)
	buf := []byte("abc")
	_ = m.Put(context.Background(), "k", buf)
	buf[0] = 'z'
	got, _, _ := m.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Errorf("stored payload should not alias caller buffer, got %q", got)
	}
}

func TestKey(t *testing.T) {
	a := Key("search", "q")
	if !strings.HasPrefix(a, "search_") || len(a) != len("search_")+32 {
		t.Errorf("unexpected key %q", a)
	}
	if Key("news", "q") == a {
		t.Error("mode must be part of the key")
	}
	if Key("search", "q2") == a {
		t.Error("query text must be part of the key")
	}
}
