package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/use-agent/sitepulse/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "website"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "website", []byte("https://a.example")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "website", []byte("https://b.example")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, err := s.Get(ctx, "website")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "https://b.example" {
		t.Errorf("Get = %q, want last write", got)
	}

	if err := s.Delete(ctx, "website"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "website"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemory_CopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf)
	buf[0] = 'z'

	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
}

func TestMemory_ConcurrentWriters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Set(ctx, "scrapeResult", []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	got, err := m.Get(ctx, "scrapeResult")
	if err != nil || len(got) != 1 {
		t.Fatalf("Get = %v, %v; want one surviving write", got, err)
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "sitepulse.db")
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitepulse.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Set(ctx, "scrapeResult", []byte(`{"kind":"raw_html"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = s.Close()

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "scrapeResult")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `{"kind":"raw_html"}` {
		t.Errorf("Get = %q", got)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StoreConfig{Driver: "etcd"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Open(memory) returned %T", s)
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("SITEPULSE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SITEPULSE_TEST_REDIS_ADDR not set")
	}
	s, err := OpenRedis(context.Background(), config.StoreConfig{
		RedisAddr:   addr,
		RedisPrefix: "sitepulse-test:" + t.Name() + ":",
	})
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestOpenRedis_Unreachable(t *testing.T) {
	_, err := OpenRedis(context.Background(), config.StoreConfig{RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Error("expected ping error for closed port")
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitepulse.db")
	s, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	db, ok := s.(*SQLite)
	if !ok {
		t.Fatalf("Open(sqlite) returned %T", s)
	}
	if db.Path() != path {
		t.Errorf("Path = %q, want %q", db.Path(), path)
	}
}
