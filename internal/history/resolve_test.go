package history

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/suPer8Hu/chat-app/internal/settings"
)

func newTestResolver(t *testing.T) (*Resolver, *settings.Store) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)
	store := settings.NewStore(filepath.Join(dir, "chat_config.json"), logger)
	if _, _, err := store.EnsureInitialized(); err != nil {
		t.Fatalf("init settings: %v", err)
	}
	if err := store.Write("database_url", filepath.Join(dir, "chat_app.db")); err != nil {
		t.Fatalf("write database_url: %v", err)
	}
	r := NewResolver(store, Descriptors{
		PostgresDSN: "host=pg dbname=chat",
		MySQLDSN:    "app:pass@tcp(db:3306)/chat",
		RedisURL:    "redis://cache:6379/0",
	}, logger)
	return r, store
}

func TestResolve_UnknownProviderFallsBackToSQLite(t *testing.T) {
	r, _ := newTestResolver(t)

	h, err := r.Resolve(context.Background(), "unknown-provider")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	defer h.Close()

	if h.Provider() != SQLite {
		t.Fatalf("expected sqlite, got %s", h.Provider())
	}
	if h.SessionID() != DefaultSessionID {
		t.Fatalf("expected fixed session id, got %q", h.SessionID())
	}
	checkAppendOrder(t, h, 4)
}

func TestResolve_NoSettingsUsesSQLite(t *testing.T) {
	t.Chdir(t.TempDir())
	r := NewResolver(nil, Descriptors{}, slog.New(slog.DiscardHandler))

	tgt, err := r.Target("")
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if tgt.Provider != SQLite || tgt.URL != settings.DefaultDatabaseURL {
		t.Fatalf("unexpected target: %+v", tgt)
	}
}

func TestTarget_ResolutionOrder(t *testing.T) {
	r, store := newTestResolver(t)
	dbPath := filepath.Join(filepath.Dir(store.Path()), "chat_app.db")

	cases := []struct {
		name     string
		record   string // database_provider written before resolving
		explicit string
		want     Target
	}{
		{"record default", "", "", Target{SQLite, dbPath}},
		{"alias", "", "sqlite3", Target{SQLite, dbPath}},
		{"record postgres", "postgres", "", Target{Postgres, "host=pg dbname=chat"}},
		{"explicit wins", "postgres", "redis", Target{Redis, "redis://cache:6379/0"}},
		{"explicit sqlite keeps file path", "mysql", "sqlite", Target{SQLite, dbPath}},
		{"record mysql", "mysql", "", Target{MySQL, "app:pass@tcp(db:3306)/chat"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.record
			if p == "" {
				p = "sqlite"
			}
			if err := store.Write("database_provider", p); err != nil {
				t.Fatalf("write provider: %v", err)
			}
			got, err := r.Target(tc.explicit)
			if err != nil {
				t.Fatalf("target: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestTarget_CorruptSettingsSurfaced(t *testing.T) {
	r, store := newTestResolver(t)
	if err := os.WriteFile(store.Path(), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := r.Target(""); !errors.Is(err, settings.ErrConfigCorrupt) {
		t.Fatalf("expected ErrConfigCorrupt, got %v", err)
	}
}

func TestResolve_UnreachableNetworkedStore(t *testing.T) {
	for _, url := range []string{"redis://127.0.0.1:1/0", "", "not a url"} {
		r := NewResolver(nil, Descriptors{RedisURL: url}, slog.New(slog.DiscardHandler))
		_, err := r.Resolve(context.Background(), "redis")
		if !errors.Is(err, ErrBackendConnection) {
			t.Fatalf("REDIS_URL=%q: expected ErrBackendConnection, got %v", url, err)
		}
	}
}
