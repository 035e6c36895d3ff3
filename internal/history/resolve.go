package history

import (
	"context"
	"log/slog"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"github.com/suPer8Hu/chat-app/internal/settings"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
)

// Descriptors holds connection descriptors for the networked variants.
type Descriptors struct {
	PostgresDSN string
	MySQLDSN    string
	RedisURL    string
}

// Target is a resolved backend choice.
type Target struct {
	Provider Provider
	URL      string
}

type Resolver struct {
	store        *settings.Store
	descriptors  Descriptors
	logger       *slog.Logger
	newSessionID func() string
}

func NewResolver(store *settings.Store, d Descriptors, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:       store,
		descriptors: d,
		logger:      logger,
		newSessionID: func() string {
			return ulid.Make().String()
		},
	}
}

// Target picks the variant: explicit name, then the record's
// database_provider, then sqlite. Unknown names fall back to sqlite.
// A corrupt settings file is returned as an error.
func (r *Resolver) Target(provider string) (Target, error) {
	var rec *settings.Record
	if r.store != nil {
		if _, _, err := r.store.EnsureInitialized(); err != nil {
			return Target{}, err
		}
		var err error
		if rec, err = r.store.Read(); err != nil {
			return Target{}, err
		}
	}

	name := strings.TrimSpace(provider)
	if name == "" && rec != nil {
		name = rec.DatabaseProvider
	}

	p, ok := ParseProvider(name)
	if !ok {
		if name != "" {
			r.logger.Warn("unknown history provider, using sqlite", "provider", name)
		}
		p = SQLite
	}

	// database_url is the sqlite file; networked variants take their
	// descriptor from the environment.
	var url string
	switch p {
	case Postgres:
		url = r.descriptors.PostgresDSN
	case MySQL:
		url = r.descriptors.MySQLDSN
	case Redis:
		url = r.descriptors.RedisURL
	default:
		url = settings.DefaultDatabaseURL
		if rec != nil && rec.DatabaseURL != "" {
			url = rec.DatabaseURL
		}
	}
	return Target{Provider: p, URL: url}, nil
}

// Resolve returns a handle for the chosen variant. The file-based variant
// uses DefaultSessionID; networked variants get a fresh ULID.
func (r *Resolver) Resolve(ctx context.Context, provider string) (Handle, error) {
	t, err := r.Target(provider)
	if err != nil {
		return nil, err
	}
	return r.Open(ctx, t)
}

func (r *Resolver) Open(ctx context.Context, t Target) (Handle, error) {
	var (
		h   Handle
		err error
	)
	switch t.Provider {
	case Postgres:
		h, err = OpenSQL(ctx, Postgres, postgres.Open(t.URL), r.newSessionID())
	case MySQL:
		h, err = OpenSQL(ctx, MySQL, mysql.Open(t.URL), r.newSessionID())
	case Redis:
		h, err = OpenRedis(ctx, t.URL, r.newSessionID())
	default:
		h, err = OpenSQL(ctx, SQLite, gormsqlite.Open(t.URL), DefaultSessionID)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("chat history ready", "provider", h.Provider(), "session_id", h.SessionID())
	return h, nil
}
