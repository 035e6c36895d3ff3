// Package history stores chat transcripts. A Handle is bound to one session
// identity and exposes an append-only, creation-ordered view of it.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	Human     Role = "human"
	Assistant Role = "assistant"
)

func (r Role) valid() bool { return r == Human || r == Assistant }

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider names a backend variant.
type Provider string

const (
	SQLite   Provider = "sqlite"
	Postgres Provider = "postgres"
	MySQL    Provider = "mysql"
	Redis    Provider = "redis"
)

// ParseProvider accepts the variant names plus the "sqlite3" alias.
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return SQLite, true
	case "postgres", "postgresql":
		return Postgres, true
	case "mysql":
		return MySQL, true
	case "redis":
		return Redis, true
	}
	return "", false
}

// DefaultSessionID is the fixed identity used by the file-based variant.
const DefaultSessionID = "local"

var ErrBackendConnection = errors.New("history backend unreachable")

type Handle interface {
	Messages(ctx context.Context) ([]Message, error)
	AppendHuman(ctx context.Context, content string) error
	AppendAssistant(ctx context.Context, content string) error
	SessionID() string
	Provider() Provider
	Close() error
}

func connErr(p Provider, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBackendConnection, p, err)
}
