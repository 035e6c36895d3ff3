package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
)

func openTestSQLite(t *testing.T, path, sessionID string) *SQLStore {
	t.Helper()
	s, err := OpenSQL(context.Background(), SQLite, gormsqlite.Open(path), sessionID)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// checkAppendOrder appends n alternating messages and expects them back in
// call order.
func checkAppendOrder(t *testing.T, h Handle, n int) {
	t.Helper()
	ctx := context.Background()

	want := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		m := Message{Role: Human, Content: fmt.Sprintf("msg %d", i)}
		var err error
		if i%3 == 2 {
			m.Role = Assistant
			err = h.AppendAssistant(ctx, m.Content)
		} else {
			err = h.AppendHuman(ctx, m.Content)
		}
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		want = append(want, m)
	}

	got, err := h.Messages(ctx)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSQLStore_AppendOrder(t *testing.T) {
	s := openTestSQLite(t, filepath.Join(t.TempDir(), "chat.db"), DefaultSessionID)
	checkAppendOrder(t, s, 12)

	// repeated reads are stable
	a, _ := s.Messages(context.Background())
	b, _ := s.Messages(context.Background())
	if len(a) != len(b) {
		t.Fatalf("messages not stable across reads")
	}
}

func TestSQLStore_EmptyTranscript(t *testing.T) {
	s := openTestSQLite(t, filepath.Join(t.TempDir(), "chat.db"), DefaultSessionID)

	msgs, err := s.Messages(context.Background())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty transcript, got %d", len(msgs))
	}
}

func TestSQLStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	first, err := OpenSQL(ctx, SQLite, gormsqlite.Open(path), DefaultSessionID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.AppendHuman(ctx, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.AppendAssistant(ctx, "hi there"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := openTestSQLite(t, path, DefaultSessionID)
	msgs, err := second.Messages(ctx)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != Human || msgs[1].Content != "hi there" {
		t.Fatalf("unexpected transcript after reopen: %+v", msgs)
	}
}

func TestSQLStore_SessionsArePartitioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	a := openTestSQLite(t, path, "a")
	if err := a.AppendHuman(ctx, "only in a"); err != nil {
		t.Fatalf("append: %v", err)
	}
	b := openTestSQLite(t, path, "b")
	msgs, err := b.Messages(ctx)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("session b sees %d foreign messages", len(msgs))
	}
}

func TestSQLStore_UnknownRoleIsReported(t *testing.T) {
	s := openTestSQLite(t, filepath.Join(t.TempDir(), "chat.db"), DefaultSessionID)
	if err := s.db.Create(&storedMessage{SessionID: DefaultSessionID, Role: "system", Content: "x"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Messages(context.Background()); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
