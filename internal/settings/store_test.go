package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "chat_config.json"), slog.New(slog.DiscardHandler))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

func TestEnsureInitialized_Idempotent(t *testing.T) {
	s := newTestStore(t)

	created, existed, err := s.EnsureInitialized()
	if err != nil {
		t.Fatalf("first init: %v", err)
	}
	if !created || existed {
		t.Fatalf("first init: created=%v existed=%v", created, existed)
	}
	before := readFile(t, s.Path())

	created, existed, err = s.EnsureInitialized()
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if created || !existed {
		t.Fatalf("second init: created=%v existed=%v", created, existed)
	}
	if after := readFile(t, s.Path()); !bytes.Equal(before, after) {
		t.Fatalf("file changed on second init:\n%s\n---\n%s", before, after)
	}
}

func TestRead_DefaultsAfterInit(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.EnsureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}

	rec, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	want := Default()
	if rec.SelectedModel != nil {
		t.Fatalf("expected no selected model, got %q", *rec.SelectedModel)
	}
	if rec.TopP != 1 || rec.TopK != 1 || rec.Temperature != 0.8 {
		t.Fatalf("unexpected parameters: %+v", rec)
	}
	if rec.DatabaseURL != want.DatabaseURL || rec.DatabaseProvider != "sqlite" {
		t.Fatalf("unexpected database settings: %+v", rec)
	}
}

func TestRead_AbsentOrEmpty(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Read()
	if err != nil || rec != nil {
		t.Fatalf("absent file: rec=%v err=%v", rec, err)
	}

	for _, body := range []string{"", "  \n", "{}", "null"} {
		if err := os.WriteFile(s.Path(), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		rec, err := s.Read()
		if err != nil || rec != nil {
			t.Fatalf("body %q: rec=%v err=%v", body, rec, err)
		}
	}
}

func TestRead_MissingKeysUseDefaults(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"selected_model":"llama3"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if m, ok := rec.Model(); !ok || m != "llama3" {
		t.Fatalf("unexpected model: %q %v", m, ok)
	}
	if rec.Temperature != 0.8 || rec.DatabaseProvider != "sqlite" {
		t.Fatalf("defaults not applied: %+v", rec)
	}
}

func TestRead_Corrupt(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"top_p": `,
		"array":         `[1,2,3]`,
		"out of range":  `{"temperature": 3}`,
		"wrong type":    `{"top_p": "high"}`,
		"unknown key":   `{"colour": "blue"}`,
		"bad provider":  `{"database_provider": "oracle"}`,
		"empty db path": `{"database_url": ""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			if err := os.WriteFile(s.Path(), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := s.Read()
			if !errors.Is(err, ErrConfigCorrupt) {
				t.Fatalf("expected ErrConfigCorrupt, got %v", err)
			}
		})
	}
}

func TestWrite_RejectsInvalidAndKeepsPrior(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.EnsureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := s.Write("selected_model", "llama3"); err != nil {
		t.Fatalf("write model: %v", err)
	}
	before := readFile(t, s.Path())

	err := s.Write("temperature", 1.5)
	if !errors.Is(err, ErrConfigValidation) {
		t.Fatalf("expected ErrConfigValidation, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Key != "temperature" {
		t.Fatalf("expected ValidationError for temperature, got %#v", err)
	}

	if after := readFile(t, s.Path()); !bytes.Equal(before, after) {
		t.Fatalf("file changed after rejected write")
	}
	rec, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rec.Temperature != 0.8 {
		t.Fatalf("temperature changed: %v", rec.Temperature)
	}
	if m, _ := rec.Model(); m != "llama3" {
		t.Fatalf("selected model lost: %q", m)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.EnsureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := s.Write("top_p", 0.5); err != nil {
		t.Fatalf("write top_p: %v", err)
	}
	if err := s.Write("selected_model", "llama3"); err != nil {
		t.Fatalf("write model: %v", err)
	}

	rec, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if m, ok := rec.Model(); !ok || m != "llama3" {
		t.Fatalf("unexpected model: %q", m)
	}
	if rec.TopP != 0.5 || rec.TopK != 1 || rec.Temperature != 0.8 {
		t.Fatalf("other fields changed: %+v", rec)
	}
	if rec.DatabaseURL != DefaultDatabaseURL || rec.DatabaseProvider != DefaultDatabaseProvider {
		t.Fatalf("database fields changed: %+v", rec)
	}
}

func TestWrite_AcceptsNumericKinds(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.EnsureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}

	cases := []struct {
		value any
		want  float64
	}{
		{float32(0.5), 0.5},
		{int32(1), 1},
		{int8(0), 0},
		{uint(1), 1},
		{uint16(0), 0},
		{json.Number("0.25"), 0.25},
		{" 0.75 ", 0.75},
	}
	for _, tc := range cases {
		if err := s.Write("top_p", tc.value); err != nil {
			t.Fatalf("Write(top_p, %T %v): %v", tc.value, tc.value, err)
		}
		rec, err := s.Read()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if rec.TopP != tc.want {
			t.Fatalf("Write(top_p, %T %v): got %v, want %v", tc.value, tc.value, rec.TopP, tc.want)
		}
	}
	if err := s.Write("top_p", true); !errors.Is(err, ErrConfigValidation) {
		t.Fatalf("bool accepted as number: %v", err)
	}
}

func TestWrite_EmptyStoreStartsFromDefaults(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := s.Write("temperature", "0.2"); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rec.Temperature != 0.2 || rec.TopP != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestWrite_UnknownKeyAndBadTypes(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.EnsureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}

	cases := []struct {
		key   string
		value any
	}{
		{"colour", "blue"},
		{"top_k", "lots"},
		{"top_k", -0.1},
		{"selected_model", 42},
		{"database_provider", "oracle"},
		{"database_url", ""},
	}
	for _, tc := range cases {
		if err := s.Write(tc.key, tc.value); !errors.Is(err, ErrConfigValidation) {
			t.Errorf("Write(%q, %v): expected ErrConfigValidation, got %v", tc.key, tc.value, err)
		}
	}
}

func TestWrite_CorruptStoreIsSurfaced(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"top_p":`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write("top_p", 0.3); !errors.Is(err, ErrConfigCorrupt) {
		t.Fatalf("expected ErrConfigCorrupt, got %v", err)
	}
	if got := readFile(t, s.Path()); string(got) != `{"top_p":` {
		t.Fatalf("corrupt file was rewritten: %q", got)
	}
}
