package history

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLStore keeps the transcript in the message_store table of any gorm
// dialect. The autoincrement id is the ordering column.
type SQLStore struct {
	db        *gorm.DB
	provider  Provider
	sessionID string
}

// OpenSQL connects, checks liveness and migrates the table. Failures are
// reported as ErrBackendConnection and never retried.
func OpenSQL(ctx context.Context, p Provider, dialector gorm.Dialector, sessionID string) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, connErr(p, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, connErr(p, err)
	}
	// one session, one connection
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, connErr(p, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&storedMessage{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("history: migrate %s: %w", p, err)
	}

	return &SQLStore{db: db, provider: p, sessionID: sessionID}, nil
}

func (s *SQLStore) SessionID() string { return s.sessionID }

func (s *SQLStore) Provider() Provider { return s.provider }

// Messages returns the transcript in ASC id order (oldest -> newest).
func (s *SQLStore) Messages(ctx context.Context) ([]Message, error) {
	var rows []storedMessage
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", s.sessionID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("history: list %s: %w", s.provider, err)
	}

	msgs := make([]Message, 0, len(rows))
	for _, r := range rows {
		role := Role(r.Role)
		if !role.valid() {
			return nil, fmt.Errorf("history: message %d has unknown role %q", r.ID, r.Role)
		}
		msgs = append(msgs, Message{Role: role, Content: r.Content})
	}
	return msgs, nil
}

func (s *SQLStore) AppendHuman(ctx context.Context, content string) error {
	return s.insert(ctx, Human, content)
}

func (s *SQLStore) AppendAssistant(ctx context.Context, content string) error {
	return s.insert(ctx, Assistant, content)
}

func (s *SQLStore) insert(ctx context.Context, role Role, content string) error {
	m := &storedMessage{
		SessionID: s.sessionID,
		Role:      string(role),
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("history: append %s message: %w", role, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
