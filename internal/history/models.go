package history

import "time"

type storedMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"type:varchar(64);index:idx_message_store_session;not null"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (storedMessage) TableName() string { return "message_store" }
