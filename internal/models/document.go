package models

import (
	"time"
)

// CollaborativeDocument holds the shared content plus the optimistic
// concurrency state for one document. Content is an opaque blob; the
// service never interprets it. DocumentVersion advances by exactly 1
// per successful edit, always under a conditional update.
type CollaborativeDocument struct {
	DocumentID      uint64  `gorm:"primaryKey;autoIncrement"`
	WorkspaceID     uint64  `gorm:"not null;index"`
	Title           string  `gorm:"size:255;not null"`
	Content         JSON    `gorm:"type:json"`
	DocumentVersion uint64  `gorm:"not null;default:0"`
	LockHolder      *string `gorm:"type:char(36)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EditLogEntry is one row of the append-only edit ledger.
// Rows are write-once: no UpdatedAt, never mutated after create.
type EditLogEntry struct {
	EditID        uint64 `gorm:"primaryKey;autoIncrement"`
	DocumentID    uint64 `gorm:"not null;index:idx_edit_log_document"`
	UserID        string `gorm:"type:char(36);not null"`
	Operation     JSON   `gorm:"type:json"`
	PositionStart int64  `gorm:"not null;default:0"`
	PositionEnd   int64  `gorm:"not null;default:0"`
	VersionBefore uint64 `gorm:"not null"`
	VersionAfter  uint64 `gorm:"not null"`
	CreatedAt     time.Time
}

// TableName overrides the table name for CollaborativeDocument
func (CollaborativeDocument) TableName() string {
	return "collaborative_documents"
}

// TableName overrides the table name for EditLogEntry
func (EditLogEntry) TableName() string {
	return "edit_log_entries"
}
