package models

import (
	"time"
)

// Comment statuses. Deletion is a status transition, never a row delete,
// so replies keep a resolvable parent.
const (
	CommentActive   = "active"
	CommentResolved = "resolved"
	CommentDeleted  = "deleted"
)

// Comment is a threaded annotation tied to a document position.
// ParentID, when set, references another comment on the same document.
type Comment struct {
	CommentID  uint64  `gorm:"primaryKey;autoIncrement"`
	DocumentID uint64  `gorm:"not null;index:idx_document_comments"`
	UserID     string  `gorm:"type:char(36);not null"`
	Content    string  `gorm:"type:text;not null"`
	Position   int64   `gorm:"not null;default:0"`
	ParentID   *uint64 `gorm:"index"`
	Status     string  `gorm:"size:16;not null;default:'active'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName overrides the table name for Comment
func (Comment) TableName() string {
	return "document_comments"
}
