package models

import (
	"time"
)

// Notification types fanned out to collaborators
const (
	NotifyCommentAdded = "comment.added"
)

// Notification is one queued delivery for one recipient. Rows are
// append-only; only the Read flag ever changes.
type Notification struct {
	NotificationID uint64 `gorm:"primaryKey;autoIncrement"`
	UserID         string `gorm:"type:char(36);not null;index:idx_user_notifications"`
	Type           string `gorm:"size:64;not null"`
	Payload        JSON   `gorm:"type:json"`
	Read           bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

// TableName overrides the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}
