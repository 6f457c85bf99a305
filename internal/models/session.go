package models

import (
	"time"
)

// CollaborationSession is the per-(document,user) coordination record.
// The unique index makes re-join an upsert instead of a second row.
type CollaborationSession struct {
	SessionID      uint64 `gorm:"primaryKey;autoIncrement"`
	DocumentID     uint64 `gorm:"not null;index:idx_document_user_session,unique"`
	UserID         string `gorm:"type:char(36);not null;index:idx_document_user_session,unique"`
	SessionToken   string `gorm:"type:char(36);not null"`
	Active         bool   `gorm:"not null;default:true"`
	CursorPosition int64  `gorm:"not null;default:0"`
	LastActivityAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DocumentCollaborator is the presence row other clients see: online flag,
// cursor and the identity-provider profile captured at join time.
type DocumentCollaborator struct {
	CollaboratorID uint64 `gorm:"primaryKey;autoIncrement"`
	DocumentID     uint64 `gorm:"not null;index:idx_document_user_presence,unique"`
	UserID         string `gorm:"type:char(36);not null;index:idx_document_user_presence,unique"`
	Online         bool   `gorm:"not null;default:false"`
	CursorPosition int64  `gorm:"not null;default:0"`
	DisplayName    string `gorm:"size:255"`
	AvatarURL      string `gorm:"size:512"`
	LastSeenAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides the table name for CollaborationSession
func (CollaborationSession) TableName() string {
	return "collaboration_sessions"
}

// TableName overrides the table name for DocumentCollaborator
func (DocumentCollaborator) TableName() string {
	return "document_collaborators"
}
