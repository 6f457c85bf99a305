package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CollaboratorView is the presence information returned to other clients.
type CollaboratorView struct {
	UserID         string    `json:"userId"`
	DisplayName    string    `json:"displayName"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	CursorPosition int64     `json:"cursorPosition"`
	LastSeenAt     time.Time `json:"lastSeenAt"`
}

// DocumentSnapshot is the current document state handed to a joining client.
// Version is serialized as a string, matching what portal clients submit back.
type DocumentSnapshot struct {
	DocumentID uint64      `json:"documentId"`
	Title      string      `json:"title"`
	Content    models.JSON `json:"content"`
	Version    string      `json:"version"`
}

// JoinResult is the success payload of a join operation.
type JoinResult struct {
	SessionToken        string             `json:"sessionToken"`
	Document            DocumentSnapshot   `json:"document"`
	ActiveCollaborators []CollaboratorView `json:"activeCollaborators"`
}

// Join activates (or reactivates) the caller's session and presence rows on
// a document and returns the document snapshot plus the other collaborators
// currently online. Idempotent: the (document,user) unique index plus upsert
// semantics guarantee a single session row per pair.
func Join(db *gorm.DB, user types.AuthUser, documentID uint64, presenceTimeout time.Duration) (*JoinResult, error) {
	membership, doc, err := VerifyMembership(db, user.ID, documentID)
	if err != nil {
		return nil, err
	}
	_ = membership // any active member may observe

	token := uuid.NewString()
	now := time.Now().UTC()

	err = db.Transaction(func(tx *gorm.DB) error {
		session := models.CollaborationSession{DocumentID: documentID, UserID: user.ID}
		if err := tx.Where("document_id = ? AND user_id = ?", documentID, user.ID).
			Assign(map[string]interface{}{
				"session_token":    token,
				"active":           true,
				"last_activity_at": now,
			}).
			FirstOrCreate(&session).Error; err != nil {
			return err
		}

		presence := models.DocumentCollaborator{DocumentID: documentID, UserID: user.ID}
		return tx.Where("document_id = ? AND user_id = ?", documentID, user.ID).
			Assign(map[string]interface{}{
				"online":       true,
				"display_name": user.DisplayName,
				"avatar_url":   user.AvatarURL,
				"last_seen_at": now,
			}).
			FirstOrCreate(&presence).Error
	})
	if err != nil {
		return nil, err
	}

	collaborators, err := ActiveCollaborators(db, doc, user.ID, presenceTimeout)
	if err != nil {
		return nil, err
	}

	return &JoinResult{
		SessionToken: token,
		Document: DocumentSnapshot{
			DocumentID: doc.DocumentID,
			Title:      doc.Title,
			Content:    doc.Content,
			Version:    fmt.Sprintf("%d", doc.DocumentVersion),
		},
		ActiveCollaborators: collaborators,
	}, nil
}

// Leave deactivates the caller's session and presence rows. A second call
// is a no-op.
func Leave(db *gorm.DB, userID string, documentID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CollaborationSession{}).
			Where("document_id = ? AND user_id = ?", documentID, userID).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.DocumentCollaborator{}).
			Where("document_id = ? AND user_id = ?", documentID, userID).
			Update("online", false).Error
	})
}

// UpdateCursor records a cursor position on the caller's session and
// presence rows. Last write wins; no ordering guarantee is provided.
func UpdateCursor(db *gorm.DB, userID string, documentID uint64, position int64) error {
	now := time.Now().UTC()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CollaborationSession{}).
			Where("document_id = ? AND user_id = ?", documentID, userID).
			Updates(map[string]interface{}{
				"cursor_position":  position,
				"last_activity_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.DocumentCollaborator{}).
			Where("document_id = ? AND user_id = ?", documentID, userID).
			Updates(map[string]interface{}{
				"cursor_position": position,
				"last_seen_at":    now,
			}).Error
	})
}

// ActiveCollaborators returns the online, non-expired collaborators on a
// document, filtered to users who still hold an active workspace membership
// and excluding excludeUserID. Expiry is applied lazily here; the background
// reaper eventually flips the stored rows too.
func ActiveCollaborators(db *gorm.DB, doc *models.CollaborativeDocument, excludeUserID string, presenceTimeout time.Duration) ([]CollaboratorView, error) {
	cutoff := time.Now().UTC().Add(-presenceTimeout)

	var rows []models.DocumentCollaborator
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Joins("JOIN workspace_memberships m ON m.user_id = document_collaborators.user_id AND m.workspace_id = ? AND m.active = ?", doc.WorkspaceID, true).
		Where("document_collaborators.document_id = ? AND document_collaborators.online = ? AND document_collaborators.last_seen_at > ?",
			doc.DocumentID, true, cutoff).
		Where("document_collaborators.user_id <> ?", excludeUserID).
		Order("document_collaborators.user_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	views := make([]CollaboratorView, 0, len(rows))
	for _, row := range rows {
		views = append(views, CollaboratorView{
			UserID:         row.UserID,
			DisplayName:    row.DisplayName,
			AvatarURL:      row.AvatarURL,
			CursorPosition: row.CursorPosition,
			LastSeenAt:     row.LastSeenAt,
		})
	}

	return views, nil
}

// ReapExpiredSessions flips sessions (and their presence rows) offline when
// last activity is older than the timeout. Returns the number of sessions
// deactivated. Run from a scheduled sweep; reads apply the same cutoff
// lazily so a late sweep never shows a stale collaborator.
func ReapExpiredSessions(db *gorm.DB, timeout time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-timeout)
	var reaped int64

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CollaborationSession{}).
			Where("active = ? AND last_activity_at < ?", true, cutoff).
			Update("active", false)
		if result.Error != nil {
			return result.Error
		}
		reaped = result.RowsAffected

		return tx.Model(&models.DocumentCollaborator{}).
			Where("online = ? AND last_seen_at < ?", true, cutoff).
			Update("online", false).Error
	})

	return reaped, err
}

// touchActivity refreshes the activity timestamps for a user on a document
// inside an existing transaction. Best effort: rows may not exist when the
// user edits without an open session.
func touchActivity(tx *gorm.DB, userID string, documentID uint64, now time.Time) error {
	if err := tx.Model(&models.CollaborationSession{}).
		Where("document_id = ? AND user_id = ? AND active = ?", documentID, userID, true).
		Update("last_activity_at", now).Error; err != nil {
		return err
	}
	return tx.Model(&models.DocumentCollaborator{}).
		Where("document_id = ? AND user_id = ? AND online = ?", documentID, userID, true).
		Update("last_seen_at", now).Error
}
