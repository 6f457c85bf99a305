package services

import (
	"errors"
	"time"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/notify"
	"github.com/lexportal/collabsync/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CommentInput carries a new comment. ParentID, when set, must reference an
// active comment on the same document.
type CommentInput struct {
	Content  string
	Position int64
	ParentID *uint64
}

// commentNotice is the notification payload fanned out when a comment lands.
type commentNotice struct {
	DocumentID  uint64  `json:"documentId"`
	CommentID   uint64  `json:"commentId"`
	ParentID    *uint64 `json:"parentId,omitempty"`
	AuthorID    string  `json:"authorId"`
	AuthorName  string  `json:"authorName"`
	Position    int64   `json:"position"`
	ContentText string  `json:"content"`
}

// AddComment persists a comment and hands the fan-out to the notification
// dispatcher. Recipients are the other users holding an active session on
// the document; the author is excluded. A dispatch problem never fails the
// comment: the dispatcher logs and swallows delivery errors.
func AddComment(db *gorm.DB, dispatcher *notify.Dispatcher, user types.AuthUser, documentID uint64, in CommentInput) (*models.Comment, error) {
	comment := models.Comment{
		DocumentID: documentID,
		UserID:     user.ID,
		Content:    in.Content,
		Position:   in.Position,
		ParentID:   in.ParentID,
		Status:     models.CommentActive,
	}
	var recipients []string

	err := db.Transaction(func(tx *gorm.DB) error {
		if in.ParentID != nil {
			var parent models.Comment
			err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
				Where("comment_id = ? AND document_id = ?", *in.ParentID, documentID).
				First(&parent).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.ErrInvalidParent
				}
				return err
			}
			if parent.Status != models.CommentActive {
				return types.ErrInvalidParent
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.CollaborationSession{}).
			Where("document_id = ? AND active = ? AND user_id <> ?", documentID, true, user.ID).
			Pluck("user_id", &recipients).Error
	})
	if err != nil {
		return nil, err
	}

	dispatcher.Enqueue(recipients, models.NotifyCommentAdded, commentNotice{
		DocumentID:  documentID,
		CommentID:   comment.CommentID,
		ParentID:    comment.ParentID,
		AuthorID:    user.ID,
		AuthorName:  user.DisplayName,
		Position:    comment.Position,
		ContentText: comment.Content,
	})

	return &comment, nil
}

// ListComments returns the active comments of a document in creation order,
// ties broken by insertion id so the ordering is stable.
func ListComments(db *gorm.DB, documentID uint64) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("document_id = ? AND status = ?", documentID, models.CommentActive).
		Order("created_at ASC, comment_id ASC").
		Find(&comments).Error
	return comments, err
}

// ResolveComment transitions an active comment to resolved.
func ResolveComment(db *gorm.DB, user types.AuthUser, documentID, commentID uint64) (*models.Comment, error) {
	return transitionComment(db, documentID, commentID, models.CommentResolved, func(c *models.Comment) error {
		return nil
	})
}

// DeleteComment transitions a comment to deleted. Only the author (or a
// workspace owner, checked by the caller) removes a comment; the row itself
// stays so replies keep their parent.
func DeleteComment(db *gorm.DB, user types.AuthUser, membership *models.WorkspaceMembership, documentID, commentID uint64) (*models.Comment, error) {
	return transitionComment(db, documentID, commentID, models.CommentDeleted, func(c *models.Comment) error {
		if c.UserID != user.ID && membership.Role != models.RoleOwner {
			return types.ErrPermissionDenied
		}
		return nil
	})
}

// transitionComment applies a status transition under the usual guards:
// the comment must exist on the document and not already be deleted.
func transitionComment(db *gorm.DB, documentID, commentID uint64, status string, check func(*models.Comment) error) (*models.Comment, error) {
	var comment models.Comment

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Where("comment_id = ? AND document_id = ?", commentID, documentID).
			First(&comment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		if comment.Status == models.CommentDeleted {
			return types.ErrNotFound
		}
		if err := check(&comment); err != nil {
			return err
		}
		if comment.Status == status {
			return nil // already there; transition is idempotent
		}

		comment.Status = status
		comment.UpdatedAt = time.Now().UTC()
		return tx.Model(&models.Comment{}).
			Where("comment_id = ?", commentID).
			Updates(map[string]interface{}{"status": status, "updated_at": comment.UpdatedAt}).Error
	})
	if err != nil {
		return nil, err
	}

	return &comment, nil
}
