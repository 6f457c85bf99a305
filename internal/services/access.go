package services

import (
	"errors"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// VerifyMembership resolves a document's owning workspace and checks that
// the user holds an active membership there. Every collaboration operation
// calls this first and propagates its failure unchanged.
//
// Returns types.ErrNotFound when the document or the membership row is
// absent, and types.ErrPermissionDenied when the membership exists but is
// inactive.
func VerifyMembership(db *gorm.DB, userID string, documentID uint64) (*models.WorkspaceMembership, *models.CollaborativeDocument, error) {
	var doc models.CollaborativeDocument
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("document_id = ?", documentID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, types.ErrNotFound
		}
		return nil, nil, err
	}

	var membership models.WorkspaceMembership
	err = db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("workspace_id = ? AND user_id = ?", doc.WorkspaceID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, types.ErrNotFound
		}
		return nil, nil, err
	}

	if !membership.Active {
		return nil, nil, types.ErrPermissionDenied
	}

	return &membership, &doc, nil
}
