package services

import (
	"errors"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/types"
	"gorm.io/gorm"
)

// MemberInput is one membership row to provision on a workspace.
type MemberInput struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Active *bool  `json:"active,omitempty"`
}

// CreateWorkspace provisions a workspace container.
func CreateWorkspace(db *gorm.DB, name string) (*models.Workspace, error) {
	ws := models.Workspace{Name: name}
	if err := db.Where("name = ?", name).FirstOrCreate(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// UpsertMemberships provisions membership rows on a workspace. Existing
// (workspace,user) rows are updated in place; role defaults to viewer.
func UpsertMemberships(db *gorm.DB, workspaceID uint64, members []MemberInput) (int64, error) {
	var ws models.Workspace
	if err := db.Where("workspace_id = ?", workspaceID).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, types.ErrNotFound
		}
		return 0, err
	}

	var affected int64
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, m := range members {
			role := m.Role
			if role == "" {
				role = models.RoleViewer
			}
			active := true
			if m.Active != nil {
				active = *m.Active
			}

			row := models.WorkspaceMembership{WorkspaceID: workspaceID, UserID: m.UserID}
			if err := tx.Where("workspace_id = ? AND user_id = ?", workspaceID, m.UserID).
				Assign(map[string]interface{}{"role": role, "active": active}).
				FirstOrCreate(&row).Error; err != nil {
				return err
			}
			affected++
		}
		return nil
	})

	return affected, err
}

// CreateDocument creates an empty versioned document in a workspace.
func CreateDocument(db *gorm.DB, workspaceID uint64, title string, content models.JSON) (*models.CollaborativeDocument, error) {
	var ws models.Workspace
	if err := db.Where("workspace_id = ?", workspaceID).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}

	doc := models.CollaborativeDocument{
		WorkspaceID: workspaceID,
		Title:       title,
		Content:     content,
	}
	if err := db.Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// SetLockHolder grants or clears exclusive edit rights on a document. This
// is the administrative capability backing the inline lock check in
// ApplyEdit; clients have no acquire/release operation.
func SetLockHolder(db *gorm.DB, documentID uint64, holder *string) error {
	result := db.Model(&models.CollaborativeDocument{}).
		Where("document_id = ?", documentID).
		Update("lock_holder", holder)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL counts changed rows, not matched rows, so re-sending the
		// current lock state lands here. Distinguish it from a missing row.
		var doc models.CollaborativeDocument
		err := db.Where("document_id = ?", documentID).First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}
		// Lock state already matches; idempotent.
	}
	return nil
}
