package services_test

import (
	"testing"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database with all models migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	err = db.AutoMigrate(
		&models.Workspace{},
		&models.WorkspaceMembership{},
		&models.CollaborativeDocument{},
		&models.CollaborationSession{},
		&models.DocumentCollaborator{},
		&models.EditLogEntry{},
		&models.Comment{},
		&models.Notification{},
	)
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

// seedDocument creates a workspace, an editor membership for userID and a
// document at the given version. Returns the document id.
func seedDocument(t *testing.T, db *gorm.DB, userID string, version uint64) uint64 {
	t.Helper()
	ws := models.Workspace{Name: "ws-" + t.Name()}
	require.NoError(t, db.Create(&ws).Error)

	m := models.WorkspaceMembership{
		WorkspaceID: ws.WorkspaceID,
		UserID:      userID,
		Role:        models.RoleEditor,
		Active:      true,
	}
	require.NoError(t, db.Create(&m).Error)

	doc := models.CollaborativeDocument{
		WorkspaceID:     ws.WorkspaceID,
		Title:           "Test Document",
		Content:         models.NewJSON([]byte(`{"text":"initial"}`)),
		DocumentVersion: version,
	}
	require.NoError(t, db.Create(&doc).Error)
	return doc.DocumentID
}

func editor(id string) types.AuthUser {
	return types.AuthUser{ID: id, Email: id + "@example.com", DisplayName: id}
}

func TestApplyEditBumpsVersionByOne(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 3)

	result, err := services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 3,
		Content: models.NewJSON([]byte(`{"text":"updated"}`)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), result.NewVersion)

	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)
	assert.Equal(t, uint64(4), doc.DocumentVersion)
	assert.JSONEq(t, `{"text":"updated"}`, string(doc.Content.JSON))
}

func TestApplyEditStaleVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 3)

	// First writer wins at version 3
	_, err := services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 3,
		Content: models.NewJSON([]byte(`{"text":"first"}`)),
	})
	require.NoError(t, err)

	// Second writer still holds version 3 and must be rejected with the
	// authoritative current version
	_, err = services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 3,
		Content: models.NewJSON([]byte(`{"text":"second"}`)),
	})
	require.Error(t, err)

	conflict, ok := types.IsConflict(err)
	require.True(t, ok, "expected a version conflict, got %v", err)
	assert.Equal(t, uint64(4), conflict.Expected)

	// The losing edit must not change content or version
	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)
	assert.Equal(t, uint64(4), doc.DocumentVersion)
	assert.JSONEq(t, `{"text":"first"}`, string(doc.Content.JSON))
}

func TestApplyEditAppendsToEditLog(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 0)

	for i := uint64(0); i < 3; i++ {
		_, err := services.ApplyEdit(db, user, docID, services.EditInput{
			Version:       i,
			Operation:     models.NewJSON([]byte(`{"op":"replace"}`)),
			PositionStart: int64(i),
			PositionEnd:   int64(i) + 5,
			Content:       models.NewJSON([]byte(`{"text":"rev"}`)),
		})
		require.NoError(t, err)
	}

	entries, err := services.EditLog(db, docID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i, entry := range entries {
		assert.Equal(t, uint64(i), entry.VersionBefore)
		assert.Equal(t, uint64(i+1), entry.VersionAfter)
		assert.Equal(t, user.ID, entry.UserID)
	}
}

func TestApplyEditRejectedWhileLocked(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 0)

	holder := "00000000-0000-0000-0000-000000000099"
	require.NoError(t, services.SetLockHolder(db, docID, &holder))

	_, err := services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 0,
		Content: models.NewJSON([]byte(`{"text":"blocked"}`)),
	})
	assert.ErrorIs(t, err, types.ErrDocumentLocked)

	// The lock holder edits normally
	_, err = services.ApplyEdit(db, editor(holder), docID, services.EditInput{
		Version: 0,
		Content: models.NewJSON([]byte(`{"text":"by holder"}`)),
	})
	require.NoError(t, err)

	// Clearing the lock reopens the document
	require.NoError(t, services.SetLockHolder(db, docID, nil))
	_, err = services.ApplyEdit(db, user, docID, services.EditInput{
		Version: 1,
		Content: models.NewJSON([]byte(`{"text":"unblocked"}`)),
	})
	require.NoError(t, err)
}

func TestApplyEditMissingDocument(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")

	_, err := services.ApplyEdit(db, user, 9999, services.EditInput{
		Version: 0,
		Content: models.NewJSON([]byte(`{}`)),
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
