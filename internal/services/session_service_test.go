package services_test

import (
	"testing"
	"time"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const presenceTimeout = 5 * time.Minute

// addMember provisions an extra active membership on the document's workspace
func addMember(t *testing.T, db *gorm.DB, docID uint64, userID, role string) {
	t.Helper()
	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)
	require.NoError(t, db.Create(&models.WorkspaceMembership{
		WorkspaceID: doc.WorkspaceID,
		UserID:      userID,
		Role:        role,
		Active:      true,
	}).Error)
}

func TestJoinReturnsSnapshotAndToken(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 7)

	result, err := services.Join(db, user, docID, presenceTimeout)
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionToken)
	assert.Equal(t, docID, result.Document.DocumentID)
	assert.Equal(t, "7", result.Document.Version)
	assert.Empty(t, result.ActiveCollaborators, "joining alone should see nobody else")
}

func TestJoinIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 0)

	first, err := services.Join(db, user, docID, presenceTimeout)
	require.NoError(t, err)
	second, err := services.Join(db, user, docID, presenceTimeout)
	require.NoError(t, err)

	// Re-join rotates the token but never duplicates the session row
	assert.NotEqual(t, first.SessionToken, second.SessionToken)

	var count int64
	require.NoError(t, db.Model(&models.CollaborationSession{}).
		Where("document_id = ? AND user_id = ?", docID, user.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestJoinRequiresMembership(t *testing.T) {
	db := setupTestDB(t)
	owner := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, owner.ID, 0)

	outsider := editor("00000000-0000-0000-0000-000000000002")
	_, err := services.Join(db, outsider, docID, presenceTimeout)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestJoinRejectsInactiveMembership(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 0)

	require.NoError(t, db.Model(&models.WorkspaceMembership{}).
		Where("user_id = ?", user.ID).
		Update("active", false).Error)

	_, err := services.Join(db, user, docID, presenceTimeout)
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
}

func TestCollaboratorsSeeEachOtherButNotThemselves(t *testing.T) {
	db := setupTestDB(t)
	alice := editor("00000000-0000-0000-0000-00000000000a")
	bob := editor("00000000-0000-0000-0000-00000000000b")
	docID := seedDocument(t, db, alice.ID, 0)
	addMember(t, db, docID, bob.ID, models.RoleViewer)

	_, err := services.Join(db, alice, docID, presenceTimeout)
	require.NoError(t, err)

	result, err := services.Join(db, bob, docID, presenceTimeout)
	require.NoError(t, err)
	require.Len(t, result.ActiveCollaborators, 1)
	assert.Equal(t, alice.ID, result.ActiveCollaborators[0].UserID)

	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)

	views, err := services.ActiveCollaborators(db, &doc, alice.ID, presenceTimeout)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, bob.ID, views[0].UserID)
}

func TestLeaveHidesCollaboratorAndRejoinRestores(t *testing.T) {
	db := setupTestDB(t)
	alice := editor("00000000-0000-0000-0000-00000000000a")
	bob := editor("00000000-0000-0000-0000-00000000000b")
	docID := seedDocument(t, db, alice.ID, 0)
	addMember(t, db, docID, bob.ID, models.RoleViewer)

	_, err := services.Join(db, alice, docID, presenceTimeout)
	require.NoError(t, err)
	_, err = services.Join(db, bob, docID, presenceTimeout)
	require.NoError(t, err)

	require.NoError(t, services.Leave(db, bob.ID, docID))
	// Second leave is a no-op
	require.NoError(t, services.Leave(db, bob.ID, docID))

	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)

	views, err := services.ActiveCollaborators(db, &doc, alice.ID, presenceTimeout)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = services.Join(db, bob, docID, presenceTimeout)
	require.NoError(t, err)

	views, err = services.ActiveCollaborators(db, &doc, alice.ID, presenceTimeout)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, bob.ID, views[0].UserID)
}

func TestCursorUpdateVisibleToOthers(t *testing.T) {
	db := setupTestDB(t)
	alice := editor("00000000-0000-0000-0000-00000000000a")
	bob := editor("00000000-0000-0000-0000-00000000000b")
	docID := seedDocument(t, db, alice.ID, 0)
	addMember(t, db, docID, bob.ID, models.RoleEditor)

	_, err := services.Join(db, alice, docID, presenceTimeout)
	require.NoError(t, err)
	_, err = services.Join(db, bob, docID, presenceTimeout)
	require.NoError(t, err)

	require.NoError(t, services.UpdateCursor(db, bob.ID, docID, 42))

	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)

	views, err := services.ActiveCollaborators(db, &doc, alice.ID, presenceTimeout)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(42), views[0].CursorPosition)
}

func TestExpiredPresenceHiddenBeforeReap(t *testing.T) {
	db := setupTestDB(t)
	alice := editor("00000000-0000-0000-0000-00000000000a")
	bob := editor("00000000-0000-0000-0000-00000000000b")
	docID := seedDocument(t, db, alice.ID, 0)
	addMember(t, db, docID, bob.ID, models.RoleViewer)

	_, err := services.Join(db, alice, docID, presenceTimeout)
	require.NoError(t, err)
	_, err = services.Join(db, bob, docID, presenceTimeout)
	require.NoError(t, err)

	// Age bob's presence past the timeout
	stale := time.Now().UTC().Add(-presenceTimeout - time.Minute)
	require.NoError(t, db.Model(&models.DocumentCollaborator{}).
		Where("document_id = ? AND user_id = ?", docID, bob.ID).
		Update("last_seen_at", stale).Error)
	require.NoError(t, db.Model(&models.CollaborationSession{}).
		Where("document_id = ? AND user_id = ?", docID, bob.ID).
		Update("last_activity_at", stale).Error)

	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)

	// Reads apply the cutoff before any sweep runs
	views, err := services.ActiveCollaborators(db, &doc, alice.ID, presenceTimeout)
	require.NoError(t, err)
	assert.Empty(t, views)

	// The sweep persists the offline state
	reaped, err := services.ReapExpiredSessions(db, presenceTimeout)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reaped)

	var session models.CollaborationSession
	require.NoError(t, db.First(&session, "document_id = ? AND user_id = ?", docID, bob.ID).Error)
	assert.False(t, session.Active)

	// Repeat sweep finds nothing
	reaped, err = services.ReapExpiredSessions(db, presenceTimeout)
	require.NoError(t, err)
	assert.Zero(t, reaped)
}
