package services_test

import (
	"errors"
	"testing"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLockHolderSetAndClear(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 0)

	holder := user.ID
	require.NoError(t, services.SetLockHolder(db, docID, &holder))

	var doc models.CollaborativeDocument
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)
	require.NotNil(t, doc.LockHolder)
	assert.Equal(t, holder, *doc.LockHolder)

	require.NoError(t, services.SetLockHolder(db, docID, nil))
	require.NoError(t, db.First(&doc, "document_id = ?", docID).Error)
	assert.Nil(t, doc.LockHolder)
}

func TestSetLockHolderIdempotentResend(t *testing.T) {
	db := setupTestDB(t)
	user := editor("00000000-0000-0000-0000-000000000001")
	docID := seedDocument(t, db, user.ID, 0)

	// Re-sending the same state must succeed even when the database
	// reports zero changed rows for a no-op update
	holder := user.ID
	require.NoError(t, services.SetLockHolder(db, docID, &holder))
	require.NoError(t, services.SetLockHolder(db, docID, &holder))

	require.NoError(t, services.SetLockHolder(db, docID, nil))
	require.NoError(t, services.SetLockHolder(db, docID, nil))
}

func TestSetLockHolderMissingDocument(t *testing.T) {
	db := setupTestDB(t)

	err := services.SetLockHolder(db, 999, nil)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}
