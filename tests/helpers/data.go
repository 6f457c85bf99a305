// data.go
//
// Collaboration coordination service for the lexportal legal information portal
// Copyright (c) 2026 LexPortal <dev@lexportal.io> (https://www.lexportal.io)
//
// This file is part of collabsync.
// collabsync is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// collabsync is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with collabsync.
// If not, see <https://www.gnu.org/licenses/>.

package helpers

import (
	"encoding/json"
	"testing"

	"github.com/lexportal/collabsync/internal/models"
	"gorm.io/gorm"
)

// CreateTestWorkspace creates a workspace and returns its id
func CreateTestWorkspace(t *testing.T, db *gorm.DB, name string) uint64 {
	t.Helper()
	ws := models.Workspace{Name: name}
	if err := db.Create(&ws).Error; err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}
	return ws.WorkspaceID
}

// CreateTestMembership provisions an active membership row
func CreateTestMembership(t *testing.T, db *gorm.DB, workspaceID uint64, userID, role string) {
	t.Helper()
	m := models.WorkspaceMembership{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		Active:      true,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("Failed to create membership: %v", err)
	}
}

// CreateTestDocument creates a versioned document and returns its id
func CreateTestDocument(t *testing.T, db *gorm.DB, workspaceID uint64, title string, content interface{}, version uint64) uint64 {
	t.Helper()
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("Failed to marshal document content: %v", err)
	}
	doc := models.CollaborativeDocument{
		WorkspaceID:     workspaceID,
		Title:           title,
		Content:         models.NewJSON(raw),
		DocumentVersion: version,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	return doc.DocumentID
}

// CreateTestComment creates an active comment and returns its id
func CreateTestComment(t *testing.T, db *gorm.DB, documentID uint64, userID, content string, parentID *uint64) uint64 {
	t.Helper()
	comment := models.Comment{
		DocumentID: documentID,
		UserID:     userID,
		Content:    content,
		ParentID:   parentID,
		Status:     models.CommentActive,
	}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return comment.CommentID
}
