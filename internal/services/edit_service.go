// edit_service.go
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

package services

import (
	"errors"
	"time"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// EditInput carries one whole-document edit. Operation is an opaque client
// payload recorded in the edit log; Content replaces the document wholesale
// once the version check passes. There is no field-level merge.
type EditInput struct {
	Version       uint64
	Operation     models.JSON
	PositionStart int64
	PositionEnd   int64
	Content       models.JSON
}

// EditResult is the success payload of an edit operation.
type EditResult struct {
	EditID     uint64 `json:"editId"`
	NewVersion uint64 `json:"newVersion"`
}

// ApplyEdit applies a whole-document edit under optimistic version control.
//
// Precondition order: the document must exist, the lock holder (if any) must
// be the caller, and the submitted version must equal the stored version.
// The append of the EditLogEntry, the content replacement and the version
// bump are one atomic unit. The version bump is a conditional update
// ("WHERE document_version = ?"), so given two simultaneous calls with the
// same version exactly one succeeds and the other receives a ConflictError
// carrying the authoritative current version.
func ApplyEdit(db *gorm.DB, user types.AuthUser, documentID uint64, in EditInput) (*EditResult, error) {
	var result EditResult
	now := time.Now().UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		// Lock the document row for the duration of the check-and-bump.
		var doc models.CollaborativeDocument
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("document_id = ?", documentID).
			First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}

		if doc.LockHolder != nil && *doc.LockHolder != "" && *doc.LockHolder != user.ID {
			return types.ErrDocumentLocked
		}

		if doc.DocumentVersion != in.Version {
			return &types.ConflictError{Expected: doc.DocumentVersion}
		}

		entry := models.EditLogEntry{
			DocumentID:    documentID,
			UserID:        user.ID,
			Operation:     in.Operation,
			PositionStart: in.PositionStart,
			PositionEnd:   in.PositionEnd,
			VersionBefore: in.Version,
			VersionAfter:  in.Version + 1,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		res := tx.Model(&models.CollaborativeDocument{}).
			Where("document_id = ? AND document_version = ?", documentID, in.Version).
			Updates(map[string]interface{}{
				"content":          in.Content,
				"document_version": in.Version + 1,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The row lock should make this unreachable; report the
			// authoritative version anyway rather than guessing.
			var current models.CollaborativeDocument
			if err := tx.Where("document_id = ?", documentID).First(&current).Error; err != nil {
				return err
			}
			return &types.ConflictError{Expected: current.DocumentVersion}
		}

		if err := touchActivity(tx, user.ID, documentID, now); err != nil {
			return err
		}

		result = EditResult{EditID: entry.EditID, NewVersion: in.Version + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// EditLog returns the append-only edit history of a document, oldest first.
func EditLog(db *gorm.DB, documentID uint64) ([]models.EditLogEntry, error) {
	var entries []models.EditLogEntry
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("document_id = ?", documentID).
		Order("edit_id ASC").
		Find(&entries).Error
	return entries, err
}
