// collab.go
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

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/realtime"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/lexportal/collabsync/internal/utils"
	"gorm.io/gorm"
)

// CollabHandler handles session, presence and edit routes
type CollabHandler struct {
	DB             *gorm.DB
	Realtime       realtime.Publisher
	SessionTimeout time.Duration
}

// Join handles POST /api/collab/:document/join
// @Summary Join a document collaboration session
// @Description Activate a session and presence row and return the document snapshot plus the other online collaborators
// @Tags Collaboration
// @Accept json
// @Produce json
// @Param document path int true "Document ID"
// @Success 200 {object} services.JoinResult
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/join [post]
func (h *CollabHandler) Join(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	result, err := services.Join(h.DB, *user, documentID, h.SessionTimeout)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.join")
	}

	// Hand the state change to the external transport; delivery problems
	// are logged by the publisher and never fail the join.
	_ = h.Realtime.Publish(c.Context(), realtime.NewEvent(
		realtime.EventCollaboratorJoined, documentID, user.ID, fiber.Map{
			"displayName": user.DisplayName,
		}))

	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// Leave handles POST /api/collab/:document/leave
// @Summary Leave a document collaboration session
// @Description Deactivate the caller's session and presence rows; repeat calls are no-ops
// @Tags Collaboration
// @Accept json
// @Produce json
// @Param document path int true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/leave [post]
func (h *CollabHandler) Leave(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	if _, _, err := services.VerifyMembership(h.DB, user.ID, documentID); err != nil {
		return serviceErrorResponse(c, err, "collab.leave")
	}

	if err := services.Leave(h.DB, user.ID, documentID); err != nil {
		return serviceErrorResponse(c, err, "collab.leave")
	}

	_ = h.Realtime.Publish(c.Context(), realtime.NewEvent(
		realtime.EventCollaboratorLeft, documentID, user.ID, nil))

	return utils.SuccessResponse(c, fiber.Map{"ok": true}, fiber.StatusOK)
}

// Cursor handles POST /api/collab/:document/cursor
// @Summary Update the caller's cursor position
// @Description Last-write-wins cursor and activity refresh on the caller's session and presence rows
// @Tags Collaboration
// @Accept json
// @Produce json
// @Param document path int true "Document ID"
// @Param body body object true "Cursor position"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/cursor [post]
func (h *CollabHandler) Cursor(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	var body struct {
		Position int64 `json:"position"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}

	if _, _, err := services.VerifyMembership(h.DB, user.ID, documentID); err != nil {
		return serviceErrorResponse(c, err, "collab.cursor")
	}

	if err := services.UpdateCursor(h.DB, user.ID, documentID, body.Position); err != nil {
		return serviceErrorResponse(c, err, "collab.cursor")
	}

	return utils.SuccessResponse(c, fiber.Map{"ok": true}, fiber.StatusOK)
}

// Collaborators handles GET /api/collab/:document/collaborators
// @Summary List online collaborators
// @Description Other collaborators with an online, non-expired presence row on the document
// @Tags Collaboration
// @Produce json
// @Param document path int true "Document ID"
// @Success 200 {array} services.CollaboratorView
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/collaborators [get]
func (h *CollabHandler) Collaborators(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	_, doc, err := services.VerifyMembership(h.DB, user.ID, documentID)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.collaborators")
	}

	views, err := services.ActiveCollaborators(h.DB, doc, user.ID, h.SessionTimeout)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.collaborators")
	}

	return utils.SuccessResponse(c, views, fiber.StatusOK)
}

// Edit handles POST /api/collab/:document/edit
// @Summary Apply a version-checked whole-document edit
// @Description Replace the document content under optimistic version control and append to the edit log
// @Tags Collaboration
// @Accept json
// @Produce json
// @Param document path int true "Document ID"
// @Param body body object true "Edit payload with version, operation, position range and content"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 423 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/edit [post]
func (h *CollabHandler) Edit(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	var body struct {
		Version   types.FlexUint64 `json:"version"`
		Operation models.JSON      `json:"operation"`
		Position  struct {
			Start int64 `json:"start"`
			End   int64 `json:"end"`
		} `json:"position"`
		Content models.JSON `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}
	if len(body.Content.JSON) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}

	membership, _, err := services.VerifyMembership(h.DB, user.ID, documentID)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.edit")
	}
	if !membership.CanEdit() {
		return utils.ErrorResponse(c, "Permission denied", fiber.StatusForbidden, "collab.edit")
	}

	result, err := services.ApplyEdit(h.DB, *user, documentID, services.EditInput{
		Version:       body.Version.Uint64(),
		Operation:     body.Operation,
		PositionStart: body.Position.Start,
		PositionEnd:   body.Position.End,
		Content:       body.Content,
	})
	if err != nil {
		return serviceErrorResponse(c, err, "collab.edit")
	}

	_ = h.Realtime.Publish(c.Context(), realtime.NewEvent(
		realtime.EventDocumentEdited, documentID, user.ID, fiber.Map{
			"newVersion": result.NewVersion,
			"content":    body.Content,
		}))

	return utils.MutationSuccessResponse(c, result.EditID, result.NewVersion)
}
