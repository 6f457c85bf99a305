// admin.go
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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/lexportal/collabsync/internal/utils"
	"gorm.io/gorm"
)

// AdminHandler handles workspace and document provisioning routes.
// All routes behind it require the admin role.
type AdminHandler struct {
	DB *gorm.DB
}

// CreateWorkspace handles POST /api/admin/workspaces
// @Summary Create a workspace
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body object true "Workspace name"
// @Success 201 {object} models.Workspace
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /admin/workspaces [post]
func (h *AdminHandler) CreateWorkspace(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}
	if strings.TrimSpace(body.Name) == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}

	ws, err := services.CreateWorkspace(h.DB, body.Name)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.admin.workspace")
	}

	return utils.SuccessResponse(c, ws, fiber.StatusCreated)
}

// UpsertMembers handles PUT /api/admin/workspaces/:workspace/members
// @Summary Provision workspace memberships
// @Description Upsert membership rows for a workspace; role defaults to viewer
// @Tags Admin
// @Accept json
// @Produce json
// @Param workspace path int true "Workspace ID"
// @Param body body object true "Membership rows"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/workspaces/{workspace}/members [put]
func (h *AdminHandler) UpsertMembers(c *fiber.Ctx) error {
	workspaceID, err := parseID(c, "workspace")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	var body struct {
		Members types.FlexList[services.MemberInput] `json:"members"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}
	if len(body.Members) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}
	for _, m := range body.Members {
		switch m.Role {
		case "", models.RoleOwner, models.RoleEditor, models.RoleViewer:
		default:
			return utils.ErrorResponse(c, "Invalid role: "+m.Role, fiber.StatusBadRequest, "collab.validation.input")
		}
	}

	affected, err := services.UpsertMemberships(h.DB, workspaceID, body.Members)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.admin.members")
	}

	return utils.SuccessResponse(c, fiber.Map{"ok": true, "affectedRows": affected}, fiber.StatusOK)
}

// CreateDocument handles POST /api/admin/documents
// @Summary Create a collaborative document
// @Description Create an empty versioned document in a workspace
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body object true "Workspace id, title and initial content"
// @Success 201 {object} models.CollaborativeDocument
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/documents [post]
func (h *AdminHandler) CreateDocument(c *fiber.Ctx) error {
	var body struct {
		WorkspaceID types.FlexUint64 `json:"workspaceId"`
		Title       string           `json:"title"`
		Content     models.JSON      `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}
	if body.WorkspaceID.Uint64() == 0 || strings.TrimSpace(body.Title) == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}

	doc, err := services.CreateDocument(h.DB, body.WorkspaceID.Uint64(), body.Title, body.Content)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.admin.document")
	}

	return utils.SuccessResponse(c, doc, fiber.StatusCreated)
}

// SetLock handles PUT /api/admin/documents/:document/lock
// @Summary Grant or clear exclusive edit rights on a document
// @Description While a holder is set, edits by anyone else are rejected; pass a null holder to clear
// @Tags Admin
// @Accept json
// @Produce json
// @Param document path int true "Document ID"
// @Param body body object true "Lock holder user id, or null to clear"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/documents/{document}/lock [put]
func (h *AdminHandler) SetLock(c *fiber.Ctx) error {
	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	var body struct {
		Holder *string `json:"holder"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}
	if body.Holder != nil && strings.TrimSpace(*body.Holder) == "" {
		body.Holder = nil
	}

	if err := services.SetLockHolder(h.DB, documentID, body.Holder); err != nil {
		return serviceErrorResponse(c, err, "collab.admin.lock")
	}

	return utils.SuccessResponse(c, fiber.Map{"ok": true}, fiber.StatusOK)
}
