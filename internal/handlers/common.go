package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/lexportal/collabsync/internal/utils"
)

// getAuthUser extracts the verified identity from context (set by auth middleware)
func getAuthUser(c *fiber.Ctx) (*types.AuthUser, error) {
	user, ok := c.Locals("user").(*types.AuthUser)
	if !ok || user == nil || user.ID == "" {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// parseID parses a numeric path parameter
func parseID(c *fiber.Ctx, param string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id", param)
	}
	return id, nil
}

// serviceErrorResponse maps a service error to the response envelope.
// Terminal errors surface directly; a version conflict carries the
// authoritative current version.
func serviceErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	if conflict, ok := types.IsConflict(err); ok {
		return utils.ConflictResponse(c, conflict.Expected)
	}

	switch {
	case errors.Is(err, types.ErrNotFound):
		return utils.NotFoundResponse(c, "Resource not found")
	case errors.Is(err, types.ErrPermissionDenied):
		return utils.ErrorResponse(c, "Permission denied", fiber.StatusForbidden, errorType)
	case errors.Is(err, types.ErrUnauthenticated):
		return utils.ErrorResponse(c, "Unauthenticated", fiber.StatusUnauthorized, errorType)
	case errors.Is(err, types.ErrDocumentLocked):
		return utils.ErrorResponse(c, "Document is locked by another collaborator", fiber.StatusLocked, errorType)
	case errors.Is(err, types.ErrInvalidParent):
		return utils.ErrorResponse(c, "Parent comment not found or not active", fiber.StatusBadRequest, errorType)
	case errors.Is(err, types.ErrTransientStore):
		return utils.ErrorResponse(c, "Store temporarily unavailable, retry with backoff", fiber.StatusServiceUnavailable, errorType)
	}

	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}
