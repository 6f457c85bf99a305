package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lexportal/collabsync/internal/notify"
	"github.com/lexportal/collabsync/internal/realtime"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/utils"
	"gorm.io/gorm"
)

// CommentHandler handles comment thread routes
type CommentHandler struct {
	DB       *gorm.DB
	Notifier *notify.Dispatcher
	Realtime realtime.Publisher
}

// Add handles POST /api/collab/:document/comments
// @Summary Add a comment
// @Description Persist a threaded comment and fan a notification out to the other active collaborators
// @Tags Comments
// @Accept json
// @Produce json
// @Param document path int true "Document ID"
// @Param body body object true "Comment content, position and optional parentId"
// @Success 201 {object} models.Comment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/comments [post]
func (h *CommentHandler) Add(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	var body struct {
		Content  string  `json:"content"`
		Position int64   `json:"position"`
		ParentID *uint64 `json:"parentId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}
	if strings.TrimSpace(body.Content) == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "collab.validation.input")
	}

	if _, _, err := services.VerifyMembership(h.DB, user.ID, documentID); err != nil {
		return serviceErrorResponse(c, err, "collab.comment.add")
	}

	comment, err := services.AddComment(h.DB, h.Notifier, *user, documentID, services.CommentInput{
		Content:  body.Content,
		Position: body.Position,
		ParentID: body.ParentID,
	})
	if err != nil {
		return serviceErrorResponse(c, err, "collab.comment.add")
	}

	_ = h.Realtime.Publish(c.Context(), realtime.NewEvent(
		realtime.EventCommentAdded, documentID, user.ID, comment))

	return utils.SuccessResponse(c, comment, fiber.StatusCreated)
}

// List handles GET /api/collab/:document/comments
// @Summary List active comments
// @Description Active comments in creation order, ties broken by insertion id
// @Tags Comments
// @Produce json
// @Param document path int true "Document ID"
// @Success 200 {array} models.Comment
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/comments [get]
func (h *CommentHandler) List(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	if _, _, err := services.VerifyMembership(h.DB, user.ID, documentID); err != nil {
		return serviceErrorResponse(c, err, "collab.comment.list")
	}

	comments, err := services.ListComments(h.DB, documentID)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.comment.list")
	}

	return utils.SuccessResponse(c, comments, fiber.StatusOK)
}

// Resolve handles POST /api/collab/:document/comments/:comment/resolve
// @Summary Resolve a comment
// @Description Transition an active comment to resolved; the row is never removed
// @Tags Comments
// @Produce json
// @Param document path int true "Document ID"
// @Param comment path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/comments/{comment}/resolve [post]
func (h *CommentHandler) Resolve(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}
	commentID, err := parseID(c, "comment")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	if _, _, err := services.VerifyMembership(h.DB, user.ID, documentID); err != nil {
		return serviceErrorResponse(c, err, "collab.comment.resolve")
	}

	comment, err := services.ResolveComment(h.DB, *user, documentID, commentID)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.comment.resolve")
	}

	_ = h.Realtime.Publish(c.Context(), realtime.NewEvent(
		realtime.EventCommentUpdated, documentID, user.ID, comment))

	return utils.SuccessResponse(c, comment, fiber.StatusOK)
}

// Delete handles DELETE /api/collab/:document/comments/:comment
// @Summary Delete a comment
// @Description Transition a comment to deleted; replies keep their parent reference
// @Tags Comments
// @Produce json
// @Param document path int true "Document ID"
// @Param comment path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /collab/{document}/comments/{comment} [delete]
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	documentID, err := parseID(c, "document")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}
	commentID, err := parseID(c, "comment")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	membership, _, err := services.VerifyMembership(h.DB, user.ID, documentID)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.comment.delete")
	}

	comment, err := services.DeleteComment(h.DB, *user, membership, documentID, commentID)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.comment.delete")
	}

	_ = h.Realtime.Publish(c.Context(), realtime.NewEvent(
		realtime.EventCommentUpdated, documentID, user.ID, comment))

	return utils.SuccessResponse(c, comment, fiber.StatusOK)
}
