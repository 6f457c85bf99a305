package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lexportal/collabsync/internal/services"
	"github.com/lexportal/collabsync/internal/utils"
	"gorm.io/gorm"
)

// NotificationHandler handles the caller's notification inbox
type NotificationHandler struct {
	DB *gorm.DB
}

// List handles GET /api/notifications
// @Summary List the caller's notifications
// @Description Notifications newest first; pass ?unread=true for the unread subset
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Success 200 {array} models.Notification
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	unreadOnly := c.QueryBool("unread", false)

	rows, err := services.ListNotifications(h.DB, user.ID, unreadOnly)
	if err != nil {
		return serviceErrorResponse(c, err, "collab.notifications.list")
	}

	return utils.SuccessResponse(c, rows, fiber.StatusOK)
}

// MarkRead handles POST /api/notifications/:notification/read
// @Summary Mark a notification as read
// @Description Flip the read flag on one of the caller's notifications; repeat calls are no-ops
// @Tags Notifications
// @Produce json
// @Param notification path int true "Notification ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /notifications/{notification}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	user, err := getAuthUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "collab.authorization.user")
	}

	notificationID, err := parseID(c, "notification")
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "collab.validation.input")
	}

	if err := services.MarkNotificationRead(h.DB, user.ID, notificationID); err != nil {
		return serviceErrorResponse(c, err, "collab.notifications.read")
	}

	return utils.SuccessResponse(c, fiber.Map{"ok": true}, fiber.StatusOK)
}
