package services

import (
	"errors"

	"github.com/lexportal/collabsync/internal/models"
	"github.com/lexportal/collabsync/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ListNotifications returns the caller's notifications, newest first.
// Unread only when unreadOnly is set.
func ListNotifications(db *gorm.DB, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var rows []models.Notification
	err := query.Order("notification_id DESC").Find(&rows).Error
	return rows, err
}

// MarkNotificationRead flips the read flag on one of the caller's
// notifications. Rows are otherwise append-only.
func MarkNotificationRead(db *gorm.DB, userID string, notificationID uint64) error {
	result := db.Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var row models.Notification
		err := db.Where("notification_id = ? AND user_id = ?", notificationID, userID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		// Already read; idempotent.
	}
	return nil
}
