package utils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// ConflictResponse sends a version conflict error (409) carrying the
// authoritative current version so the caller can rebase and resubmit.
func ConflictResponse(c *fiber.Ctx, expectedVersion uint64) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":          fiber.StatusConflict,
		"message":         "E_VERSION - Refresh and reconcile with current version and retry.",
		"ok":              false,
		"versionError":    true,
		"expectedVersion": fmt.Sprintf("%d", expectedVersion),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"url":             c.OriginalURL(),
		"type":            "version",
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// MutationSuccessResponse sends a success response for mutations that bump
// a document version, echoing the appended edit log id and the new
// authoritative version
func MutationSuccessResponse(c *fiber.Ctx, editID uint64, newVersion uint64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    "Success",
		"ok":         true,
		"editId":     editID,
		"newVersion": fmt.Sprintf("%d", newVersion),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status          int    `json:"status"`
	Message         string `json:"message"`
	Ok              bool   `json:"ok"`
	Timestamp       string `json:"timestamp"`
	URL             string `json:"url"`
	Type            string `json:"type,omitempty"`
	VersionError    bool   `json:"versionError,omitempty"`
	ExpectedVersion string `json:"expectedVersion,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message    string `json:"message"`
	Ok         bool   `json:"ok"`
	EditID     uint64 `json:"editId"`
	NewVersion string `json:"newVersion"`
	Timestamp  string `json:"timestamp"`
}
