package types

import (
	"errors"
	"fmt"
)

// CustomError carries an HTTP status and a dotted error type for the
// response envelope.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Terminal collaboration errors. These are surfaced directly and never
// retried by the service.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrDocumentLocked   = errors.New("document locked")
	ErrInvalidParent    = errors.New("invalid parent comment")
	ErrTransientStore   = errors.New("transient store error")
)

// ConflictError reports a failed optimistic version check. Expected is the
// authoritative current version so the caller can rebase and resubmit.
type ConflictError struct {
	Expected uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("E_VERSION - expected version %d", e.Expected)
}

// IsConflict returns the ConflictError inside err, if any
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
