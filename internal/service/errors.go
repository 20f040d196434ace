package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/message-manager-discord/backend/internal/permissions"
)

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrRoleHierarchy       = errors.New("role hierarchy")
	ErrLimitExceeded       = errors.New("limit exceeded")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("not found")
	ErrBadRequest          = errors.New("bad request")
	ErrInternal            = errors.New("internal")
)

// ServiceError wraps a sentinel error with a specific code and message for the
// handler to use.
type ServiceError struct {
	Err     error
	Code    string
	Message string
}

func (e *ServiceError) Error() string { return e.Message }
func (e *ServiceError) Unwrap() error { return e.Err }

// NewError creates a ServiceError wrapping the given sentinel.
func NewError(sentinel error, code, message string) *ServiceError {
	return &ServiceError{Err: sentinel, Code: code, Message: message}
}

// Convenience constructors for the error taxonomy.

func NotFound(code, message string) *ServiceError {
	return NewError(ErrNotFound, code, message)
}

func BadRequest(code, message string) *ServiceError {
	return NewError(ErrBadRequest, code, message)
}

func Internal(code, message string) *ServiceError {
	return NewError(ErrInternal, code, message)
}

// PermissionDenied reports that the caller is missing the named capability
// bits at the scope being checked.
func PermissionDenied(missing []permissions.Capability) *ServiceError {
	names := make([]string, len(missing))
	for i, cap := range missing {
		names[i] = cap.String()
	}
	msg := "you do not have the required permissions"
	if len(names) > 0 {
		msg = fmt.Sprintf("you are missing the following permissions: %s", strings.Join(names, ", "))
	}
	return NewError(ErrPermissionDenied, "MISSING_PERMISSIONS", msg)
}

// RoleHierarchyError reports an anti-escalation failure: the target role is
// not strictly below the caller's highest role.
func RoleHierarchyError(message string) *ServiceError {
	return NewError(ErrRoleHierarchy, "ROLE_HIERARCHY", message)
}

// LimitExceeded reports that creating another entry would exceed the
// configured per-scope quota. The limit is included so callers can render it.
func LimitExceeded(limit int) *ServiceError {
	return NewError(ErrLimitExceeded, "LIMIT_EXCEEDED",
		fmt.Sprintf("no more than %d permission entries are allowed per scope", limit))
}

// UpstreamUnavailable reports that the guild-state provider cannot serve the
// guild right now.
func UpstreamUnavailable(message string) *ServiceError {
	return NewError(ErrUpstreamUnavailable, "UPSTREAM_UNAVAILABLE", message)
}
