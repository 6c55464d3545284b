package models

import (
	"errors"
	"fmt"
)

var (
	ErrPurchaseNotFound   = errors.New("purchase not found")
	ErrTokenNotFound      = errors.New("download token not found")
	ErrDuplicateToken     = errors.New("download token already in use")
	ErrAlreadyCompleted   = errors.New("purchase already completed")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
)

// ConfigurationError means the server is missing credentials or settings it needs.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// ValidationError rejects a request without touching stored state.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError reports an unknown purchase or token.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// StorageError wraps a database or object store failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage error: %s", e.Op)
	}
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
