// Package businessflow contains the core business logic and use cases for the matching platform
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Profile-related errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAdminRequired      = errors.New("admin privileges required")

	// Preference-related errors
	ErrPreferenceNotFound = errors.New("preferences not found")
	ErrEmptyPreferences   = errors.New("at least one preference field must be provided")

	// Property-related errors
	ErrPropertyNotFound    = errors.New("property not found")
	ErrInvalidPropertyType = errors.New("invalid property type")

	// Match-related errors
	ErrMatchNotFound              = errors.New("match not found")
	ErrPersistenceFailed          = errors.New("failed to persist matches")
	ErrNotificationDeliveryFailed = errors.New("match notification delivery failed")

	// Chat-related errors
	ErrEmptyChatMessage = errors.New("chat message is empty")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsProfileNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsAdminRequired(err error) bool {
	return errors.Is(err, ErrAdminRequired)
}

func IsPreferenceNotFound(err error) bool {
	return errors.Is(err, ErrPreferenceNotFound)
}

func IsEmptyPreferences(err error) bool {
	return errors.Is(err, ErrEmptyPreferences)
}

func IsPropertyNotFound(err error) bool {
	return errors.Is(err, ErrPropertyNotFound)
}

func IsInvalidPropertyType(err error) bool {
	return errors.Is(err, ErrInvalidPropertyType)
}

func IsMatchNotFound(err error) bool {
	return errors.Is(err, ErrMatchNotFound)
}

func IsPersistenceFailed(err error) bool {
	return errors.Is(err, ErrPersistenceFailed)
}

func IsNotificationDeliveryFailed(err error) bool {
	return errors.Is(err, ErrNotificationDeliveryFailed)
}

func IsEmptyChatMessage(err error) bool {
	return errors.Is(err, ErrEmptyChatMessage)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
