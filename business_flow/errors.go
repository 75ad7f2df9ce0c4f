// Package businessflow contains the core business logic and use cases for entry reconciliation workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Entry submission errors
	ErrPhoneNumberRequired   = errors.New("phone number is required")
	ErrCodeRequired          = errors.New("code is required")
	ErrImageRequired         = errors.New("image file is required")
	ErrAlreadySubmittedToday = errors.New("an entry was already submitted today")
	ErrImageAlreadySubmitted = errors.New("image already submitted for this entry")
	ErrDailyEntryCompleted   = errors.New("a completed entry already exists today")
	ErrNoCodeForImage        = errors.New("no prior code submission found and none provided with the image")
	ErrImageStoreFailed      = errors.New("failed to store image")
	ErrEntryCodeMissing      = errors.New("entry reached persistence without a code")
	ErrEntryNotFound         = errors.New("entry not found")

	// Admin errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
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

func IsPhoneNumberRequired(err error) bool {
	return errors.Is(err, ErrPhoneNumberRequired)
}

func IsCodeRequired(err error) bool {
	return errors.Is(err, ErrCodeRequired)
}

func IsImageRequired(err error) bool {
	return errors.Is(err, ErrImageRequired)
}

func IsAlreadySubmittedToday(err error) bool {
	return errors.Is(err, ErrAlreadySubmittedToday)
}

func IsImageAlreadySubmitted(err error) bool {
	return errors.Is(err, ErrImageAlreadySubmitted)
}

func IsDailyEntryCompleted(err error) bool {
	return errors.Is(err, ErrDailyEntryCompleted)
}

func IsNoCodeForImage(err error) bool {
	return errors.Is(err, ErrNoCodeForImage)
}

func IsImageStoreFailed(err error) bool {
	return errors.Is(err, ErrImageStoreFailed)
}

func IsEntryCodeMissing(err error) bool {
	return errors.Is(err, ErrEntryCodeMissing)
}

func IsEntryNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
