package presale

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// configuration
	ErrTreasuryUndefined     = errors.New("TreasuryUndefined")
	ErrInsufficientAllowance = errors.New("InsufficientAllowance")
	ErrInvalidRange          = errors.New("InvalidRange")
	ErrInvalidOrdering       = errors.New("InvalidOrdering")
	ErrIndexOutOfRange       = errors.New("IndexOutOfRange")
	ErrInvalidAddress        = errors.New("InvalidAddress")
	ErrInvalidBrokerFee      = errors.New("InvalidBrokerFee")
	ErrInvalidBackend        = errors.New("InvalidBackend")
	ErrAlreadyInitialized    = errors.New("AlreadyInitialized")
	ErrNotInitialized        = errors.New("NotInitialized")

	// capacity
	ErrThresholdReached     = errors.New("ThresholdReached")
	ErrInvalidAmount        = errors.New("InvalidAmount")
	ErrThresholdBelowRaised = errors.New("ThresholdBelowRaised")

	// lifecycle
	ErrThresholdNotReached = errors.New("ThresholdNotReached")
	ErrAlreadyBootstrapped = errors.New("AlreadyBootstrapped")
	ErrNoFundsAvailable    = errors.New("NoFundsAvailable")
	ErrNotBootstrapped     = errors.New("NotBootstrapped")
	ErrLockNotExpired      = errors.New("LockNotExpired")
	ErrLockReleased        = errors.New("LockReleased")

	// authorization
	ErrUnauthorized = errors.New("Unauthorized")

	// collaborators
	ErrTransferFailed     = errors.New("TransferFailed")
	ErrCollaboratorFailed = errors.New("CollaboratorFailed")
)

type CustomError struct {
	Code    int
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func NewCustomError(code int, message string, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func configError(err error, format string, args ...interface{}) error {
	return NewCustomError(http.StatusBadRequest, fmt.Sprintf(format, args...), err)
}

func capacityError(err error, format string, args ...interface{}) error {
	return NewCustomError(http.StatusConflict, fmt.Sprintf(format, args...), err)
}

func lifecycleError(err error, format string, args ...interface{}) error {
	return NewCustomError(http.StatusPreconditionFailed, fmt.Sprintf(format, args...), err)
}

func internalError(err error, format string, args ...interface{}) error {
	return NewCustomError(http.StatusInternalServerError, fmt.Sprintf(format, args...), err)
}

// StatusCode reports the HTTP status class carried by err, or 500 when err
// did not originate here.
func StatusCode(err error) int {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return http.StatusInternalServerError
}
