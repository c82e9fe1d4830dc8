package arena

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the arena service.
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrGameNotFound            = errors.New("game not found")
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrRegistrationNotFound    = errors.New("registration not found")
	ErrUsernameTaken           = errors.New("username already taken")
	ErrEmailTaken              = errors.New("email already registered")
	ErrDuplicateRegistration   = errors.New("already registered for tournament")
	ErrTournamentFull          = errors.New("tournament is full")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrResultAlreadyRecorded   = errors.New("result already recorded")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidPlacement        = errors.New("invalid placement")
	ErrInvalidTransactionType  = errors.New("invalid transaction type")
	ErrInvalidTournamentScope  = errors.New("invalid tournament scope")
	ErrInvalidTournamentStatus = errors.New("invalid tournament status")
	ErrInvalidUser             = errors.New("invalid user")
	ErrInvalidServiceConfig    = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
