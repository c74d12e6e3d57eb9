// Package apperrors defines the error kinds surfaced to API clients.
//
// Every error that reaches a handler is either an AppError, which carries its
// own HTTP status and client message, or an unexpected error rendered as a
// generic 500.
package apperrors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError is implemented by errors that know how they are presented to clients.
type AppError interface {
	error
	HTTPCode() int
	ErrorCode() string
	Message() string
}

// BaseError is the standard AppError implementation.
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	cause     error
}

// New creates a BaseError.
func New(httpCode int, errorCode, message string) *BaseError {
	return &BaseError{httpCode: httpCode, errorCode: errorCode, message: message}
}

func (e *BaseError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// HTTPCode returns the HTTP status code.
func (e *BaseError) HTTPCode() int { return e.httpCode }

// ErrorCode returns the stable machine-readable code.
func (e *BaseError) ErrorCode() string { return e.errorCode }

// Message returns the client-facing message. It never contains the cause.
func (e *BaseError) Message() string { return e.message }

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *BaseError) Unwrap() error { return e.cause }

// Is matches any BaseError with the same error code, so a copy carrying a
// cause still matches its sentinel.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	return ok && t.errorCode == e.errorCode
}

// WithCause returns a copy of e that wraps cause.
func (e *BaseError) WithCause(cause error) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		cause:     cause,
	}
}

// Authentication and account errors.
var (
	ErrValidation = New(http.StatusBadRequest, "VALIDATION_FAILED", "Dados inválidos!")

	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Usuário não encontrado ou credenciais incorretas!")
	ErrNotAuthenticated   = New(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Usuário não autenticado!")
	ErrInvalidToken       = New(http.StatusUnauthorized, "INVALID_TOKEN", "Token inválido!")
	ErrTokenUserNotFound  = New(http.StatusUnauthorized, "TOKEN_USER_NOT_FOUND", "Usuário não encontrado!")
	ErrUserNotActive      = New(http.StatusUnauthorized, "USER_NOT_ACTIVE", "Usuário inativo!")

	ErrForbidden = New(http.StatusForbidden, "FORBIDDEN", "Usuário não autorizado!")

	ErrUserNotFound           = New(http.StatusNotFound, "USER_NOT_FOUND", "Usuário não encontrado!")
	ErrEmailAlreadyRegistered = New(http.StatusBadRequest, "EMAIL_ALREADY_REGISTERED", "E-mail já cadastrado!")
)

// Order errors.
var (
	ErrOrderNotFound           = New(http.StatusNotFound, "ORDER_NOT_FOUND", "Pedido não encontrado!")
	ErrOrderItemNotFound       = New(http.StatusNotFound, "ORDER_ITEM_NOT_FOUND", "Item do pedido não encontrado!")
	ErrOrderAlreadyCancelled   = New(http.StatusBadRequest, "ORDER_ALREADY_CANCELLED", "Pedido já cancelado!")
	ErrOrderAlreadyFinished    = New(http.StatusBadRequest, "ORDER_ALREADY_FINISHED", "Pedido já finalizado!")
	ErrInvalidStatusTransition = New(http.StatusBadRequest, "INVALID_STATUS_TRANSITION", "Transição de status do pedido inválida!")
	ErrConcurrentModification  = New(http.StatusConflict, "CONCURRENT_MODIFICATION", "Pedido alterado por outra requisição, tente novamente!")
)

// Infrastructure errors.
var (
	ErrStorageUnavailable = New(http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "Erro ao acessar o banco de dados!")
	ErrInternal           = New(http.StatusInternalServerError, "INTERNAL_ERROR", "Erro interno do servidor!")
)

// Storage wraps a persistence failure so callers can tell it apart from a
// missing record.
func Storage(err error, message string) error {
	return ErrStorageUnavailable.WithCause(errors.Wrap(err, message))
}

// As extracts the AppError from err's chain.
func As(err error) (AppError, bool) {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
