package services

import (
	"errors"
	"fmt"
	"net/http"

	"lendingdesk/utils"
)

// ErrorKind - класс ошибки приложения
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// HTTPStatus возвращает HTTP-статус для класса ошибки
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// AppError - ошибка с классом, сообщением для клиента и деталями по полям
type AppError struct {
	Kind    ErrorKind
	Message string
	Details []utils.FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, details ...utils.FieldError) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Details: details}
}

// NewValidationErrorFrom строит ошибку валидации из ошибок validator
func NewValidationErrorFrom(err error) *AppError {
	return &AppError{Kind: KindValidation, Message: "validation failed", Details: utils.FieldErrors(err), Err: err}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewInternal оборачивает неожиданную ошибку; сообщение не раскрывает детали
func NewInternal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// AsAppError приводит любую ошибку к AppError (неизвестные считаются внутренними)
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal("internal server error", err)
}

// IsKind сообщает, относится ли ошибка к классу kind
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
