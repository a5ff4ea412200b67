package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeExternal     ErrorCode = "EXTERNAL_FAILURE"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с текстом нарушенного правила.
// Текст показывается пользователю приватно, поэтому должен быть конкретным.
func Validation(err error) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    err.Error(),
		HTTPStatus: http.StatusBadRequest,
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

// UserMessage возвращает текст для показа пользователю.
// Внутренние подробности внешних сбоев наружу не выдаются.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code == ErrCodeExternal {
			return "внутренняя ошибка, попробуйте позже"
		}
		return appErr.Message
	}
	return "внутренняя ошибка, попробуйте позже"
}

var (
	ErrListingNotFound = New(ErrCodeNotFound, "объявление не найдено")
	ErrNotSeller       = New(ErrCodeForbidden, "это не ваше объявление")
	ErrSelfClaim       = New(ErrCodeForbidden, "нельзя откликнуться на собственное объявление")
	ErrAlreadyClaimed  = New(ErrCodeConflict, "объявление уже в переговорах с другим покупателем")
	ErrListingSold     = New(ErrCodeConflict, "объявление уже продано")
	ErrNotAuthorized   = New(ErrCodeForbidden, "недостаточно прав")
	ErrUnauthorized    = New(ErrCodeUnauthorized, "требуется авторизация")
)
