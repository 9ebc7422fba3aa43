package api

import (
	"fmt"
	"net/http"
	"strings"
)

// ApiError is the failure half of the response envelope: success is always
// false and the message is safe to show to the caller.
type ApiError struct {
	StatusCode int    `json:"status_code"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func newApiError(statusCode int, message string, err error) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Success:    false,
		Message:    message,
		Err:        err,
	}
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return newApiError(http.StatusBadRequest, lower(http.StatusText(http.StatusBadRequest)), nil)
}

func NewValidationError(message string) *ApiError {
	return newApiError(http.StatusBadRequest, message, nil)
}

func NewNotFoundError() *ApiError {
	return newApiError(http.StatusNotFound, lower(http.StatusText(http.StatusNotFound)), nil)
}

func NewInternalServerError(err error) *ApiError {
	return newApiError(http.StatusInternalServerError, lower(http.StatusText(http.StatusInternalServerError)), err)
}

func NewUnauthorizedError() *ApiError {
	return newApiError(http.StatusUnauthorized, lower(http.StatusText(http.StatusUnauthorized)), nil)
}

func NewForbiddenError() *ApiError {
	return newApiError(http.StatusForbidden, lower(http.StatusText(http.StatusForbidden)), nil)
}

func NewMethodNotAllowedError() *ApiError {
	return newApiError(http.StatusMethodNotAllowed, lower(http.StatusText(http.StatusMethodNotAllowed)), nil)
}
