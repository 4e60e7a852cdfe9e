package errors

import (
	stderrors "errors"
	"net/http"
)

// ErrorResponse is the JSON body rendered for failed requests.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// AsAppError extracts an *AppError from err, wrapping unknown errors
// as Internal so handlers always have a status and code to render.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// HTTPStatus returns the HTTP status for any error.
func HTTPStatus(err error) int {
	if appErr := AsAppError(err); appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
