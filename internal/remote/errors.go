package remote

import (
	"errors"
	"fmt"
)

// Error codes reported by the reading list service in the "title" field of
// an error response.
const (
	CodeNotSetUp       = "readinglists-db-error-not-set-up"
	CodeAlreadySetUp   = "readinglists-db-error-already-set-up"
	CodeListLimit      = "readinglists-db-error-list-limit"
	CodeEntryLimit     = "readinglists-db-error-entry-limit"
	CodeDuplicateEntry = "readinglists-db-error-duplicate-page"
	CodeListDeleted    = "readinglists-db-error-list-deleted"
	CodeNoSuchList     = "readinglists-db-error-no-such-list"
	CodeNeedsFullSync  = "readinglists-db-error-too-old"
)

// APIError is a structured error returned by the reading list service.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("reading lists API error %s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("reading lists API error %s", e.Code)
}

// Is matches two API errors by code so sentinels work with errors.Is.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

var (
	// ErrNotSetup indicates reading lists are not enabled for the account
	ErrNotSetup = &APIError{Code: CodeNotSetUp}

	// ErrAlreadySetUp indicates setup was requested for an enabled account
	ErrAlreadySetUp = &APIError{Code: CodeAlreadySetUp}

	// ErrListLimit indicates the account reached its list quota
	ErrListLimit = &APIError{Code: CodeListLimit}

	// ErrEntryLimit indicates a list reached its entry quota
	ErrEntryLimit = &APIError{Code: CodeEntryLimit}

	// ErrDuplicateEntry indicates the article is already in the list
	ErrDuplicateEntry = &APIError{Code: CodeDuplicateEntry}

	// ErrListDeleted indicates the list was deleted on the server
	ErrListDeleted = &APIError{Code: CodeListDeleted}

	// ErrNoSuchList indicates the list does not exist on the server
	ErrNoSuchList = &APIError{Code: CodeNoSuchList}

	// ErrNeedsFullSync indicates the incremental update window expired
	ErrNeedsFullSync = &APIError{Code: CodeNeedsFullSync}
)

// ErrInvalidToken indicates the provided API token is invalid
var ErrInvalidToken = errors.New("invalid or expired reading lists token")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("reading lists API rate limit exceeded")

// ErrCancelled indicates the request was cancelled by CancelAllTasks
var ErrCancelled = errors.New("reading lists request cancelled")

// ServerError represents a 5xx error from the reading lists API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("reading lists server error: HTTP %d", e.StatusCode)
}

// ErrorCode returns the service error code carried by err, if any.
func ErrorCode(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code, true
	}
	return "", false
}

func errorForCode(statusCode int, code, detail string) error {
	return &APIError{StatusCode: statusCode, Code: code, Detail: detail}
}
