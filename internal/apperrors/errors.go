package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSizeUnknown marks a download source that did not declare its size.
// It only degrades progress reporting and is never returned as a failure.
var ErrSizeUnknown = errors.New("source did not declare a content length")

// ErrElementNotFound is returned when a structural anchor is missing from a page
// after the bounded wait elapsed.
type ErrElementNotFound struct {
	Selector string
	URL      string
}

// Error implements the error interface.
func (e *ErrElementNotFound) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("element %q not found on %s", e.Selector, e.URL)
	}
	return fmt.Sprintf("element %q not found", e.Selector)
}

// Is allows for error checking with errors.Is().
func (e *ErrElementNotFound) Is(target error) bool {
	_, ok := target.(*ErrElementNotFound)
	return ok
}

// NewElementNotFoundError creates a new ErrElementNotFound.
func NewElementNotFoundError(selector, url string) *ErrElementNotFound {
	return &ErrElementNotFound{
		Selector: selector,
		URL:      url,
	}
}

// ErrResourceNotFound is returned when a remote location answers HTTP 404.
type ErrResourceNotFound struct {
	URL string
}

// Error implements the error interface.
func (e *ErrResourceNotFound) Error() string {
	return fmt.Sprintf("resource not found at URL: %s", e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrResourceNotFound) Is(target error) bool {
	_, ok := target.(*ErrResourceNotFound)
	return ok
}

// ErrTransferFailed is returned when a stream or sink error aborts a download.
type ErrTransferFailed struct {
	URL    string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ErrTransferFailed) Error() string {
	msg := fmt.Sprintf("transfer from %s failed: %s", e.URL, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *ErrTransferFailed) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrTransferFailed) Is(target error) bool {
	_, ok := target.(*ErrTransferFailed)
	return ok
}

// NewTransferFailedError creates a new ErrTransferFailed.
func NewTransferFailedError(url, reason string, err error) *ErrTransferFailed {
	return &ErrTransferFailed{
		URL:    url,
		Reason: reason,
		Err:    err,
	}
}

// ErrWorkerUnavailable is returned when a worker could not start or crashed before
// producing output. Its chunk contributes zero rows.
type ErrWorkerUnavailable struct {
	WorkerID int
	Indices  []int
	Err      error
}

// Error implements the error interface.
func (e *ErrWorkerUnavailable) Error() string {
	idx := make([]string, len(e.Indices))
	for i, v := range e.Indices {
		idx[i] = fmt.Sprint(v)
	}
	msg := fmt.Sprintf("worker %d unavailable for chunk [%s]", e.WorkerID, strings.Join(idx, ","))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *ErrWorkerUnavailable) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrWorkerUnavailable) Is(target error) bool {
	_, ok := target.(*ErrWorkerUnavailable)
	return ok
}

// NewWorkerUnavailableError creates a new ErrWorkerUnavailable.
func NewWorkerUnavailableError(workerID int, indices []int, err error) *ErrWorkerUnavailable {
	return &ErrWorkerUnavailable{
		WorkerID: workerID,
		Indices:  indices,
		Err:      err,
	}
}
