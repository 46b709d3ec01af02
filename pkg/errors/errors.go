package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Assignment engine errors.
	ErrExamLocked        = New("EXAM_LOCKED", http.StatusConflict, "exam is locked or archived")
	ErrRoomConflict      = New("ROOM_CONFLICT", http.StatusConflict, "room already booked for an overlapping session")
	ErrTeacherConflict   = New("TEACHER_CONFLICT", http.StatusConflict, "teacher already invigilating an overlapping session")
	ErrSeatConflict      = New("SEAT_CONFLICT", http.StatusConflict, "student already seated for this session")
	ErrRoomsExhausted    = New("ROOMS_EXHAUSTED", http.StatusConflict, "no available room satisfies capacity and time constraints")
	ErrTeachersExhausted = New("TEACHERS_EXHAUSTED", http.StatusConflict, "not enough eligible teachers for all rooms")
	ErrCapacityExceeded  = New("CAPACITY_EXCEEDED", http.StatusConflict, "assignment exceeds room or group capacity")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
