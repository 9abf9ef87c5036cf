package services

import "errors"

var (
	// ErrInvalidUpload means the request carried no readable "File" part.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrInvalidRequest means a required request parameter was missing or malformed.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTaskNotFound means no task record matches the given id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskExists means a task record with the same id already exists.
	ErrTaskExists = errors.New("task already exists")
)
