package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrEmployeeNotFound indicates that employee profile was not found
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrEmployeeAlreadyExists indicates a duplicate employee number
	// or a second profile for the same user
	ErrEmployeeAlreadyExists = errors.New("employee already exists")

	// ErrDocumentNotFound indicates that employee document was not found
	ErrDocumentNotFound = errors.New("document not found")
)
