package user

import "errors"

var (
	// ErrNotFound means no account exists under the requested id.
	ErrNotFound = errors.New("account not found")
	// ErrWrongPassword means the supplied old password did not match.
	ErrWrongPassword = errors.New("old password does not match")
)
