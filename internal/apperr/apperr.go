// Package apperr defines the error taxonomy shared by services and
// handlers: validation failures stay local to the caller, storage
// failures surface as a generic banner, auth failures map to 401.
package apperr

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
	ErrAuth       = errors.New("auth error")
	ErrNotFound   = errors.New("not found")
)

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsStorage(err error) bool    { return errors.Is(err, ErrStorage) }
func IsAuth(err error) bool       { return errors.Is(err, ErrAuth) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
