package service

import (
	"fmt"
)

type ErrProfileNotFound struct {
	error
}

func NewErrProfileNotFound(profileID string, err error) *ErrProfileNotFound {
	return &ErrProfileNotFound{fmt.Errorf("profile %s: file not found: %w", profileID, err)}
}

func (e *ErrProfileNotFound) Unwrap() error {
	return e.error
}

type ErrProfileParse struct {
	error
}

func NewErrProfileParse(profileID string, err error) *ErrProfileParse {
	return &ErrProfileParse{fmt.Errorf("profile %s: %w", profileID, err)}
}

func (e *ErrProfileParse) Unwrap() error {
	return e.error
}

type ErrInvalidParentDir struct {
	error
}

func NewErrInvalidParentDir(dir string, err error) *ErrInvalidParentDir {
	return &ErrInvalidParentDir{fmt.Errorf("parent directory %q is not usable: %w", dir, err)}
}
