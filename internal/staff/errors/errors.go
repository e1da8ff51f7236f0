package errors

import "errors"

var (
	ErrDuplicateName = errors.New("staff member with this name already exists")
)
