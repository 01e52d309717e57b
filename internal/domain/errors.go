package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrInvalidID = errors.New("invalid id")
var ErrAlreadyExists = errors.New("already exists")
