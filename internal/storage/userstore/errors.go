package userstore

import "errors"

var (
	ErrUserNotFound = errors.New("user record not found")
	ErrNilRecord    = errors.New("user record is nil")
	ErrEmptyName    = errors.New("user name is empty")
)
