package peercache

import "errors"

var (
	ErrPeerNotFound   = errors.New("peer not found")
	ErrBucketNotFound = errors.New("bucket not found")
	ErrNilDB          = errors.New("database connection is nil")
	ErrEmptyToken     = errors.New("peer token is empty")
)
