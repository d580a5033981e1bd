package discovery

import "errors"

var (
	ErrBindExhausted = errors.New("no free port within bind retry budget")
	ErrInvalidGroup  = errors.New("invalid multicast group address")
)
