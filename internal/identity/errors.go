package identity

import "errors"

var (
	ErrCrypto = errors.New("crypto operation failed")
)
