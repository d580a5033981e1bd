package securechannel

import "errors"

var (
	ErrTrustAnchor = errors.New("trust anchor unavailable")
)
