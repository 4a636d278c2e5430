package entitlement

import "errors"

var (
	ErrInvalidMatrix = errors.New("invalid entitlement matrix")
)
