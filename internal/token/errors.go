package token

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid token config")
	ErrUnknownMode       = errors.New("unknown token mode")
	ErrInvalidPermission = errors.New("invalid permission")
	ErrTokenRejected     = errors.New("token request rejected")
)
