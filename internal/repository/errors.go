package repository

import "errors"

var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrCooldownNotFound   = errors.New("cooldown not found")
	ErrBlockNotFound      = errors.New("block not found")
	ErrReputationNotFound = errors.New("reputation not found")
	ErrInvalidInput       = errors.New("invalid input parameters")
)
