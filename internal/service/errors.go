package service

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("error not found")
	ErrSessionNotFound   = errors.New("error checkout session not found")
	ErrInsufficientFunds = errors.New("error insufficient funds")
	ErrAlreadyInProgress = errors.New("error payment already in progress")
	ErrUnauthenticated   = errors.New("error unauthenticated")
)
