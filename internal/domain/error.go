package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Pairing and relay errors
	ErrTokenNotFound      = errors.New("pairing token not found")
	ErrInvalidTokenFormat = errors.New("pairing token has invalid format")
	ErrChatTaken          = errors.New("chat is already linked to another account")
	ErrChatNotBound       = errors.New("no chat is bound to this account")
	ErrDeliveryFailed     = errors.New("message delivery failed")

	ErrInvalidExecContext = errors.New("invalid query execution context")
)
