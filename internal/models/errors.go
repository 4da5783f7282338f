package models

import "errors"

// Error kinds for marketplace operations. Services wrap these with
// fmt.Errorf("...: %w", ...) so handlers can classify with errors.Is
// while logs keep the full chain.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrExpired      = errors.New("expired")
	ErrDuplicate    = errors.New("duplicate submission")
)
