package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthenticated  = errors.New("unauthorized")
	ErrEmailExists      = errors.New("email already exists")
	ErrMealNotFound     = errors.New("meal not found")
	ErrSessionCorrupted = errors.New("session token shared by several users")
)
