package user

import "errors"

var (
	ErrEmailExists        = errors.New("email or username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("username, email and password are required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid token")

	PgUniqueViolation = "23505"
)
