package domain

import "errors"

var (
	UnexpectedDatabaseError = errors.New("unexpected-database-error")
	ErrUserNotFound         = errors.New("user-not-found")
	ErrDuplicateUsername    = errors.New("duplicate-username")
	ErrNoProblems           = errors.New("no-problems-available")
)

var UnexpectedPasswordHashComparisonError = errors.New("unexpected-password-hash-comparison-error")
var UnexpectedTokenGenerationError = errors.New("unexpected-token-generation-error")

var (
	ErrInvalidSigningAlg     = errors.New("invalid-signing-alg")
	ErrExpiredToken          = errors.New("expired-token")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
)
