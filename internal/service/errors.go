// Package service holds the shelter's business rules: sessions, the
// authorization guard, accounts, dogs and the feed request workflow.
// Handlers translate the errors declared here into HTTP responses.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists is returned when registering an email that is taken.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("wrong username or password")
	// ErrUnauthenticated is matched by every *AuthError.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is returned when the addressed dog, user or request is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is the parent of every validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidAmount is returned for feed amounts outside 1..MaxFeedAmount.
	ErrInvalidAmount = fmt.Errorf("%w: feed_amount must be between 1 and %d", ErrInvalidInput, MaxFeedAmount)
)

// Upper bounds for a single request and a single award.  The running
// totals are plain integer columns; capping each increment keeps them far
// from overflow.
const (
	MaxFeedAmount = 1_000_000
	MaxAward      = 1_000_000
)

// AuthErrorKind tells an absent session apart from a bad one.
type AuthErrorKind int

const (
	EmptyToken AuthErrorKind = iota + 1
	InvalidToken
)

// AuthError reports why a session cookie could not be resolved.
type AuthError struct {
	Kind AuthErrorKind
}

func (e *AuthError) Error() string {
	if e.Kind == EmptyToken {
		return "empty token"
	}
	return "invalid token"
}

// Is makes errors.Is(err, ErrUnauthenticated) hold for any AuthError.
func (e *AuthError) Is(target error) bool { return target == ErrUnauthenticated }

// ValidationError names the offending field of a rejected request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
