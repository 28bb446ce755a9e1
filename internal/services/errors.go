package services

import (
	"errors"
	"fmt"

	"unishare/internal/store"
)

var (
	// ErrNotFound: the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized: the requester may not perform the operation.
	ErrUnauthorized = errors.New("not allowed")
	// ErrBackendUnavailable: storage or file store failure, safe for the user to retry.
	ErrBackendUnavailable = errors.New("service temporarily unavailable, please try again")
	// ErrInvalidInput: the request is malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials: unknown admission number or wrong password.
	ErrInvalidCredentials = errors.New("invalid admission number or password")
	// ErrSessionExpired: the session token is unknown, revoked or expired.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// storeError maps a store failure onto the service taxonomy.
func storeError(err error, op string) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrBackendUnavailable, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrUnauthorized, ErrBackendUnavailable,
		ErrInvalidInput, ErrInvalidCredentials, ErrSessionExpired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
