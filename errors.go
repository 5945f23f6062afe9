package sessionkit

import "errors"

var (
	// ErrWeakCredential is returned when a secret is shorter than the
	// configured minimum length. No state is mutated.
	ErrWeakCredential = errors.New("credential below minimum length")
	// ErrAccountNotFound is returned when no active account matches the
	// identifier, or an account lookup by ID fails.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredential is returned when the digest comparison fails.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrDuplicateEmail is returned by Register when another account already
	// holds the email, compared case-insensitively.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateUsername is returned by Register when another account
	// already holds the exact username.
	ErrDuplicateUsername = errors.New("username already registered")
	// ErrRegistrationInvalid is returned when required registration fields
	// are missing.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrRoleInvalid is returned when a role outside {admin, user} is
	// requested.
	ErrRoleInvalid = errors.New("invalid account role")
	// ErrManagerNotReady is returned when a Manager is used before Build
	// wired its dependencies.
	ErrManagerNotReady = errors.New("manager not initialized")
	// ErrAccountStoreUnavailable wraps account-store collaborator failures
	// surfaced by Authenticate and Register.
	ErrAccountStoreUnavailable = errors.New("account store unavailable")
	// ErrRestoreExhausted is returned by ForceRestore after all attempts
	// found no adoptable session.
	ErrRestoreExhausted = errors.New("session restore attempts exhausted")
)
