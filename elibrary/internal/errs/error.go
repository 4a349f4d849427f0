package errs

import (
	"errors"
)

// Kinds. Every reported condition unwraps to exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

var (
	ErrMemberNotFound = newErr(ErrNotFound, "member not found")
	ErrCopyNotFound   = newErr(ErrNotFound, "copy not found")
	ErrLoanNotFound   = newErr(ErrNotFound, "loan not found")
	ErrBookNotFound   = newErr(ErrNotFound, "book not found")

	ErrLoanLimit        = newErr(ErrConflict, "loan limit reached")
	ErrCopyNotAvailable = newErr(ErrConflict, "copy not available")
	ErrWrongBranch      = newErr(ErrConflict, "wrong branch")
	ErrAlreadyReturned  = newErr(ErrConflict, "already returned")
	ErrRenewLimit       = newErr(ErrConflict, "renewal limit reached")
	ErrTooOverdue       = newErr(ErrConflict, "cannot renew, too overdue")
	ErrEmailTaken       = newErr(ErrConflict, "email already registered")
	ErrISBNTaken        = newErr(ErrConflict, "book with this isbn already exists")
	ErrStaleLoan        = newErr(ErrConflict, "loan was changed by another request")

	ErrNotAuthorized = newErr(ErrUnauthorized, "not authorized")

	ErrSubscriptionExpired  = newErr(ErrForbidden, "subscription expired")
	ErrSubscriptionInactive = newErr(ErrForbidden, "subscription is not active")
)

// ErrInvalidCredentials is reported on login and is deliberately kind-less.
var ErrInvalidCredentials = errors.New("incorrect email or password")

type kindError struct {
	kind error
	msg  string
}

func newErr(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Kind names the stable category of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	}
	return "internal"
}
