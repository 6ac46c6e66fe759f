// Package kerrors maps Kubernetes API errors onto the few kinds callers of
// the job master act upon.
package kerrors

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

var (
	// ErrAuth: credential invalid, expired or lacking permission. The caller
	// has to refresh it before retrying.
	ErrAuth = errors.New("not authorized")
	// ErrNotFound: the job (or its pods) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a job with the same name already exists in the namespace.
	ErrConflict = errors.New("already exists")
	// ErrInvalid: the API server rejected the job object.
	ErrInvalid = errors.New("invalid")
	// ErrAPI: any other failure talking to the API server.
	ErrAPI = errors.New("api error")
)

// Classify wraps err with the sentinel of its kind so callers can use
// errors.Is. It returns nil for nil and leaves already classified errors alone.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %v", kindOf(err), err)
}

// Kind returns the sentinel err was classified with, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrAuth, ErrNotFound, ErrConflict, ErrInvalid, ErrAPI} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

func kindOf(err error) error {
	switch {
	case apierrors.IsUnauthorized(err), apierrors.IsForbidden(err):
		return ErrAuth
	case apierrors.IsNotFound(err):
		return ErrNotFound
	case apierrors.IsAlreadyExists(err):
		return ErrConflict
	case apierrors.IsInvalid(err), apierrors.IsBadRequest(err):
		return ErrInvalid
	default:
		return ErrAPI
	}
}
