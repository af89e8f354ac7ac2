package store

import (
	"context"
	"errors"
	"fmt"

	"press-pass/core/pass"
)

// PrimaryStoreError wraps a failure of the primary store. It is logged and
// triggers the fallback. It only leaves the Store inside a not-found error,
// when the fallback lacked a pass the primary could not be asked about.
type PrimaryStoreError struct {
	Op  string
	Err error
}

func (e *PrimaryStoreError) Error() string {
	return fmt.Sprintf("primary store %s: %v", e.Op, e.Err)
}

func (e *PrimaryStoreError) Unwrap() error {
	return e.Err
}

// RemoteError is the error body a remote primary answers with.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote store error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote store error %d: %s", e.Status, e.Message)
}

// notFound reports a pass missing from the fallback. When perr is a primary
// failure rather than a primary miss, it stays attached to the error.
func notFound(perr error) error {
	var pe *PrimaryStoreError
	if errors.As(perr, &pe) {
		return fmt.Errorf("%w: %w", pass.ErrNotFound, pe)
	}
	return pass.ErrNotFound
}

// Unconfirmed reports whether err is a not-found answer given while the
// primary was failing, so the pass may still exist there.
func Unconfirmed(err error) bool {
	var pe *PrimaryStoreError
	return errors.Is(err, pass.ErrNotFound) && errors.As(err, &pe)
}

func unavailable(op string, primaryErr, fallbackErr error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(pass.ErrStorageUnavailable, primaryErr, fallbackErr))
}

type unavailablePrimary struct {
	err error
}

// Unavailable returns a Primary that fails every call with err. It stands in
// when the primary could not be configured, leaving the Store fallback-only.
func Unavailable(err error) Primary {
	if err == nil {
		err = errors.New("primary store not configured")
	}
	return unavailablePrimary{err: err}
}

func (u unavailablePrimary) Insert(context.Context, pass.Record) (pass.Record, error) {
	return pass.Record{}, u.err
}

func (u unavailablePrimary) Get(context.Context, string) (pass.Record, error) {
	return pass.Record{}, u.err
}

func (u unavailablePrimary) List(context.Context, pass.Query) ([]pass.Record, error) {
	return nil, u.err
}

func (u unavailablePrimary) Update(context.Context, string, pass.Patch) (pass.Record, error) {
	return pass.Record{}, u.err
}

func (u unavailablePrimary) Delete(context.Context, string) error {
	return u.err
}
