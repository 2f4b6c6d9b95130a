package services

import (
	"errors"

	"github.com/Craig-Turley/listsync/internal/validation"
	"github.com/Craig-Turley/listsync/pkg/utils"
)

type EntityKind int

const (
	KindList EntityKind = iota
	KindMember
)

type NotFoundError struct {
	Kind EntityKind
	Id   string
}

func (e *NotFoundError) Error() string {
	if e.Kind == KindMember {
		return utils.NewError(utils.ERROR_MEMBER_NOT_FOUND, e.Id).Error()
	}
	return utils.NewError(utils.ERROR_LIST_NOT_FOUND, e.Id).Error()
}

type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	return utils.ERROR_INVALID_DATA
}

// PreconditionError means the entity exists but is not in a state the
// operation can run against.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// PersistenceError is a failed local read or write. Outcome is
// OutcomeLocalOnly when an earlier write of the same operation committed.
type PersistenceError struct {
	Err     error
	Outcome Outcome
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RemoteError is a failed MailChimp call. Outcome says whether a local
// write had already committed.
type RemoteError struct {
	Err     error
	Outcome Outcome
}

func (e *RemoteError) Error() string {
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// OutcomeOf reports how far the operation behind err got.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSynced
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Outcome
	}

	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return persistErr.Outcome
	}

	return OutcomeNoWrite
}
