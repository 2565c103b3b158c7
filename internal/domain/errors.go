package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")
)

var (
	ErrRemoteSearch = errors.New("remote search failed")
	ErrStore        = errors.New("vector store failed")
	ErrEmbedding    = errors.New("embedding failed")
	ErrRanking      = errors.New("ranking failed")
)

var (
	ErrIndexNotFound      = errors.New("index not found")
	ErrInvalidIndex       = errors.New("invalid index")
	ErrDuplicateDocument  = errors.New("document already exists")
	ErrEmptyContent       = errors.New("empty content")
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")
)

// ErrSkipPersist is returned by a custom save function to signal that the
// document should not be written to the local store. It is not an error.
var ErrSkipPersist = errors.New("skip persist")

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type Collaborator string

const (
	CollaboratorRemoteSearch Collaborator = "remote_search"
	CollaboratorStore        Collaborator = "vector_store"
	CollaboratorEmbedding    Collaborator = "embedding"
	CollaboratorRanking      Collaborator = "ranking"
)

func (c Collaborator) sentinel() error {
	switch c {
	case CollaboratorRemoteSearch:
		return ErrRemoteSearch
	case CollaboratorStore:
		return ErrStore
	case CollaboratorEmbedding:
		return ErrEmbedding
	case CollaboratorRanking:
		return ErrRanking
	}
	return ErrInternal
}

// CollaboratorError tags a failure with the collaborator that produced it.
// errors.Is matches both the collaborator sentinel (ErrRemoteSearch, ...)
// and anything in the wrapped cause chain.
type CollaboratorError struct {
	Collaborator Collaborator
	Err          error
}

func NewCollaboratorError(c Collaborator, err error) error {
	if err == nil {
		return nil
	}
	return &CollaboratorError{Collaborator: c, Err: err}
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() []error {
	return []error{e.Collaborator.sentinel(), e.Err}
}
