package services

import "errors"

var (
	// ErrCollaborator wraps failures of the provider, the stores or the
	// classifier. Callers show a generic retry message and keep their state.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrListingExpired means feedback arrived for a listing whose snapshot
	// is unknown. Nothing is written.
	ErrListingExpired = errors.New("listing context expired")
)
