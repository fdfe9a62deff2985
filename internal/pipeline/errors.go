package pipeline

import "errors"

// Engine errors. Handlers map these onto HTTP codes; ErrConflict is the only
// one a caller should retry, after re-fetching the entity.
var (
	ErrUnknownStage      = errors.New("unknown stage")
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("entity was moved by another actor")
	ErrEntityArchived    = errors.New("lead is archived after conversion")
	ErrNotFound          = errors.New("entity not found")
	ErrAssigneeRequired  = errors.New("assignee is required to leave the initial stage")
)
