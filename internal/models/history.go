package models

import (
	"time"

	"salespipe/internal/pipeline"
)

// StageEvent is one immutable audit-trail entry: who moved which entity where
// and when. Entries are only ever appended, never updated or deleted; the
// statistics layer is computed from this trail.
type StageEvent struct {
	ID         string              `json:"id"`
	EntityKind pipeline.EntityKind `json:"entity_kind"`
	EntityID   string              `json:"entity_id"`
	FromStage  pipeline.Stage      `json:"from_stage"`
	ToStage    pipeline.Stage      `json:"to_stage"`
	ActorID    string              `json:"actor_id"`
	OccurredAt time.Time           `json:"occurred_at"`
}
