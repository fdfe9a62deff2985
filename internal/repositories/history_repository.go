package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"salespipe/internal/models"
	"salespipe/internal/pipeline"
)

// HistoryRepository is the append-only audit trail of stage transitions.
// Entries are never updated or deleted.
type HistoryRepository interface {
	Append(event *models.StageEvent) error
	ListByEntity(kind pipeline.EntityKind, entityID string) ([]*models.StageEvent, error)
	// EntryTimes returns, per entity id, the commit time of the transition
	// into the given stage. Entities without such an entry are absent from
	// the map.
	EntryTimes(kind pipeline.EntityKind, toStage pipeline.Stage, entityIDs []string) (map[string]time.Time, error)
}

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(event *models.StageEvent) error {
	const query = `
		INSERT INTO stage_history (id, entity_kind, entity_id, from_stage, to_stage, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query, event.ID, event.EntityKind, event.EntityID,
		event.FromStage, event.ToStage, event.ActorID, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("append stage history: %w", err)
	}
	return nil
}

func (r *historyRepository) ListByEntity(kind pipeline.EntityKind, entityID string) ([]*models.StageEvent, error) {
	const query = `
		SELECT id, entity_kind, entity_id, from_stage, to_stage, actor_id, occurred_at
		FROM stage_history
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY occurred_at ASC
	`
	rows, err := r.db.Query(query, kind, entityID)
	if err != nil {
		return nil, fmt.Errorf("list stage history: %w", err)
	}
	defer rows.Close()

	var out []*models.StageEvent
	for rows.Next() {
		ev := &models.StageEvent{}
		if err := rows.Scan(&ev.ID, &ev.EntityKind, &ev.EntityID,
			&ev.FromStage, &ev.ToStage, &ev.ActorID, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan stage history: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *historyRepository) EntryTimes(kind pipeline.EntityKind, toStage pipeline.Stage, entityIDs []string) (map[string]time.Time, error) {
	if len(entityIDs) == 0 {
		return map[string]time.Time{}, nil
	}
	const query = `
		SELECT entity_id, MIN(occurred_at)
		FROM stage_history
		WHERE entity_kind = $1 AND to_stage = $2 AND entity_id = ANY($3)
		GROUP BY entity_id
	`
	rows, err := r.db.Query(query, kind, toStage, pq.Array(entityIDs))
	if err != nil {
		return nil, fmt.Errorf("stage entry times: %w", err)
	}
	defer rows.Close()

	out := map[string]time.Time{}
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan entry time: %w", err)
		}
		out[id] = at
	}
	return out, rows.Err()
}
