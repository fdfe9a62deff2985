package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"salespipe/internal/models"
	"salespipe/internal/pipeline"
)

// LeadRepository is the persistence port for leads. The stage update is a
// compare-and-swap: it only applies when the row still carries the stage the
// caller observed.
type LeadRepository interface {
	Create(lead *models.Lead) error
	GetByID(id string) (*models.Lead, error)
	Filter(f models.LeadFilter) ([]*models.Lead, error)
	UpdateStageCAS(id string, expected, target pipeline.Stage, assignee *string, enteredAt time.Time) (bool, error)
	UpdateStatus(id string, status models.LeadStatus) error
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, community_id, company_name, contact_name, email, phone,
	stage, status, priority, estimated_value, score, assigned_to, stage_entered_at, created_at`

func scanLead(row interface{ Scan(...any) error }) (*models.Lead, error) {
	l := &models.Lead{}
	var contact, email, phone, community sql.NullString
	var score sql.NullInt64
	var assigned sql.NullString
	if err := row.Scan(&l.ID, &community, &l.CompanyName, &contact, &email, &phone,
		&l.Stage, &l.Status, &l.Priority, &l.EstimatedValue, &score, &assigned,
		&l.StageEnteredAt, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.CommunityID = community.String
	l.ContactName = contact.String
	l.Email = email.String
	l.Phone = phone.String
	if score.Valid {
		v := int(score.Int64)
		l.Score = &v
	}
	if assigned.Valid {
		l.AssignedTo = &assigned.String
	}
	return l, nil
}

func (r *leadRepository) Create(lead *models.Lead) error {
	const query = `
		INSERT INTO leads (id, community_id, company_name, contact_name, email, phone,
			stage, status, priority, estimated_value, score, assigned_to, stage_entered_at, created_at)
		VALUES ($1, NULLIF($2,''), $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''),
			$7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(query, lead.ID, lead.CommunityID, lead.CompanyName, lead.ContactName,
		lead.Email, lead.Phone, lead.Stage, lead.Status, lead.Priority,
		lead.EstimatedValue, lead.Score, lead.AssignedTo, lead.StageEnteredAt, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *leadRepository) GetByID(id string) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead by id: %w", err)
	}
	return lead, nil
}

func (r *leadRepository) Filter(f models.LeadFilter) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []interface{}{}
	i := 1

	if f.CommunityID != "" {
		query += fmt.Sprintf(" AND community_id = $%d", i)
		args = append(args, f.CommunityID)
		i++
	}
	if f.Stage != nil {
		query += fmt.Sprintf(" AND stage = $%d", i)
		args = append(args, *f.Stage)
		i++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, *f.Status)
		i++
	}
	if len(f.AssignedTo) > 0 {
		query += fmt.Sprintf(" AND assigned_to = ANY($%d)", i)
		args = append(args, pq.Array(f.AssignedTo))
		i++
	}

	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", i, i+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter leads: %w", err)
	}
	defer rows.Close()

	var out []*models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateStageCAS applies the transition only if the row still holds the
// expected stage. COALESCE keeps an already-set assignee when none is passed,
// so assignment is never cleared implicitly.
func (r *leadRepository) UpdateStageCAS(id string, expected, target pipeline.Stage, assignee *string, enteredAt time.Time) (bool, error) {
	const query = `
		UPDATE leads
		SET stage = $1, stage_entered_at = $2, assigned_to = COALESCE($3, assigned_to)
		WHERE id = $4 AND stage = $5
	`
	res, err := r.db.Exec(query, target, enteredAt, assignee, id, expected)
	if err != nil {
		return false, fmt.Errorf("cas update lead stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas update lead stage: %w", err)
	}
	return affected == 1, nil
}

func (r *leadRepository) UpdateStatus(id string, status models.LeadStatus) error {
	const query = `UPDATE leads SET status = $1 WHERE id = $2`
	_, err := r.db.Exec(query, status, id)
	return err
}
