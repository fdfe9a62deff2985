package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"salespipe/internal/models"
	"salespipe/internal/pipeline"
)

// CompanyRepository is the persistence port for companies.
type CompanyRepository interface {
	Create(company *models.Company) error
	GetByID(id string) (*models.Company, error)
	// GetByFromLead returns the company created from the given lead, nil when
	// none exists. Keeps conversion idempotent.
	GetByFromLead(leadID string) (*models.Company, error)
	Filter(f models.CompanyFilter) ([]*models.Company, error)
	UpdateStageCAS(id string, expected, target pipeline.Stage, manager *string, enteredAt time.Time) (bool, error)
	UpdateStatus(id string, status models.CompanyStatus) error
}

type companyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) CompanyRepository {
	return &companyRepository{db: db}
}

const companyColumns = `id, community_id, name, email, phone, sector,
	stage, status, account_manager, from_lead, stage_entered_at, created_at`

func scanCompany(row interface{ Scan(...any) error }) (*models.Company, error) {
	c := &models.Company{}
	var community, phone, sector, manager, fromLead sql.NullString
	if err := row.Scan(&c.ID, &community, &c.Name, &c.Email, &phone, &sector,
		&c.Stage, &c.Status, &manager, &fromLead, &c.StageEnteredAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CommunityID = community.String
	c.Phone = phone.String
	c.Sector = sector.String
	if manager.Valid {
		c.AccountManager = &manager.String
	}
	if fromLead.Valid {
		c.FromLead = &fromLead.String
	}
	return c, nil
}

func (r *companyRepository) Create(company *models.Company) error {
	const query = `
		INSERT INTO companies (id, community_id, name, email, phone, sector,
			stage, status, account_manager, from_lead, stage_entered_at, created_at)
		VALUES ($1, NULLIF($2,''), $3, $4, NULLIF($5,''), NULLIF($6,''),
			$7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(query, company.ID, company.CommunityID, company.Name, company.Email,
		company.Phone, company.Sector, company.Stage, company.Status,
		company.AccountManager, company.FromLead, company.StageEnteredAt, company.CreatedAt)
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (r *companyRepository) GetByID(id string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	company, err := scanCompany(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company by id: %w", err)
	}
	return company, nil
}

func (r *companyRepository) GetByFromLead(leadID string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE from_lead = $1 LIMIT 1`
	company, err := scanCompany(r.db.QueryRow(query, leadID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company by from_lead: %w", err)
	}
	return company, nil
}

func (r *companyRepository) Filter(f models.CompanyFilter) ([]*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
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
	if len(f.AccountManager) > 0 {
		query += fmt.Sprintf(" AND account_manager = ANY($%d)", i)
		args = append(args, pq.Array(f.AccountManager))
		i++
	}

	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", i, i+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter companies: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *companyRepository) UpdateStageCAS(id string, expected, target pipeline.Stage, manager *string, enteredAt time.Time) (bool, error) {
	const query = `
		UPDATE companies
		SET stage = $1, stage_entered_at = $2, account_manager = COALESCE($3, account_manager)
		WHERE id = $4 AND stage = $5
	`
	res, err := r.db.Exec(query, target, enteredAt, manager, id, expected)
	if err != nil {
		return false, fmt.Errorf("cas update company stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas update company stage: %w", err)
	}
	return affected == 1, nil
}

func (r *companyRepository) UpdateStatus(id string, status models.CompanyStatus) error {
	const query = `UPDATE companies SET status = $1 WHERE id = $2`
	_, err := r.db.Exec(query, status, id)
	return err
}
