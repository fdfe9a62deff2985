package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
	"salespipe/internal/repositories"
)

// CompanyService covers direct company intake (as opposed to lead
// conversion, which PipelineService owns).
type CompanyService struct {
	Repo repositories.CompanyRepository
	Now  func() time.Time
}

func NewCompanyService(repo repositories.CompanyRepository) *CompanyService {
	return &CompanyService{Repo: repo, Now: time.Now}
}

func (s *CompanyService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create registers a directly-created company at the initial stage. FromLead
// stays empty here: that field is set exactly once, at conversion.
func (s *CompanyService) Create(actor models.Actor, company *models.Company) error {
	if strings.TrimSpace(company.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(company.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if !authz.IsGlobal(actor.Role) {
		company.CommunityID = actor.CommunityID
	}

	now := s.now()
	company.ID = uuid.NewString()
	company.Stage = pipeline.InitialStage(pipeline.KindCompany)
	company.Status = models.CompanyStatusPending
	company.FromLead = nil
	company.StageEnteredAt = now
	company.CreatedAt = now
	return s.Repo.Create(company)
}

func (s *CompanyService) GetByID(actor models.Actor, id string) (*models.Company, error) {
	company, err := s.Repo.GetByID(id)
	if err != nil || company == nil {
		return company, err
	}
	if !authz.ScopeAllowed(actor.Role, actor.CommunityID, company.CommunityID) {
		return nil, fmt.Errorf("%w: community scope", pipeline.ErrForbidden)
	}
	if !authz.CanView(actor.Role, pipeline.KindCompany, company.Stage) {
		return nil, fmt.Errorf("%w: role %s may not view stage %s", pipeline.ErrForbidden, actor.Role, company.Stage)
	}
	return company, nil
}

func (s *CompanyService) List(actor models.Actor, limit, offset int) ([]*models.Company, error) {
	community := actor.CommunityID
	if authz.IsGlobal(actor.Role) {
		community = ""
	}
	companies, err := s.Repo.Filter(models.CompanyFilter{CommunityID: community, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	out := companies[:0]
	for _, c := range companies {
		if authz.CanView(actor.Role, pipeline.KindCompany, c.Stage) {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateStatus flips the approval tag. Independent of the stage graph.
func (s *CompanyService) UpdateStatus(actor models.Actor, id string, status models.CompanyStatus) error {
	switch status {
	case models.CompanyStatusPending, models.CompanyStatusApproved,
		models.CompanyStatusRejected, models.CompanyStatusSuspended:
	default:
		return fmt.Errorf("unknown company status %q", status)
	}
	company, err := s.GetByID(actor, id)
	if err != nil {
		return err
	}
	if company == nil {
		return fmt.Errorf("%w: company %s", pipeline.ErrNotFound, id)
	}
	return s.Repo.UpdateStatus(id, status)
}
