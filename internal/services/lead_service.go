package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
	"salespipe/internal/repositories"
)

// LeadService covers commercial intake: creating leads at the initial stage
// and the reads/status updates around the board.
type LeadService struct {
	Repo repositories.LeadRepository
	Now  func() time.Time
}

func NewLeadService(repo repositories.LeadRepository) *LeadService {
	return &LeadService{Repo: repo, Now: time.Now}
}

func (s *LeadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create registers a lead at the initial stage with an open status.
func (s *LeadService) Create(actor models.Actor, lead *models.Lead) error {
	if strings.TrimSpace(lead.CompanyName) == "" {
		return fmt.Errorf("company name is required")
	}
	if lead.EstimatedValue.IsNegative() {
		return fmt.Errorf("estimated value must be non-negative")
	}
	if lead.Score != nil && (*lead.Score < 0 || *lead.Score > 100) {
		return fmt.Errorf("score must be within 0..100")
	}
	if lead.Priority == "" {
		lead.Priority = models.PriorityMedium
	}
	if !authz.IsGlobal(actor.Role) {
		// владельца сообщества берём из токена
		lead.CommunityID = actor.CommunityID
	}

	now := s.now()
	lead.ID = uuid.NewString()
	lead.Stage = pipeline.InitialStage(pipeline.KindLead)
	lead.Status = models.LeadStatusOpen
	lead.AssignedTo = nil // intake creates unassigned leads
	lead.StageEnteredAt = now
	lead.CreatedAt = now
	if lead.EstimatedValue.IsZero() {
		lead.EstimatedValue = decimal.Zero
	}
	return s.Repo.Create(lead)
}

func (s *LeadService) GetByID(actor models.Actor, id string) (*models.Lead, error) {
	lead, err := s.Repo.GetByID(id)
	if err != nil || lead == nil {
		return lead, err
	}
	if !authz.ScopeAllowed(actor.Role, actor.CommunityID, lead.CommunityID) {
		return nil, fmt.Errorf("%w: community scope", pipeline.ErrForbidden)
	}
	if !authz.CanView(actor.Role, pipeline.KindLead, lead.Stage) {
		return nil, fmt.Errorf("%w: role %s may not view stage %s", pipeline.ErrForbidden, actor.Role, lead.Stage)
	}
	return lead, nil
}

func (s *LeadService) List(actor models.Actor, limit, offset int) ([]*models.Lead, error) {
	community := actor.CommunityID
	if authz.IsGlobal(actor.Role) {
		community = ""
	}
	leads, err := s.Repo.Filter(models.LeadFilter{CommunityID: community, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	// роль видит только свои стадии
	out := leads[:0]
	for _, l := range leads {
		if authz.CanView(actor.Role, pipeline.KindLead, l.Stage) {
			out = append(out, l)
		}
	}
	return out, nil
}

// UpdateStatus flips the business status tag. Independent of the stage graph.
func (s *LeadService) UpdateStatus(actor models.Actor, id string, status models.LeadStatus) error {
	switch status {
	case models.LeadStatusOpen, models.LeadStatusCancelled:
	default:
		return fmt.Errorf("unknown lead status %q", status)
	}
	lead, err := s.GetByID(actor, id)
	if err != nil {
		return err
	}
	if lead == nil {
		return fmt.Errorf("%w: lead %s", pipeline.ErrNotFound, id)
	}
	return s.Repo.UpdateStatus(id, status)
}
