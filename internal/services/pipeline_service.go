package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
	"salespipe/internal/repositories"
)

// Notifier receives best-effort events after a transition committed.
// Failures are logged and never affect the transition result.
type Notifier interface {
	LeadConverted(lead *models.Lead, company *models.Company)
}

// PipelineService is the sole mutation path of the engine: it validates a
// requested stage move against the stage graph and the actor's capabilities,
// commits it with a compare-and-swap on the observed stage, records the audit
// trail and converts a lead that reaches its terminal stage into a company.
type PipelineService struct {
	Leads     repositories.LeadRepository
	Companies repositories.CompanyRepository
	History   repositories.HistoryRepository
	Notifiers []Notifier
	Now       func() time.Time
}

func NewPipelineService(leads repositories.LeadRepository, companies repositories.CompanyRepository,
	history repositories.HistoryRepository, notifiers ...Notifier) *PipelineService {
	return &PipelineService{
		Leads:     leads,
		Companies: companies,
		History:   history,
		Notifiers: notifiers,
		Now:       time.Now,
	}
}

func (s *PipelineService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// TransitionRequest carries one stage-move attempt. Expected is the stage the
// caller observed when forming the request; the commit only applies if the
// entity still holds it. AssigneeID may be bundled with the assignment edge.
type TransitionRequest struct {
	Kind       pipeline.EntityKind
	EntityID   string
	Target     pipeline.Stage
	Expected   pipeline.Stage
	AssigneeID *string
}

// TransitionResult is the updated entity, plus the company created when a
// lead landed on its terminal stage.
type TransitionResult struct {
	Lead      *models.Lead    `json:"lead,omitempty"`
	Company   *models.Company `json:"company,omitempty"`
	Converted *models.Company `json:"converted,omitempty"`
}

// Transition runs the full accept/reject pipeline of a stage move. Errors are
// the sentinels of the pipeline package; ErrConflict is the only one worth
// retrying, after re-fetching the entity.
func (s *PipelineService) Transition(actor models.Actor, req TransitionRequest) (*TransitionResult, error) {
	switch req.Kind {
	case pipeline.KindLead:
		return s.transitionLead(actor, req)
	case pipeline.KindCompany:
		return s.transitionCompany(actor, req)
	}
	return nil, fmt.Errorf("unknown entity kind %q", req.Kind)
}

func (s *PipelineService) transitionLead(actor models.Actor, req TransitionRequest) (*TransitionResult, error) {
	lead, err := s.Leads.GetByID(req.EntityID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, fmt.Errorf("%w: lead %s", pipeline.ErrNotFound, req.EntityID)
	}
	if !authz.ScopeAllowed(actor.Role, actor.CommunityID, lead.CommunityID) {
		return nil, fmt.Errorf("%w: community scope", pipeline.ErrForbidden)
	}

	// Конвертированный лид — архив: никакие переходы больше не принимаются.
	terminal, err := pipeline.IsTerminal(pipeline.KindLead, lead.Stage)
	if err != nil {
		return nil, err
	}
	if terminal {
		return nil, pipeline.ErrEntityArchived
	}

	if err := s.checkMove(actor, pipeline.KindLead, req); err != nil {
		return nil, err
	}
	if lead.Stage != req.Expected {
		return nil, fmt.Errorf("%w: lead is at %s, caller observed %s",
			pipeline.ErrConflict, lead.Stage, req.Expected)
	}
	// Leaving the initial stage requires an assignee, supplied now or already set.
	if req.AssigneeID == nil && lead.AssignedTo == nil {
		return nil, pipeline.ErrAssigneeRequired
	}

	now := s.now()
	ok, err := s.Leads.UpdateStageCAS(lead.ID, req.Expected, req.Target, req.AssigneeID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pipeline.ErrConflict
	}
	s.record(pipeline.KindLead, lead.ID, req.Expected, req.Target, actor.ID, now)

	lead.Stage = req.Target
	lead.StageEnteredAt = now
	if req.AssigneeID != nil {
		lead.AssignedTo = req.AssigneeID
	}

	result := &TransitionResult{Lead: lead}
	isTerminal, err := pipeline.IsTerminal(pipeline.KindLead, req.Target)
	if err != nil {
		return nil, err
	}
	if isTerminal {
		company, err := s.convert(actor, lead, now)
		if err != nil {
			return nil, err
		}
		result.Converted = company
	}
	return result, nil
}

func (s *PipelineService) transitionCompany(actor models.Actor, req TransitionRequest) (*TransitionResult, error) {
	company, err := s.Companies.GetByID(req.EntityID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: company %s", pipeline.ErrNotFound, req.EntityID)
	}
	if !authz.ScopeAllowed(actor.Role, actor.CommunityID, company.CommunityID) {
		return nil, fmt.Errorf("%w: community scope", pipeline.ErrForbidden)
	}

	if err := s.checkMove(actor, pipeline.KindCompany, req); err != nil {
		return nil, err
	}
	if company.Stage != req.Expected {
		return nil, fmt.Errorf("%w: company is at %s, caller observed %s",
			pipeline.ErrConflict, company.Stage, req.Expected)
	}
	if req.AssigneeID == nil && company.AccountManager == nil {
		return nil, pipeline.ErrAssigneeRequired
	}

	now := s.now()
	ok, err := s.Companies.UpdateStageCAS(company.ID, req.Expected, req.Target, req.AssigneeID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pipeline.ErrConflict
	}
	s.record(pipeline.KindCompany, company.ID, req.Expected, req.Target, actor.ID, now)

	company.Stage = req.Target
	company.StageEnteredAt = now
	if req.AssigneeID != nil {
		company.AccountManager = req.AssigneeID
	}
	return &TransitionResult{Company: company}, nil
}

// checkMove enforces the stage graph first, then the actor's edge grant, so a
// user gets "transition not allowed" for an impossible move even when they
// also lack the capability.
func (s *PipelineService) checkMove(actor models.Actor, kind pipeline.EntityKind, req TransitionRequest) error {
	ok, err := pipeline.CanTransition(kind, req.Expected, req.Target)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s → %s", pipeline.ErrInvalidTransition, req.Expected, req.Target)
	}
	if !authz.CanTransition(actor.Role, kind, req.Expected, req.Target) {
		return fmt.Errorf("%w: role %s may not move %s from %s to %s",
			pipeline.ErrForbidden, actor.Role, kind, req.Expected, req.Target)
	}
	return nil
}

// record appends the audit-trail entry. The CAS update is the commit point;
// a failed append loses one history row but never corrupts entity state.
func (s *PipelineService) record(kind pipeline.EntityKind, entityID string, from, to pipeline.Stage, actorID string, at time.Time) {
	ev := &models.StageEvent{
		ID:         uuid.NewString(),
		EntityKind: kind,
		EntityID:   entityID,
		FromStage:  from,
		ToStage:    to,
		ActorID:    actorID,
		OccurredAt: at,
	}
	if err := s.History.Append(ev); err != nil {
		log.Warn().Err(err).Str("entity_id", entityID).Msg("[pipeline] history append failed")
	}
}

// DaysInCurrentStage returns how long the entity has dwelt in its stage.
func (s *PipelineService) DaysInCurrentStage(stageEnteredAt time.Time) float64 {
	return s.now().Sub(stageEnteredAt).Hours() / 24
}

// Trail returns the ordered audit trail of one entity.
func (s *PipelineService) Trail(kind pipeline.EntityKind, entityID string) ([]*models.StageEvent, error) {
	return s.History.ListByEntity(kind, entityID)
}

// convert creates the company for a lead that reached its terminal stage.
// Idempotent on from_lead: at most one company per converted lead.
func (s *PipelineService) convert(actor models.Actor, lead *models.Lead, now time.Time) (*models.Company, error) {
	existing, err := s.Companies.GetByFromLead(lead.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	company := &models.Company{
		ID:             uuid.NewString(),
		CommunityID:    lead.CommunityID,
		Name:           lead.CompanyName,
		Email:          lead.Email,
		Phone:          lead.Phone,
		Stage:          pipeline.StageAssigned,
		Status:         models.CompanyStatusPending,
		AccountManager: lead.AssignedTo,
		FromLead:       &lead.ID,
		StageEnteredAt: now,
		CreatedAt:      now,
	}
	if err := s.Companies.Create(company); err != nil {
		return nil, fmt.Errorf("convert lead %s: %w", lead.ID, err)
	}
	// The company starts at assigned, so the trail carries its created→assigned hop.
	s.record(pipeline.KindCompany, company.ID, pipeline.StageCreated, pipeline.StageAssigned, actor.ID, now)

	for _, n := range s.Notifiers {
		n.LeadConverted(lead, company)
	}
	return company, nil
}
