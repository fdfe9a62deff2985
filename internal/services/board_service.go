package services

import (
	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
	"salespipe/internal/repositories"
)

// BoardColumn is one kanban column: a stage and the entities sitting in it.
type BoardColumn struct {
	ID        pipeline.Stage    `json:"id"`
	Label     string            `json:"label"`
	Leads     []*models.Lead    `json:"leads,omitempty"`
	Companies []*models.Company `json:"companies,omitempty"`
}

type Board struct {
	Kind   pipeline.EntityKind `json:"kind"`
	Stages []BoardColumn       `json:"stages"`
}

// BoardService builds the read-only, role-filtered board view.
type BoardService struct {
	Leads     repositories.LeadRepository
	Companies repositories.CompanyRepository
}

func NewBoardService(leads repositories.LeadRepository, companies repositories.CompanyRepository) *BoardService {
	return &BoardService{Leads: leads, Companies: companies}
}

// VisibleBoard returns only the stages the actor's role may view, in forward
// order, each column restricted to the actor's community unless the role is
// global.
func (s *BoardService) VisibleBoard(actor models.Actor, kind pipeline.EntityKind) (*Board, error) {
	visible, err := authz.VisibleStages(actor.Role, kind)
	if err != nil {
		return nil, err
	}

	community := actor.CommunityID
	if authz.IsGlobal(actor.Role) {
		community = "" // глобальные роли видят все сообщества
	}

	board := &Board{Kind: kind}
	for _, stage := range visible {
		label, err := pipeline.Label(kind, stage)
		if err != nil {
			return nil, err
		}
		col := BoardColumn{ID: stage, Label: label}
		st := stage
		switch kind {
		case pipeline.KindLead:
			col.Leads, err = s.Leads.Filter(models.LeadFilter{CommunityID: community, Stage: &st})
		case pipeline.KindCompany:
			col.Companies, err = s.Companies.Filter(models.CompanyFilter{CommunityID: community, Stage: &st})
		}
		if err != nil {
			return nil, err
		}
		board.Stages = append(board.Stages, col)
	}
	return board, nil
}
