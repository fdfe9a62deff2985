package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
	"salespipe/internal/repositories"
)

// StatsScope selects whose book of work the aggregates cover.
type StatsScope string

const (
	ScopeMe   StatsScope = "me"   // only entities assigned to the caller
	ScopeTeam StatsScope = "team" // entities assigned within the caller's role group
	ScopeAll  StatsScope = "all"  // the whole tenant (or everything, for global roles)
)

// StatsResult holds the derived pipeline aggregates. ConversionRate is a
// percentage in [0,100] and is 0 over an empty scope; AvgDaysToConvert is nil
// until at least one entity reached the terminal stage.
type StatsResult struct {
	Kind             pipeline.EntityKind    `json:"kind"`
	Scope            StatsScope             `json:"scope"`
	PerStage         map[pipeline.Stage]int `json:"per_stage"`
	TotalValue       decimal.Decimal        `json:"total_value"`
	ConversionRate   float64                `json:"conversion_rate"`
	AvgDaysToConvert *float64               `json:"avg_days_to_convert"`
	PendingCount     int                    `json:"pending_count"`
}

// StatsService computes aggregates strictly from persisted entity and history
// state; it never errors on an empty scope.
type StatsService struct {
	Leads     repositories.LeadRepository
	Companies repositories.CompanyRepository
	History   repositories.HistoryRepository
	Users     repositories.UserRepository
}

func NewStatsService(leads repositories.LeadRepository, companies repositories.CompanyRepository,
	history repositories.HistoryRepository, users repositories.UserRepository) *StatsService {
	return &StatsService{Leads: leads, Companies: companies, History: history, Users: users}
}

// roleGroup returns the peer roles of the caller for the team scope.
func roleGroup(role authz.Role) []authz.Role {
	switch {
	case authz.IsManager(role):
		return []authz.Role{authz.RoleManagerJunior, authz.RoleManagerMiddle, authz.RoleManagerSenior}
	case authz.IsCRM(role):
		return []authz.Role{authz.RoleCRMCommercial, authz.RoleCRMContent}
	default:
		return nil
	}
}

// resolveScope turns the requested scope into (community, assignee-set)
// filters. An empty assignee list means "no assignee restriction".
func (s *StatsService) resolveScope(actor models.Actor, scope StatsScope) (string, []string, error) {
	community := actor.CommunityID
	if authz.IsGlobal(actor.Role) {
		community = ""
	}
	switch scope {
	case ScopeMe:
		return community, []string{actor.ID}, nil
	case ScopeTeam:
		group := roleGroup(actor.Role)
		if group == nil {
			// admin "team" is the whole tenant
			return community, nil, nil
		}
		ids, err := s.Users.ListIDsByRoles(community, group)
		if err != nil {
			return "", nil, err
		}
		if len(ids) == 0 {
			// caller at least is in their own team
			ids = []string{actor.ID}
		}
		return community, ids, nil
	case ScopeAll:
		return community, nil, nil
	}
	return "", nil, fmt.Errorf("unknown stats scope %q", scope)
}

// Compute aggregates the scoped entities: per-stage counts, total estimated
// value (leads only), conversion rate, average days to convert and the count
// of entities still in flight.
func (s *StatsService) Compute(actor models.Actor, kind pipeline.EntityKind, scope StatsScope) (*StatsResult, error) {
	community, assignees, err := s.resolveScope(actor, scope)
	if err != nil {
		return nil, err
	}

	result := &StatsResult{
		Kind:       kind,
		Scope:      scope,
		PerStage:   map[pipeline.Stage]int{},
		TotalValue: decimal.Zero,
	}
	terminal := pipeline.TerminalStage(kind)

	type entityRow struct {
		id        string
		stage     pipeline.Stage
		createdAt time.Time
	}
	var rows []entityRow

	switch kind {
	case pipeline.KindLead:
		leads, err := s.Leads.Filter(models.LeadFilter{CommunityID: community, AssignedTo: assignees})
		if err != nil {
			return nil, err
		}
		for _, l := range leads {
			rows = append(rows, entityRow{id: l.ID, stage: l.Stage, createdAt: l.CreatedAt})
			result.TotalValue = result.TotalValue.Add(l.EstimatedValue)
		}
	case pipeline.KindCompany:
		companies, err := s.Companies.Filter(models.CompanyFilter{CommunityID: community, AccountManager: assignees})
		if err != nil {
			return nil, err
		}
		for _, c := range companies {
			rows = append(rows, entityRow{id: c.ID, stage: c.Stage, createdAt: c.CreatedAt})
		}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	var convertedIDs []string
	createdAt := map[string]time.Time{}
	for _, row := range rows {
		result.PerStage[row.stage]++
		if row.stage == terminal {
			convertedIDs = append(convertedIDs, row.id)
			createdAt[row.id] = row.createdAt
		} else {
			result.PendingCount++
		}
	}

	total := len(rows)
	if total > 0 {
		rate := float64(len(convertedIDs)) / float64(total) * 100
		if rate > 100 {
			rate = 100
		}
		result.ConversionRate = rate
	}

	if len(convertedIDs) > 0 {
		entryTimes, err := s.History.EntryTimes(kind, terminal, convertedIDs)
		if err != nil {
			return nil, err
		}
		var sum float64
		var n int
		for id, at := range entryTimes {
			sum += at.Sub(createdAt[id]).Hours() / 24
			n++
		}
		if n > 0 {
			avg := sum / float64(n)
			result.AvgDaysToConvert = &avg
		}
	}
	return result, nil
}
