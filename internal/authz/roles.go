// Package authz holds the static role → capability table for the commercial
// pipeline. The table is configuration, not logic: every role has an explicit
// answer for every stage of both workflows, and Validate checks that at
// startup.
package authz

import (
	"fmt"

	"salespipe/internal/pipeline"
)

type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleAdmin         Role = "admin"
	RoleAdminOps      Role = "admin_ops"
	RoleCRMCommercial Role = "crm_commercial"
	RoleCRMContent    Role = "crm_content"
	RoleManagerJunior Role = "manager_junior"
	RoleManagerMiddle Role = "manager_middle"
	RoleManagerSenior Role = "manager_senior"
)

// AllRoles lists every known role; the capability table must cover each one.
var AllRoles = []Role{
	RoleSuperAdmin, RoleAdmin, RoleAdminOps,
	RoleCRMCommercial, RoleCRMContent,
	RoleManagerJunior, RoleManagerMiddle, RoleManagerSenior,
}

// ParseRole converts a raw string to a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if Role(s) == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsGlobal reports whether the role bypasses tenant scoping.
func IsGlobal(r Role) bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleAdminOps
}

// IsManager reports whether the role is one of the account-manager tiers.
func IsManager(r Role) bool {
	return r == RoleManagerJunior || r == RoleManagerMiddle || r == RoleManagerSenior
}

// IsCRM reports whether the role is one of the CRM staff roles.
func IsCRM(r Role) bool {
	return r == RoleCRMCommercial || r == RoleCRMContent
}

// Edge is a transition grant: the role may move an entity from From to To.
type Edge struct {
	From pipeline.Stage
	To   pipeline.Stage
}

// Grants is the capability set of one role for one entity kind.
type Grants struct {
	View        []pipeline.Stage
	Transitions []Edge
}

func stages(ss ...pipeline.Stage) []pipeline.Stage { return ss }

var allLeadStages = stages(
	pipeline.StageNew, pipeline.StageAssigned, pipeline.StageInProgress,
	pipeline.StagePendingVerification, pipeline.StageVerified,
	pipeline.StagePreContract, pipeline.StageContracted,
)

var allCompanyStages = stages(
	pipeline.StageCreated, pipeline.StageAssigned,
	pipeline.StageOnboarding, pipeline.StageActive,
)

var allLeadEdges = []Edge{
	{pipeline.StageNew, pipeline.StageAssigned},
	{pipeline.StageAssigned, pipeline.StageInProgress},
	{pipeline.StageInProgress, pipeline.StagePendingVerification},
	{pipeline.StagePendingVerification, pipeline.StageVerified},
	{pipeline.StageVerified, pipeline.StagePreContract},
	{pipeline.StagePreContract, pipeline.StageContracted},
}

var allCompanyEdges = []Edge{
	{pipeline.StageCreated, pipeline.StageAssigned},
	{pipeline.StageAssigned, pipeline.StageOnboarding},
	{pipeline.StageOnboarding, pipeline.StageActive},
}

// crmGrants: intake plus the verification/contracting tail for leads; full
// company visibility for handover, but only the assignment edge.
var crmGrants = map[pipeline.EntityKind]Grants{
	pipeline.KindLead: {
		View: stages(
			pipeline.StageNew, pipeline.StagePendingVerification,
			pipeline.StageVerified, pipeline.StagePreContract, pipeline.StageContracted,
		),
		Transitions: []Edge{
			{pipeline.StageNew, pipeline.StageAssigned},
			{pipeline.StagePendingVerification, pipeline.StageVerified},
			{pipeline.StageVerified, pipeline.StagePreContract},
			{pipeline.StagePreContract, pipeline.StageContracted},
		},
	},
	pipeline.KindCompany: {
		View: allCompanyStages,
		Transitions: []Edge{
			{pipeline.StageCreated, pipeline.StageAssigned},
		},
	},
}

// managerGrants: the operational middle only. Managers never see brand-new
// unassigned leads nor the contracting tail.
var managerGrants = map[pipeline.EntityKind]Grants{
	pipeline.KindLead: {
		View: stages(
			pipeline.StageAssigned, pipeline.StageInProgress, pipeline.StagePendingVerification,
		),
		Transitions: []Edge{
			{pipeline.StageAssigned, pipeline.StageInProgress},
			{pipeline.StageInProgress, pipeline.StagePendingVerification},
		},
	},
	pipeline.KindCompany: {
		View: stages(
			pipeline.StageAssigned, pipeline.StageOnboarding, pipeline.StageActive,
		),
		Transitions: []Edge{
			{pipeline.StageAssigned, pipeline.StageOnboarding},
			{pipeline.StageOnboarding, pipeline.StageActive},
		},
	},
}

var adminGrants = map[pipeline.EntityKind]Grants{
	pipeline.KindLead:    {View: allLeadStages, Transitions: allLeadEdges},
	pipeline.KindCompany: {View: allCompanyStages, Transitions: allCompanyEdges},
}

var capabilities = map[Role]map[pipeline.EntityKind]Grants{
	RoleSuperAdmin:    adminGrants,
	RoleAdmin:         adminGrants,
	RoleAdminOps:      adminGrants,
	RoleCRMCommercial: crmGrants,
	RoleCRMContent:    crmGrants,
	RoleManagerJunior: managerGrants,
	RoleManagerMiddle: managerGrants,
	RoleManagerSenior: managerGrants,
}

// Capabilities returns the grants of a role for a kind. Unknown roles get an
// empty grant set, never a panic.
func Capabilities(role Role, kind pipeline.EntityKind) Grants {
	byKind, ok := capabilities[role]
	if !ok {
		return Grants{}
	}
	return byKind[kind]
}

// CanView reports whether the role may see entities in the given stage.
func CanView(role Role, kind pipeline.EntityKind, stage pipeline.Stage) bool {
	for _, s := range Capabilities(role, kind).View {
		if s == stage {
			return true
		}
	}
	return false
}

// CanTransition reports whether the role holds the from → to edge grant.
func CanTransition(role Role, kind pipeline.EntityKind, from, to pipeline.Stage) bool {
	for _, e := range Capabilities(role, kind).Transitions {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Validate checks the capability table for completeness: every role has an
// entry for both kinds, every granted stage exists in the kind's chain and
// every granted edge is a real edge of the stage graph. Called once at
// startup; a broken table is a deployment bug, not a runtime condition.
func Validate() error {
	for _, role := range AllRoles {
		byKind, ok := capabilities[role]
		if !ok {
			return fmt.Errorf("authz: role %q has no capability entry", role)
		}
		for _, kind := range []pipeline.EntityKind{pipeline.KindLead, pipeline.KindCompany} {
			grants, ok := byKind[kind]
			if !ok {
				return fmt.Errorf("authz: role %q has no entry for kind %q", role, kind)
			}
			for _, s := range grants.View {
				if _, err := pipeline.ParseStage(kind, string(s)); err != nil {
					return fmt.Errorf("authz: role %q view grant: %w", role, err)
				}
			}
			for _, e := range grants.Transitions {
				ok, err := pipeline.CanTransition(kind, e.From, e.To)
				if err != nil {
					return fmt.Errorf("authz: role %q transition grant: %w", role, err)
				}
				if !ok {
					return fmt.Errorf("authz: role %q grants impossible edge %s → %s for %s",
						role, e.From, e.To, kind)
				}
			}
		}
	}
	return nil
}
