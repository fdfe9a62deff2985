package authz

import "salespipe/internal/pipeline"

// VisibleStages returns the stages the role may see for a kind, in the stage
// graph's natural forward order. A role whose capability set is a superset of
// another's always gets a superset of its visible stages.
func VisibleStages(role Role, kind pipeline.EntityKind) ([]pipeline.Stage, error) {
	chain, err := pipeline.Chain(kind)
	if err != nil {
		return nil, err
	}
	var out []pipeline.Stage
	for _, def := range chain {
		if CanView(role, kind, def.ID) {
			out = append(out, def.ID)
		}
	}
	return out, nil
}

// ScopeAllowed applies tenant scoping: a non-global actor may only touch
// resources of their own community. Resources without a community are open to
// any staff role.
func ScopeAllowed(role Role, actorCommunityID, resourceCommunityID string) bool {
	if IsGlobal(role) {
		return true
	}
	if resourceCommunityID == "" {
		return true
	}
	return actorCommunityID == resourceCommunityID
}
