// Package pipeline defines the fixed stage graphs for the two commercial
// workflows.
//
// Lead chain:
//
//	new ──► assigned ──► in_progress ──► pending_verification ──► verified ──► pre_contract ──► contracted
//
// Company chain:
//
//	created ──► assigned ──► onboarding ──► active
//
// Both chains are linear and forward-only; contracted and active are terminal.
package pipeline

import "fmt"

// EntityKind selects which stage chain applies.
type EntityKind string

const (
	KindLead    EntityKind = "lead"
	KindCompany EntityKind = "company"
)

// Stage is a step in an entity's workflow.
type Stage string

const (
	// Lead stages.
	StageNew                 Stage = "new"
	StageAssigned            Stage = "assigned"
	StageInProgress          Stage = "in_progress"
	StagePendingVerification Stage = "pending_verification"
	StageVerified            Stage = "verified"
	StagePreContract         Stage = "pre_contract"
	StageContracted          Stage = "contracted"

	// Company stages (company reuses "assigned").
	StageCreated    Stage = "created"
	StageOnboarding Stage = "onboarding"
	StageActive     Stage = "active"
)

// StageDef describes one stage: id, display label and the stages reachable
// in exactly one step.
type StageDef struct {
	ID    Stage
	Label string
	Next  []Stage
}

var leadChain = []StageDef{
	{ID: StageNew, Label: "New", Next: []Stage{StageAssigned}},
	{ID: StageAssigned, Label: "Assigned", Next: []Stage{StageInProgress}},
	{ID: StageInProgress, Label: "In progress", Next: []Stage{StagePendingVerification}},
	{ID: StagePendingVerification, Label: "Pending verification", Next: []Stage{StageVerified}},
	{ID: StageVerified, Label: "Verified", Next: []Stage{StagePreContract}},
	{ID: StagePreContract, Label: "Pre-contract", Next: []Stage{StageContracted}},
	{ID: StageContracted, Label: "Contracted", Next: nil}, // финалка
}

var companyChain = []StageDef{
	{ID: StageCreated, Label: "Created", Next: []Stage{StageAssigned}},
	{ID: StageAssigned, Label: "Assigned", Next: []Stage{StageOnboarding}},
	{ID: StageOnboarding, Label: "Onboarding", Next: []Stage{StageActive}},
	{ID: StageActive, Label: "Active", Next: nil},
}

// Chain returns the ordered stage definitions for a kind.
func Chain(kind EntityKind) ([]StageDef, error) {
	switch kind {
	case KindLead:
		return leadChain, nil
	case KindCompany:
		return companyChain, nil
	}
	return nil, fmt.Errorf("%w: entity kind %q", ErrUnknownStage, kind)
}

func find(kind EntityKind, stage Stage) (StageDef, error) {
	chain, err := Chain(kind)
	if err != nil {
		return StageDef{}, err
	}
	for _, def := range chain {
		if def.ID == stage {
			return def, nil
		}
	}
	return StageDef{}, fmt.Errorf("%w: %q is not a %s stage", ErrUnknownStage, stage, kind)
}

// AllowedTransitions returns the set of stages reachable in one step.
func AllowedTransitions(kind EntityKind, stage Stage) ([]Stage, error) {
	def, err := find(kind, stage)
	if err != nil {
		return nil, err
	}
	return def.Next, nil
}

// CanTransition reports whether current → target is a single forward edge.
func CanTransition(kind EntityKind, current, target Stage) (bool, error) {
	next, err := AllowedTransitions(kind, current)
	if err != nil {
		return false, err
	}
	if _, err := find(kind, target); err != nil {
		return false, err
	}
	for _, s := range next {
		if s == target {
			return true, nil
		}
	}
	return false, nil
}

// IsTerminal reports whether a stage has no outgoing transitions.
func IsTerminal(kind EntityKind, stage Stage) (bool, error) {
	def, err := find(kind, stage)
	if err != nil {
		return false, err
	}
	return len(def.Next) == 0, nil
}

// Label returns the human label of a stage.
func Label(kind EntityKind, stage Stage) (string, error) {
	def, err := find(kind, stage)
	if err != nil {
		return "", err
	}
	return def.Label, nil
}

// InitialStage returns the first stage of the kind's chain.
func InitialStage(kind EntityKind) Stage {
	if kind == KindCompany {
		return StageCreated
	}
	return StageNew
}

// TerminalStage returns the last stage of the kind's chain.
func TerminalStage(kind EntityKind) Stage {
	if kind == KindCompany {
		return StageActive
	}
	return StageContracted
}

// ParseKind converts a raw string to an EntityKind.
func ParseKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case KindLead:
		return KindLead, nil
	case KindCompany:
		return KindCompany, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// ParseStage validates a raw string against the kind's stage set.
func ParseStage(kind EntityKind, s string) (Stage, error) {
	def, err := find(kind, Stage(s))
	if err != nil {
		return "", err
	}
	return def.ID, nil
}
