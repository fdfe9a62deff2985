package models

import (
	"time"

	"github.com/shopspring/decimal"

	"salespipe/internal/pipeline"
)

// LeadStatus is the business status tag, independent of the pipeline stage.
type LeadStatus string

const (
	LeadStatusOpen      LeadStatus = "open"
	LeadStatusCancelled LeadStatus = "cancelled"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Lead is a prospective client record moving through the lead pipeline.
type Lead struct {
	ID             string          `json:"id"`
	CommunityID    string          `json:"community_id,omitempty"`
	CompanyName    string          `json:"company_name"`
	ContactName    string          `json:"contact_name,omitempty"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Stage          pipeline.Stage  `json:"stage"`
	Status         LeadStatus      `json:"status"`
	Priority       Priority        `json:"priority"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Score          *int            `json:"score,omitempty"` // 0..100
	AssignedTo     *string         `json:"assigned_to,omitempty"`
	StageEnteredAt time.Time       `json:"stage_entered_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LeadFilter narrows lead queries for boards and statistics.
type LeadFilter struct {
	CommunityID string
	Stage       *pipeline.Stage
	AssignedTo  []string
	Status      *LeadStatus
	Limit       int
	Offset      int
}
