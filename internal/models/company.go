package models

import (
	"time"

	"salespipe/internal/pipeline"
)

// CompanyStatus is an approval tag, independent of the pipeline stage.
type CompanyStatus string

const (
	CompanyStatusPending   CompanyStatus = "pending"
	CompanyStatusApproved  CompanyStatus = "approved"
	CompanyStatusRejected  CompanyStatus = "rejected"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Company is a business account, created directly or converted from a lead.
type Company struct {
	ID             string         `json:"id"`
	CommunityID    string         `json:"community_id,omitempty"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Sector         string         `json:"sector,omitempty"`
	Stage          pipeline.Stage `json:"stage"`
	Status         CompanyStatus  `json:"status"`
	AccountManager *string        `json:"account_manager,omitempty"`
	FromLead       *string        `json:"from_lead,omitempty"` // write-once, set at conversion
	StageEnteredAt time.Time      `json:"stage_entered_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CompanyFilter narrows company queries for boards and statistics.
type CompanyFilter struct {
	CommunityID    string
	Stage          *pipeline.Stage
	AccountManager []string
	Status         *CompanyStatus
	Limit          int
	Offset         int
}
