package models

import (
	"time"

	"salespipe/internal/authz"
)

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // не отдаём наружу
	Role         authz.Role `json:"role"`
	CommunityID  string     `json:"community_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Actor is the authenticated staff identity attached to every engine call.
type Actor struct {
	ID          string
	Role        authz.Role
	CommunityID string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
