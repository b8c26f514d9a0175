package api

import (
	"time"

	"expenseweb/internal/workflow"
)

// Role enum constants as served by GET /me
const (
	RoleApplicant Role = "APPLICANT"
	RoleApprover  Role = "APPROVER"
	RoleAdmin     Role = "ADMIN"
)

type Role string

// Request is one expense claim as served by the upstream.
type Request struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	Amount            int64           `json:"amount"`
	Note              string          `json:"note"`
	Status            workflow.Status `json:"status"`
	LastReturnComment string          `json:"lastReturnComment,omitempty"`
}

// HistoryEntry is one immutable action-log record.
type HistoryEntry struct {
	Action    workflow.Action `json:"action"`
	ActorName string          `json:"actorName"`
	CreatedAt time.Time       `json:"createdAt"`
	Comment   string          `json:"comment,omitempty"`
}

// Me is the current session identity.
type Me struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Health is the liveness probe payload.
type Health struct {
	Status string `json:"status"`
}

// RequestInput is the create/update payload {title, amount, note}.
type RequestInput struct {
	Title  string `json:"title"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}
