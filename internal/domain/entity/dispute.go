package entity

import (
	"strings"
	"time"
)

type DisputeStatus string

const (
	StatusNew        DisputeStatus = "New"
	StatusOpen       DisputeStatus = "Open"
	StatusInProgress DisputeStatus = "In Progress"
	StatusResolved   DisputeStatus = "Resolved"
	StatusEscalated  DisputeStatus = "Escalated"
)

// DisputeStatuses is the recognized status set in dashboard display order.
var DisputeStatuses = []DisputeStatus{
	StatusNew,
	StatusOpen,
	StatusInProgress,
	StatusResolved,
	StatusEscalated,
}

// ParseDisputeStatus maps raw input onto a recognized status. Matching is
// case-insensitive and accepts the snake_case spelling used by older clients
// ("in_progress").
func ParseDisputeStatus(raw string) (DisputeStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	for _, s := range DisputeStatuses {
		if strings.ToLower(string(s)) == normalized {
			return s, true
		}
	}
	return "", false
}

func (s DisputeStatus) Valid() bool {
	for _, known := range DisputeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Dispute struct {
	ID              string        `json:"id"`
	Status          DisputeStatus `json:"status"`
	OrderNumber     string        `json:"order_number"`
	NatureOfDispute string        `json:"nature_of_dispute"`
	ItemDescription string        `json:"item_description"`
	ExtraDetails    string        `json:"extra_details,omitempty"`

	// Reporter identity, copied onto the record by the reporting client
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`

	DocumentURL string `json:"document_url,omitempty"`

	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`

	LastMessage          string     `json:"last_message,omitempty"`
	LastMessageTimestamp *time.Time `json:"last_message_timestamp,omitempty"`
}

// StatusChange is the confirmation of a status update. Holders of a local copy
// that is not fed by a live subscription merge it with Dispute.Apply.
type StatusChange struct {
	DisputeID  string        `json:"dispute_id"`
	Status     DisputeStatus `json:"status"`
	UpdatedAt  time.Time     `json:"updated_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

// Apply merges a confirmed status change. ResolvedAt is only ever set, never
// cleared, so a dispute that leaves Resolved keeps its original resolution time.
func (d *Dispute) Apply(change *StatusChange) {
	if change == nil || change.DisputeID != d.ID {
		return
	}
	d.Status = change.Status
	updatedAt := change.UpdatedAt
	d.UpdatedAt = &updatedAt
	if change.ResolvedAt != nil {
		resolvedAt := *change.ResolvedAt
		d.ResolvedAt = &resolvedAt
	}
}

// ResolutionTime reports how long a resolved dispute took, if both ends are known.
func (d *Dispute) ResolutionTime() (time.Duration, bool) {
	if d.Status != StatusResolved || d.CreatedAt == nil || d.ResolvedAt == nil {
		return 0, false
	}
	return d.ResolvedAt.Sub(*d.CreatedAt), true
}
