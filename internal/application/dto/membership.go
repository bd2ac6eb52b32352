package dto

import (
	"slices"
	"time"

	"duesreminder/internal/domain/entity"
)

// EnrollRequest is the DTO for enrolling a member into one or more groups.
type EnrollRequest struct {
	MemberID string   `json:"member_id"`
	GroupIDs []string `json:"group_ids"`
}

// ConfirmPaymentRequest is the DTO for recording a payment asserted by the administrator.
type ConfirmPaymentRequest struct {
	MemberID string `json:"member_id"`
}

// ScheduledAction describes one pending lifecycle action.
type ScheduledAction struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}

// MembershipResponse is the DTO returned by the membership operations.
type MembershipResponse struct {
	MemberID string            `json:"member_id"`
	LastPaid string            `json:"last_paid"`
	DueDate  string            `json:"due_date"`
	Groups   []string          `json:"groups"`
	Status   string            `json:"status"`
	Pending  []ScheduledAction `json:"pending,omitempty"`
}

// ToMembershipResponse converts an entity.Membership to a MembershipResponse DTO.
func ToMembershipResponse(m *entity.Membership, pending []ScheduledAction) *MembershipResponse {
	return &MembershipResponse{
		MemberID: m.MemberID,
		LastPaid: m.LastPaid.String(),
		DueDate:  m.DueDate.String(),
		Groups:   slices.Clone(m.Groups),
		Status:   m.Status.String(),
		Pending:  pending,
	}
}
