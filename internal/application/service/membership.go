package service

import (
	"context"

	"duesreminder/internal/application/dto"
)

// MembershipService defines the administrator-facing membership operations.
type MembershipService interface {
	// Enroll creates the member or merges the groups into its record, resets
	// the billing dates as if freshly paid and reschedules its actions.
	Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.MembershipResponse, error)
	// ConfirmPayment resets the billing dates of an existing member and
	// reschedules its actions. Returns ErrMemberNotFound for unknown members.
	ConfirmPayment(ctx context.Context, req dto.ConfirmPaymentRequest) (*dto.MembershipResponse, error)
	// GetMembership returns the stored record and its pending actions.
	GetMembership(ctx context.Context, memberID string) (*dto.MembershipResponse, error)
}
