package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"duesreminder/internal/application/dto"
	"duesreminder/internal/domain/entity"
	"duesreminder/internal/domain/repository"
	"duesreminder/internal/pkg/clock"
	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"
	"duesreminder/internal/pkg/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type membershipService struct {
	store      repository.MembershipStore
	scheduler  SchedulerService
	notifier   Messenger
	lock       *StateLock
	clock      clock.Clock
	loc        *time.Location
	periodDays int
	messages   Messages
	log        logger.Logger
	tracer     trace.Tracer
}

// MembershipConfig carries the billing settings of MembershipService.
type MembershipConfig struct {
	PeriodDays int
	Location   *time.Location
	Messages   Messages
}

// NewMembershipService creates a new instance of MembershipService implementation.
func NewMembershipService(
	store repository.MembershipStore,
	scheduler SchedulerService,
	notifier Messenger,
	lock *StateLock,
	clk clock.Clock,
	cfg MembershipConfig,
	log logger.Logger,
) MembershipService {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &membershipService{
		store:      store,
		scheduler:  scheduler,
		notifier:   notifier,
		lock:       lock,
		clock:      clk,
		loc:        loc,
		periodDays: cfg.PeriodDays,
		messages:   cfg.Messages,
		log:        log,
		tracer:     otel.Tracer(telemetry.InstrumentationName),
	}
}

// today is the current calendar date in the service location.
func (s *membershipService) today() entity.Date {
	return entity.DateOf(s.clock.Now().In(s.loc))
}

// Enroll creates or renews a member.
func (s *membershipService) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.MembershipResponse, error) {
	memberID := strings.TrimSpace(req.MemberID)
	if err := entity.ValidateMemberID(memberID); err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidArgument, err)
	}
	if len(req.GroupIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one group id is required", appErrors.ErrInvalidArgument)
	}
	for _, g := range req.GroupIDs {
		if err := entity.ValidateGroupID(g); err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidArgument, err)
		}
	}

	ctx, span := s.tracer.Start(ctx, "membership.enroll",
		trace.WithAttributes(
			attribute.String("member.id", memberID),
			attribute.StringSlice("group.ids", req.GroupIDs),
		))
	defer span.End()

	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := loadSnapshot(ctx, s.store, s.log)
	today := s.today()
	m, exists := snapshot[memberID]
	if exists {
		m.MemberID = memberID
		m.MergeGroups(req.GroupIDs)
		m.MarkPaid(today, s.periodDays)
	} else {
		m = entity.NewMembership(memberID, req.GroupIDs, today, s.periodDays)
		snapshot[memberID] = m
	}

	if err := s.store.Save(ctx, snapshot); err != nil {
		s.log.Error(fmt.Sprintf("Failed to save membership for %s", memberID), err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Membership added/updated for %s (existing: %t). Next due date: %s", memberID, exists, m.DueDate))

	deliver(ctx, s.notifier, memberID, s.messages.Enrolled(), s.log)

	if err := s.scheduler.Reschedule(ctx, memberID); err != nil {
		s.log.Error(fmt.Sprintf("Failed to reschedule member %s after enrollment", memberID), err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return dto.ToMembershipResponse(m, s.scheduler.PendingActions(memberID)), nil
}

// ConfirmPayment renews an existing member.
func (s *membershipService) ConfirmPayment(ctx context.Context, req dto.ConfirmPaymentRequest) (*dto.MembershipResponse, error) {
	memberID := strings.TrimSpace(req.MemberID)
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", appErrors.ErrInvalidArgument)
	}

	ctx, span := s.tracer.Start(ctx, "membership.confirm_payment",
		trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := loadSnapshot(ctx, s.store, s.log)
	m, ok := snapshot[memberID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErrors.ErrMemberNotFound, memberID)
	}
	m.MemberID = memberID
	m.MarkPaid(s.today(), s.periodDays)

	if err := s.store.Save(ctx, snapshot); err != nil {
		s.log.Error(fmt.Sprintf("Failed to save payment for %s", memberID), err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Payment confirmed for %s. New due date: %s", memberID, m.DueDate))

	deliver(ctx, s.notifier, memberID, s.messages.PaymentConfirmed(), s.log)

	if err := s.scheduler.Reschedule(ctx, memberID); err != nil {
		s.log.Error(fmt.Sprintf("Failed to reschedule member %s after payment", memberID), err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return dto.ToMembershipResponse(m, s.scheduler.PendingActions(memberID)), nil
}

// GetMembership returns the stored record and its pending actions.
func (s *membershipService) GetMembership(ctx context.Context, memberID string) (*dto.MembershipResponse, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", appErrors.ErrInvalidArgument)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := loadSnapshot(ctx, s.store, s.log)
	m, ok := snapshot[memberID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErrors.ErrMemberNotFound, memberID)
	}
	m.MemberID = memberID
	return dto.ToMembershipResponse(m, s.scheduler.PendingActions(memberID)), nil
}
