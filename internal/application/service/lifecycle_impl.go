package service

import (
	"context"
	"fmt"

	"duesreminder/internal/application/dto"
	"duesreminder/internal/domain/repository"
	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"
	"duesreminder/internal/pkg/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type lifecycleService struct {
	store       repository.MembershipStore
	notifier    Notifier
	admin       *AdminNotifier
	messages    Messages
	instruments *telemetry.Instruments
	log         logger.Logger
	tracer      trace.Tracer
}

// NewLifecycleService creates a new instance of LifecycleService implementation.
func NewLifecycleService(
	store repository.MembershipStore,
	notifier Notifier,
	admin *AdminNotifier,
	messages Messages,
	instruments *telemetry.Instruments,
	log logger.Logger,
) LifecycleService {
	return &lifecycleService{
		store:       store,
		notifier:    notifier,
		admin:       admin,
		messages:    messages,
		instruments: instruments,
		log:         log,
		tracer:      otel.Tracer(telemetry.InstrumentationName),
	}
}

func (s *lifecycleService) SendPreDueReminder(ctx context.Context, memberID string) dto.NotificationOutcome {
	return s.sendReminder(ctx, memberID, "pre_due", s.messages.PreDueReminder())
}

func (s *lifecycleService) SendDueReminder(ctx context.Context, memberID string) dto.NotificationOutcome {
	return s.sendReminder(ctx, memberID, "due", s.messages.DueReminder())
}

// sendReminder is read-only with respect to the store and never retries.
func (s *lifecycleService) sendReminder(ctx context.Context, memberID, kind, text string) dto.NotificationOutcome {
	ctx, span := s.tracer.Start(ctx, "lifecycle.reminder",
		trace.WithAttributes(
			attribute.String("member.id", memberID),
			attribute.String("reminder.kind", kind),
		))
	defer span.End()

	snapshot := loadSnapshot(ctx, s.store, s.log)
	m, ok := snapshot[memberID]
	if !ok || !m.IsActive() {
		s.log.Info(fmt.Sprintf("Skipping %s reminder for member %s: not an active member", kind, memberID))
		return dto.NotificationOutcome{RecipientID: memberID, Skipped: true}
	}

	out := deliver(ctx, s.notifier, memberID, text, s.log)
	attrs := metric.WithAttributes(attribute.String("reminder.kind", kind))
	if out.Err != nil {
		s.instruments.RemindersFailed.Add(ctx, 1, attrs)
		span.RecordError(out.Err)
		return out
	}
	s.instruments.RemindersSent.Add(ctx, 1, attrs)
	s.log.Info(fmt.Sprintf("Sent %s reminder to member %s", kind, memberID))
	return out
}

// Kick removes the member from each group independently, marks it kicked
// whatever the removals returned, then notifies the member and the administrator.
func (s *lifecycleService) Kick(ctx context.Context, memberID string) (*dto.KickReport, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.kick",
		trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	snapshot := loadSnapshot(ctx, s.store, s.log)
	m, ok := snapshot[memberID]
	if !ok {
		s.log.Warn(fmt.Sprintf("Member %s not found during kick (deleted?)", memberID))
		return nil, nil
	}

	report := &dto.KickReport{MemberID: memberID}
	for _, groupID := range m.Groups {
		err := s.notifier.RemoveMember(ctx, groupID, memberID)
		if err != nil {
			s.log.Error(fmt.Sprintf("Error kicking %s from %s", memberID, groupID), err)
			s.instruments.RemovalFailures.Add(ctx, 1)
		}
		report.Removals = append(report.Removals, dto.RemovalOutcome{GroupID: groupID, Err: err})
	}

	m.MarkKicked()
	var saveErr error
	if err := s.store.Save(ctx, snapshot); err != nil {
		saveErr = fmt.Errorf("%w: mark member %s kicked: %v", appErrors.ErrDatabaseOperation, memberID, err)
		span.RecordError(saveErr)
	} else {
		s.instruments.Kicks.Add(ctx, 1)
	}

	report.MemberNotice = deliver(ctx, s.notifier, memberID, s.messages.Kicked(), s.log)
	report.AdminNotices = s.admin.Notify(ctx, s.messages.KickSummary(memberID, report.RemovedGroups(), report.FailedGroups()))

	s.log.Info(fmt.Sprintf("Kicked member %s: removed from %v, failed %v", memberID, report.RemovedGroups(), report.FailedGroups()))
	return report, saveErr
}
