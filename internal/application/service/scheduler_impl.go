package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"duesreminder/internal/application/dto"
	"duesreminder/internal/domain/constant"
	"duesreminder/internal/domain/entity"
	"duesreminder/internal/domain/repository"
	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"
	"duesreminder/internal/pkg/telemetry"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// scheduledJob is the cancellable handle of one pending action.
// gen identifies the reschedule that created it.
type scheduledJob struct {
	entryID cron.EntryID
	gen     uint64
	at      time.Time
}

type schedulerService struct {
	jobs    JobScheduler
	store   repository.MembershipStore
	actions LifecycleService
	lock    *StateLock
	loc     *time.Location
	log     logger.Logger
	tracer  trace.Tracer

	// map[memberID]map[kind]job
	mu       sync.Mutex // Protect jobStore and gen
	jobStore map[string]map[constant.ActionKind]scheduledJob
	gen      uint64
}

// NewSchedulerService creates a new instance of SchedulerService implementation.
// Trigger instants are midnight of the relevant calendar day in loc.
func NewSchedulerService(
	jobs JobScheduler,
	store repository.MembershipStore,
	actions LifecycleService,
	lock *StateLock,
	loc *time.Location,
	log logger.Logger,
) SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	return &schedulerService{
		jobs:     jobs,
		store:    store,
		actions:  actions,
		lock:     lock,
		loc:      loc,
		log:      log,
		tracer:   otel.Tracer(telemetry.InstrumentationName),
		jobStore: make(map[string]map[constant.ActionKind]scheduledJob),
	}
}

// Reschedule cancels every pending action of the member and schedules new ones.
func (s *schedulerService) Reschedule(ctx context.Context, memberID string) error {
	ctx, span := s.tracer.Start(ctx, "scheduler.reschedule",
		trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	s.Cancel(memberID)

	snapshot := loadSnapshot(ctx, s.store, s.log)
	m, ok := snapshot[memberID]
	if !ok {
		err := fmt.Errorf("%w: cannot schedule member %s", appErrors.ErrMemberNotFound, memberID)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := s.schedule(m); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// schedule registers the three actions of an active member. A kicked member
// gets none.
func (s *schedulerService) schedule(m *entity.Membership) error {
	if !m.IsActive() {
		s.log.Debug(fmt.Sprintf("Member %s is %s, nothing to schedule", m.MemberID, m.Status))
		return nil
	}

	for _, kind := range constant.ActionKinds {
		at := m.DueDate.AddDays(kind.OffsetDays()).In(s.loc)
		gen := s.nextGen()
		entryID, err := s.jobs.ScheduleAt(at, s.jobFunc(m.MemberID, kind, gen))
		if err != nil {
			s.Cancel(m.MemberID)
			return fmt.Errorf("%w: %s for member %s: %v", appErrors.ErrScheduling, kind, m.MemberID, err)
		}
		s.storeJob(m.MemberID, kind, scheduledJob{entryID: entryID, gen: gen, at: at})
		s.log.Info(fmt.Sprintf("Scheduled %s for member %s at %v (Job ID: %d)", kind, m.MemberID, at, entryID))
	}
	return nil
}

// jobFunc binds only the member identity; the action re-reads the record when it fires.
func (s *schedulerService) jobFunc(memberID string, kind constant.ActionKind, gen uint64) func() {
	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()

		// A reschedule may have superseded this job while it waited for the lock.
		kinds := s.claimJobs(memberID, kind, gen)
		if len(kinds) == 0 {
			s.log.Debug(fmt.Sprintf("Skipping superseded %s job for member %s", kind, memberID))
			return
		}
		for _, k := range kinds {
			s.run(memberID, k)
		}
	}
}

// run executes one lifecycle action. The caller holds the StateLock.
func (s *schedulerService) run(memberID string, kind constant.ActionKind) {
	runID := uuid.NewString()
	ctx, span := s.tracer.Start(context.Background(), "scheduler.fire",
		trace.WithAttributes(
			attribute.String("member.id", memberID),
			attribute.String("action.kind", kind.String()),
			attribute.String("run.id", runID),
		))
	defer span.End()

	s.log.Info(fmt.Sprintf("Executing %s for member %s (run %s)", kind, memberID, runID))
	switch kind {
	case constant.ActionPreDueReminder:
		s.actions.SendPreDueReminder(ctx, memberID)
	case constant.ActionDueReminder:
		s.actions.SendDueReminder(ctx, memberID)
	case constant.ActionKick:
		if _, err := s.actions.Kick(ctx, memberID); err != nil {
			s.log.Error(fmt.Sprintf("Kick for member %s (run %s) finished with error", memberID, runID), err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
}

func (s *schedulerService) nextGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// storeJob stores the handle for a member's action.
func (s *schedulerService) storeJob(memberID string, kind constant.ActionKind, job scheduledJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobStore[memberID]; !ok {
		s.jobStore[memberID] = make(map[constant.ActionKind]scheduledJob)
	}
	s.jobStore[memberID][kind] = job
}

// claimJobs takes the handle of (memberID, kind) if it is still the current
// one, together with any earlier kinds of the member still pending. Those
// are overdue, as their instants precede this one. The result is in firing
// order, so jobs released together by a catch-up run in order whichever
// acquired the lock first.
func (s *schedulerService) claimJobs(memberID string, kind constant.ActionKind, gen uint64) []constant.ActionKind {
	s.mu.Lock()
	jobs, ok := s.jobStore[memberID]
	job, exists := jobs[kind]
	if !ok || !exists || job.gen != gen {
		s.mu.Unlock()
		return nil
	}

	var kinds []constant.ActionKind
	var entries []cron.EntryID
	for _, k := range constant.ActionKinds {
		if j, pending := jobs[k]; pending {
			kinds = append(kinds, k)
			entries = append(entries, j.entryID)
			delete(jobs, k)
		}
		if k == kind {
			break
		}
	}
	if len(jobs) == 0 {
		delete(s.jobStore, memberID)
	}
	s.mu.Unlock()

	// One-shot entries stay in the cron table until removed.
	for _, id := range entries {
		s.jobs.RemoveJob(id)
	}
	return kinds
}

// Cancel drops every pending action of the member.
func (s *schedulerService) Cancel(memberID string) {
	s.mu.Lock()
	jobs := s.jobStore[memberID]
	delete(s.jobStore, memberID)
	s.mu.Unlock()

	for kind, job := range jobs {
		s.jobs.RemoveJob(job.entryID)
		s.log.Info(fmt.Sprintf("Cancelled %s for member %s (Job ID: %d)", kind, memberID, job.entryID))
	}
}

// PendingActions lists the member's pending actions in firing order.
func (s *schedulerService) PendingActions(memberID string) []dto.ScheduledAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.jobStore[memberID]
	var out []dto.ScheduledAction
	for _, kind := range constant.ActionKinds {
		if job, ok := jobs[kind]; ok {
			out = append(out, dto.ScheduledAction{Kind: kind.String(), At: job.at})
		}
	}
	return out
}

// InitializeSchedules loads memberships from the store and schedules them on startup.
// Instants already in the past fire immediately.
func (s *schedulerService) InitializeSchedules(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.log.Info("Initializing schedules from membership store...")
	snapshot := loadSnapshot(ctx, s.store, s.log)

	scheduled, skipped := 0, 0
	var firstErr error
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		m := snapshot[id]
		m.MemberID = id
		if !m.IsActive() {
			skipped++
			continue
		}
		s.Cancel(id)
		if err := s.schedule(m); err != nil {
			s.log.Error(fmt.Sprintf("Failed to schedule member %s during init", id), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		scheduled++
	}

	s.log.Info(fmt.Sprintf("Schedule initialization complete. Scheduled: %d, Skipped (kicked): %d", scheduled, skipped))
	return firstErr
}

// Stop stops the underlying scheduler.
func (s *schedulerService) Stop() {
	s.jobs.Stop()
}
