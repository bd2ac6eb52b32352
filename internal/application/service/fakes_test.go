package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"duesreminder/internal/domain/entity"
	"duesreminder/internal/infrastructure/database/memory"
	"duesreminder/internal/pkg/clock"
	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"
	"duesreminder/internal/pkg/telemetry"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
)

const adminID = "1000"

// day0 is the reference "today" of every scenario.
var day0 = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

type fakeJob struct {
	id  cron.EntryID
	at  time.Time
	cmd func()
}

// fakeJobs is a JobScheduler whose jobs only run when RunUntil is called.
type fakeJobs struct {
	mu      sync.Mutex
	next    cron.EntryID
	jobs    map[cron.EntryID]*fakeJob
	stopped bool
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[cron.EntryID]*fakeJob)}
}

func (f *fakeJobs) ScheduleAt(at time.Time, cmd func()) (cron.EntryID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return 0, fmt.Errorf("stopped")
	}
	f.next++
	f.jobs[f.next] = &fakeJob{id: f.next, at: at, cmd: cmd}
	return f.next, nil
}

func (f *fakeJobs) RemoveJob(id cron.EntryID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, id)
}

func (f *fakeJobs) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeJobs) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// jobAt returns the command of the job scheduled at t.
func (f *fakeJobs) jobAt(t time.Time) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.at.Equal(t) {
			return j.cmd
		}
	}
	return nil
}

// RunUntil fires, in time order, every job due at or before t.
func (f *fakeJobs) RunUntil(t time.Time) {
	for {
		f.mu.Lock()
		var due *fakeJob
		for _, j := range f.jobs {
			if j.at.After(t) {
				continue
			}
			if due == nil || j.at.Before(due.at) || (j.at.Equal(due.at) && j.id < due.id) {
				due = j
			}
		}
		if due == nil {
			f.mu.Unlock()
			return
		}
		delete(f.jobs, due.id)
		f.mu.Unlock()
		due.cmd()
	}
}

type sentMessage struct {
	to   string
	text string
}

type removal struct {
	group  string
	member string
}

// fakeNotifier records every call and fails the ones it is told to.
type fakeNotifier struct {
	mu         sync.Mutex
	sent       []sentMessage
	removals   []removal
	failSend   map[string]bool
	failRemove map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failSend: map[string]bool{}, failRemove: map[string]bool{}}
}

func (n *fakeNotifier) SendMessage(ctx context.Context, recipientID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSend[recipientID] {
		return fmt.Errorf("%w: %s unreachable", appErrors.ErrDelivery, recipientID)
	}
	n.sent = append(n.sent, sentMessage{to: recipientID, text: text})
	return nil
}

func (n *fakeNotifier) RemoveMember(ctx context.Context, groupID, memberID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removals = append(n.removals, removal{group: groupID, member: memberID})
	if n.failRemove[groupID] {
		return fmt.Errorf("%w: not enough rights in %s", appErrors.ErrRemoval, groupID)
	}
	return nil
}

func (n *fakeNotifier) messagesTo(id string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.to == id {
			out = append(out, m.text)
		}
	}
	return out
}

func (n *fakeNotifier) removalCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.removals)
}

func (n *fakeNotifier) countTo(id, text string) int {
	c := 0
	for _, m := range n.messagesTo(id) {
		if m == text {
			c++
		}
	}
	return c
}

// unreadableStore fails every Load the way a corrupt snapshot would.
type unreadableStore struct {
	*memory.Store
}

func (s unreadableStore) Load(ctx context.Context) (entity.Snapshot, error) {
	return entity.Snapshot{}, fmt.Errorf("%w: corrupt", appErrors.ErrStorageUnavailable)
}

var testMessages = Messages{Community: "Ride Marches", Fee: "50 ETB", PeriodDays: 7}

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

type harness struct {
	store      *memory.Store
	jobs       *fakeJobs
	notifier   *fakeNotifier
	clock      *clock.ManualClock
	scheduler  SchedulerService
	lifecycle  LifecycleService
	membership MembershipService
}

func newHarness(t testingT) *harness {
	t.Helper()

	instruments, err := telemetry.NewInstruments()
	require.NoError(t, err)

	log := logger.NewNop()
	h := &harness{
		store:    memory.NewStore(),
		jobs:     newFakeJobs(),
		notifier: newFakeNotifier(),
		clock:    clock.NewManualClock(day0),
	}
	lock := &StateLock{}
	admin := NewAdminNotifier(adminID, h.notifier, log)
	h.lifecycle = NewLifecycleService(h.store, h.notifier, admin, testMessages, instruments, log)
	h.scheduler = NewSchedulerService(h.jobs, h.store, h.lifecycle, lock, time.UTC, log)
	h.membership = NewMembershipService(h.store, h.scheduler, h.notifier, lock, h.clock, MembershipConfig{
		PeriodDays: 7,
		Location:   time.UTC,
		Messages:   testMessages,
	}, log)
	return h
}

// advance moves the clock to t and fires everything due by then.
func (h *harness) advance(t time.Time) {
	h.clock.Set(t)
	h.jobs.RunUntil(t)
}

func (h *harness) record(t testingT, id string) *entity.Membership {
	t.Helper()
	snapshot, err := h.store.Load(context.Background())
	require.NoError(t, err)
	m, ok := snapshot[id]
	require.True(t, ok, "member %s not in store", id)
	return m
}
