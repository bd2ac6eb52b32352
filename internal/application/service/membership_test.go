package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"duesreminder/internal/application/dto"
	"duesreminder/internal/domain/constant"
	"duesreminder/internal/domain/entity"
	appErrors "duesreminder/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMembership_EnrollCreatesRecordAndSchedules(t *testing.T) {
	h := newHarness(t)

	resp, err := h.membership.Enroll(context.Background(), dto.EnrollRequest{MemberID: "123", GroupIDs: []string{"-1001", "-1002"}})
	require.NoError(t, err)

	assert.Equal(t, "123", resp.MemberID)
	assert.Equal(t, "2024-01-01", resp.LastPaid)
	assert.Equal(t, "2024-01-08", resp.DueDate)
	assert.Equal(t, []string{"-1001", "-1002"}, resp.Groups)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, []dto.ScheduledAction{
		{Kind: "pre_due_reminder", At: time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)},
		{Kind: "due_reminder", At: time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)},
		{Kind: "kick", At: time.Date(2024, time.January, 9, 0, 0, 0, 0, time.UTC)},
	}, resp.Pending)

	assert.Equal(t, []string{testMessages.Enrolled()}, h.notifier.messagesTo("123"))
	assert.Equal(t, 1, h.store.Saves())
	assert.Equal(t, 3, h.jobs.Len())
}

func TestMembership_ReEnrollMergesGroups(t *testing.T) {
	h := newHarness(t)
	enroll(t, h, "123", "-1001")

	h.clock.Set(day(2))
	resp, err := h.membership.Enroll(context.Background(), dto.EnrollRequest{MemberID: "123", GroupIDs: []string{"-1002", "-1001"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"-1001", "-1002"}, resp.Groups)
	assert.Equal(t, "2024-01-03", resp.LastPaid)
	assert.Equal(t, "2024-01-10", resp.DueDate)
	assert.Len(t, resp.Pending, 3)
	assert.Equal(t, 3, h.jobs.Len())
}

func TestMembership_ReEnrollReactivatesKickedMember(t *testing.T) {
	h := newHarness(t)
	enroll(t, h, "123", "-1001")
	h.advance(day(10))
	require.Equal(t, constant.StatusKicked, h.record(t, "123").Status)

	enroll(t, h, "123", "-1003")

	m := h.record(t, "123")
	assert.Equal(t, constant.StatusActive, m.Status)
	assert.Equal(t, []string{"-1001", "-1003"}, m.Groups)
	assert.Equal(t, 3, h.jobs.Len())
}

func TestMembership_EnrollRejectsInvalidArguments(t *testing.T) {
	cases := map[string]dto.EnrollRequest{
		"non numeric member": {MemberID: "alice", GroupIDs: []string{"-1001"}},
		"negative member":    {MemberID: "-5", GroupIDs: []string{"-1001"}},
		"empty member":       {MemberID: "", GroupIDs: []string{"-1001"}},
		"no groups":          {MemberID: "123"},
		"zero group":         {MemberID: "123", GroupIDs: []string{"0"}},
		"non numeric group":  {MemberID: "123", GroupIDs: []string{"-1001", "riders"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.membership.Enroll(context.Background(), req)
			require.ErrorIs(t, err, appErrors.ErrInvalidArgument)
			assert.Zero(t, h.store.Saves())
			assert.Zero(t, h.jobs.Len())
			assert.Empty(t, h.notifier.sent)
		})
	}
}

func TestMembership_ConfirmPaymentMovesTheCycle(t *testing.T) {
	h := newHarness(t)
	enroll(t, h, "123", "-1001", "-1002")

	h.advance(time.Date(2024, time.January, 4, 10, 0, 0, 0, time.UTC))
	resp, err := h.membership.ConfirmPayment(context.Background(), dto.ConfirmPaymentRequest{MemberID: "123"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-04", resp.LastPaid)
	assert.Equal(t, "2024-01-11", resp.DueDate)
	assert.Equal(t, 1, h.notifier.countTo("123", testMessages.PaymentConfirmed()))

	h.advance(time.Date(2024, time.January, 9, 10, 0, 0, 0, time.UTC))
	assert.Zero(t, h.notifier.removalCount())
	assert.Zero(t, h.notifier.countTo("123", testMessages.PreDueReminder()))
	assert.Equal(t, constant.StatusActive, h.record(t, "123").Status)

	h.advance(time.Date(2024, time.January, 12, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, h.notifier.countTo("123", testMessages.PreDueReminder()))
	assert.Equal(t, 1, h.notifier.countTo("123", testMessages.DueReminder()))
	assert.Equal(t, 2, h.notifier.removalCount())
	assert.Equal(t, constant.StatusKicked, h.record(t, "123").Status)
}

func TestMembership_ConfirmPaymentUnknownMember(t *testing.T) {
	h := newHarness(t)

	_, err := h.membership.ConfirmPayment(context.Background(), dto.ConfirmPaymentRequest{MemberID: "999"})
	require.ErrorIs(t, err, appErrors.ErrMemberNotFound)
	assert.Zero(t, h.store.Saves())
	assert.Zero(t, h.jobs.Len())
	assert.Empty(t, h.notifier.sent)
}

func TestMembership_ConfirmPaymentTwiceSameDay(t *testing.T) {
	h := newHarness(t)
	enroll(t, h, "123", "-1001")
	h.clock.Set(day(3))

	first, err := h.membership.ConfirmPayment(context.Background(), dto.ConfirmPaymentRequest{MemberID: "123"})
	require.NoError(t, err)
	second, err := h.membership.ConfirmPayment(context.Background(), dto.ConfirmPaymentRequest{MemberID: "123"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 3, h.jobs.Len())
}

func TestMembership_ConfirmPaymentAfterKickReactivates(t *testing.T) {
	h := newHarness(t)
	enroll(t, h, "123", "-1001")
	h.advance(day(8))
	require.Equal(t, constant.StatusKicked, h.record(t, "123").Status)

	resp, err := h.membership.ConfirmPayment(context.Background(), dto.ConfirmPaymentRequest{MemberID: "123"})
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)
	assert.Len(t, resp.Pending, 3)
}

func TestMembership_GetMembership(t *testing.T) {
	h := newHarness(t)
	enroll(t, h, "123", "-1001")

	resp, err := h.membership.GetMembership(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", resp.DueDate)
	require.Len(t, resp.Pending, 3)
	assert.Equal(t, "pre_due_reminder", resp.Pending[0].Kind)

	_, err = h.membership.GetMembership(context.Background(), "999")
	assert.ErrorIs(t, err, appErrors.ErrMemberNotFound)
}

// Whatever day the payment lands on, the record and the three pending
// actions follow from it alone.
func TestMembership_PaymentAnchorsSchedule(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := newHarness(t)
		groups := rapid.SliceOfNDistinct(rapid.Int64Range(-1_000_000, -1), 1, 4, rapid.ID[int64]).Draw(t, "groups")
		ids := make([]string, len(groups))
		for i, g := range groups {
			ids[i] = strconv.FormatInt(g, 10)
		}

		_, err := h.membership.Enroll(context.Background(), dto.EnrollRequest{MemberID: "42", GroupIDs: ids})
		require.NoError(t, err)

		offset := rapid.IntRange(0, 6).Draw(t, "paidAfterDays")
		paidAt := day0.AddDate(0, 0, offset)
		h.clock.Set(paidAt)
		resp, err := h.membership.ConfirmPayment(context.Background(), dto.ConfirmPaymentRequest{MemberID: "42"})
		require.NoError(t, err)

		paid := entity.DateOf(paidAt)
		due := paid.AddDays(7)
		assert.Equal(t, paid.String(), resp.LastPaid)
		assert.Equal(t, due.String(), resp.DueDate)
		assert.Equal(t, ids, resp.Groups)
		require.Len(t, resp.Pending, 3)
		for i, kind := range constant.ActionKinds {
			assert.Equal(t, kind.String(), resp.Pending[i].Kind)
			assert.Equal(t, due.AddDays(kind.OffsetDays()).In(time.UTC), resp.Pending[i].At)
		}
		assert.Equal(t, 3, h.jobs.Len())
	})
}
