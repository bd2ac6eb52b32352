package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"duesreminder/internal/domain/constant"
)

// Membership represents one member's billing state.
type Membership struct {
	MemberID string                    `gorm:"column:member_id;primaryKey" json:"-"`
	LastPaid Date                      `gorm:"column:last_paid;type:text" json:"last_paid"`
	DueDate  Date                      `gorm:"column:due_date;type:text" json:"due_date"`
	Groups   []string                  `gorm:"column:group_ids;type:text;serializer:json" json:"groups"`
	Status   constant.MembershipStatus `gorm:"column:status" json:"status"`
}

// TableName specifies the table name for the Membership entity.
func (Membership) TableName() string {
	return "memberships"
}

// NewMembership creates an active record paid on the given day.
func NewMembership(memberID string, groups []string, paidOn Date, periodDays int) *Membership {
	m := &Membership{MemberID: memberID}
	m.MergeGroups(groups)
	m.MarkPaid(paidOn, periodDays)
	return m
}

// MarkPaid resets both dates from the payment day and reactivates the member.
// LastPaid and DueDate are only ever written together here.
func (m *Membership) MarkPaid(paidOn Date, periodDays int) {
	m.LastPaid = paidOn
	m.DueDate = paidOn.AddDays(periodDays)
	m.Status = constant.StatusActive
}

// MarkKicked records that the member was removed for non-payment.
func (m *Membership) MarkKicked() {
	m.Status = constant.StatusKicked
}

// MergeGroups adds groups not yet present, keeping first-seen order.
func (m *Membership) MergeGroups(groups []string) {
	for _, g := range groups {
		if !slices.Contains(m.Groups, g) {
			m.Groups = append(m.Groups, g)
		}
	}
}

func (m *Membership) IsActive() bool {
	return m.Status == constant.StatusActive
}

// Validate reports a record no lifecycle action could act on.
func (m *Membership) Validate() error {
	if !m.Status.Valid() {
		return fmt.Errorf("unknown status %q", m.Status)
	}
	if m.DueDate.IsZero() {
		return fmt.Errorf("missing due date")
	}
	return nil
}

// UnmarshalJSON also accepts group ids written as JSON numbers.
func (m *Membership) UnmarshalJSON(b []byte) error {
	type plain Membership
	aux := struct {
		*plain
		Groups []json.RawMessage `json:"groups"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	m.Groups = nil
	for _, raw := range aux.Groups {
		id, err := groupID(raw)
		if err != nil {
			return err
		}
		m.Groups = append(m.Groups, id)
	}
	return nil
}

func groupID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("group id %s: %w", raw, err)
	}
	if _, err := n.Int64(); err != nil {
		return "", fmt.Errorf("group id %s is not an integer", raw)
	}
	return n.String(), nil
}

// Clone returns a deep copy.
func (m *Membership) Clone() *Membership {
	c := *m
	c.Groups = slices.Clone(m.Groups)
	return &c
}

// Snapshot is the complete persisted state, keyed by member identity.
type Snapshot map[string]*Membership

// Invalid lists, sorted, the members whose record fails Validate.
func (s Snapshot) Invalid() []string {
	var ids []string
	for id, m := range s {
		if m.Validate() != nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, m := range s {
		out[id] = m.Clone()
	}
	return out
}
