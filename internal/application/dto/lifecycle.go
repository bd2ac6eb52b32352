package dto

// NotificationOutcome is the result of one best-effort message.
type NotificationOutcome struct {
	RecipientID string
	Delivered   bool
	Skipped     bool // nothing was sent: member unknown or no longer active
	Err         error
}

// RemovalOutcome is the result of removing a member from one group.
type RemovalOutcome struct {
	GroupID string
	Err     error
}

// KickReport summarises a kick: every removal attempt and the notices sent.
type KickReport struct {
	MemberID     string
	Removals     []RemovalOutcome
	MemberNotice NotificationOutcome
	AdminNotices []NotificationOutcome
}

// RemovedGroups lists the groups the member was actually removed from.
func (r *KickReport) RemovedGroups() []string {
	var out []string
	for _, o := range r.Removals {
		if o.Err == nil {
			out = append(out, o.GroupID)
		}
	}
	return out
}

// FailedGroups lists the groups whose removal failed.
func (r *KickReport) FailedGroups() []string {
	var out []string
	for _, o := range r.Removals {
		if o.Err != nil {
			out = append(out, o.GroupID)
		}
	}
	return out
}
