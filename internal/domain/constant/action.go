package constant

// ActionKind identifies one of the scheduled lifecycle actions of a member.
type ActionKind string

const (
	ActionPreDueReminder ActionKind = "pre_due_reminder"
	ActionDueReminder    ActionKind = "due_reminder"
	ActionKick           ActionKind = "kick"
)

// ActionKinds lists every lifecycle action in firing order.
var ActionKinds = []ActionKind{ActionPreDueReminder, ActionDueReminder, ActionKick}

// OffsetDays returns the distance of the action from the due date, in calendar days.
func (k ActionKind) OffsetDays() int {
	switch k {
	case ActionPreDueReminder:
		return -1
	case ActionKick:
		return 1
	default:
		return 0
	}
}

func (k ActionKind) String() string {
	return string(k)
}
