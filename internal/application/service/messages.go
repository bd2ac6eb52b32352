package service

import (
	"fmt"
	"strings"
)

// Messages renders the texts sent to members and to the administrator.
type Messages struct {
	Community  string
	Fee        string
	PeriodDays int
}

func (m Messages) Greeting() string {
	return fmt.Sprintf("You have successfully started %s.", m.Community)
}

func (m Messages) Enrolled() string {
	return fmt.Sprintf("Your %s membership has started. %s", m.Community, m.feeLine())
}

func (m Messages) PaymentConfirmed() string {
	if m.PeriodDays == 7 {
		return "Your weekly payment is confirmed. Thank you!"
	}
	return "Your payment is confirmed. Thank you!"
}

func (m Messages) PreDueReminder() string {
	return fmt.Sprintf("⚠️ Your %s membership fee is due tomorrow. Please pay %s.", m.Community, m.Fee)
}

func (m Messages) DueReminder() string {
	return fmt.Sprintf("⏳ Your %s membership fee is due today. Please pay %s.", m.Community, m.Fee)
}

func (m Messages) Kicked() string {
	return "❌ You have been removed from your groups for missing your payment."
}

// KickSummary is sent to the administrator after a kick.
func (m Messages) KickSummary(memberID string, removed, failed []string) string {
	text := fmt.Sprintf("⚠️ User %s has been kicked from groups: [%s] due to overdue payment.",
		memberID, strings.Join(removed, ", "))
	if len(failed) > 0 {
		text += fmt.Sprintf("\nCould not remove from: [%s]", strings.Join(failed, ", "))
	}
	return text
}

func (m Messages) EnrollAck(memberID, due string) string {
	return fmt.Sprintf("Membership added/updated for %s. Next due date: %s", memberID, due)
}

func (m Messages) ConfirmAck(memberID, due string) string {
	return fmt.Sprintf("Payment confirmed for %s. New due date: %s", memberID, due)
}

func (m Messages) feeLine() string {
	if m.PeriodDays == 7 {
		return fmt.Sprintf("Weekly fee: %s.", m.Fee)
	}
	return fmt.Sprintf("Fee: %s every %d days.", m.Fee, m.PeriodDays)
}
