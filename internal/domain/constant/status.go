package constant

// MembershipStatus defines the billing state of a member.
type MembershipStatus string

const (
	// StatusActive is a member in good standing (enrolled or paid).
	StatusActive MembershipStatus = "active"
	// StatusKicked is a member removed from its groups for a missed payment.
	StatusKicked MembershipStatus = "kicked"
)

// Valid reports whether s is one of the known statuses.
func (s MembershipStatus) Valid() bool {
	return s == StatusActive || s == StatusKicked
}

func (s MembershipStatus) String() string {
	return string(s)
}
