package entity

import (
	"fmt"
	"strconv"
)

// ValidateMemberID checks that id is a positive integer user identifier.
func ValidateMemberID(id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("member id %q must be a positive integer", id)
	}
	return nil
}

// ValidateGroupID checks that id is a non-zero integer chat identifier.
// Group chats use negative identifiers, so the sign is not restricted.
func ValidateGroupID(id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n == 0 {
		return fmt.Errorf("group id %q must be a non-zero integer", id)
	}
	return nil
}
