package errors

import "errors"

// Custom application errors
var (
	ErrMemberNotFound     = errors.New("member not found")               // Operation references a member absent from the store
	ErrInvalidArgument    = errors.New("invalid argument")               // Malformed command input
	ErrDelivery           = errors.New("message delivery failed")        // Recipient unreachable
	ErrRemoval            = errors.New("group member removal failed")    // Insufficient permission or absent membership
	ErrStorageUnavailable = errors.New("membership storage unavailable") // Persisted state unreadable, treated as empty
	ErrDatabaseOperation  = errors.New("database operation failed")      // Generic storage write error
	ErrScheduling         = errors.New("scheduling failed")              // Could not register a lifecycle action
	ErrInvalidRecord      = errors.New("invalid membership record")      // Stored record with unknown status or no due date
)
