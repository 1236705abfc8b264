package leads

import "errors"

// Validation failures from CreateLeadRequest.Validate.
var (
	ErrInvalidName    = errors.New("leads: full name is required")
	ErrMissingContact = errors.New("leads: an email address or phone number is required")
	ErrMissingService = errors.New("leads: service of interest is required")
)

// ErrLeadNotFound is returned by lookups for an unknown or malformed id.
var ErrLeadNotFound = errors.New("leads: not found")
