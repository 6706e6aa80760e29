package schema

import "errors"

// Input validation errors.
var (
	ErrConflictingRangeSpecifiers = errors.New("conflicting date range specifiers")
	ErrMissingStartDate           = errors.New("end date must be accompanied by a start date")
	ErrInvalidDateFormat          = errors.New("date must be a valid date in YYYY-MM-DD format")
	ErrInvertedRange              = errors.New("end date must come on or after start date")
	ErrInvalidLookbackFormat      = errors.New("invalid lookback format")
	ErrInvalidStatType            = errors.New("invalid stat type")
	ErrInvalidFilter              = errors.New("invalid cohort filter")
	ErrInvalidDimension           = errors.New("invalid dimension")
	ErrInvalidIdentifier          = errors.New("invalid identifier")
	ErrInvalidPullRequestRef      = errors.New("invalid pull request reference")
)

// Transport, payload and environment errors.
var (
	ErrTransport                   = errors.New("transport error")
	ErrMalformedPullRequestPayload = errors.New("malformed pull request payload")
	ErrMissingRenderer             = errors.New("chart renderer not found")
	ErrOperationCancelled          = errors.New("operation cancelled")
)

// Store errors.
var (
	ErrDuplicateEvaluation = errors.New("evaluation already recorded")
	ErrPullRequestNotFound = errors.New("pull request not found")
)
