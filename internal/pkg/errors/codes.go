package errors

// Error code constants for the event reduction engine.
// Errors contain code + params only; message text is for operators/logs,
// not for end-user i18n.

// Ingress error codes (spec.md §7).
const (
	CodeMalformedEvent  = "MALFORMED_EVENT"
	CodeUnsupportedType = "UNSUPPORTED_EVENT_TYPE"
	CodeIgnoredEvent    = "IGNORED_EVENT"
	CodeEventTooOld     = "EVENT_TOO_OLD"
	CodeMultipleOpen    = "MULTIPLE_OPEN_PERIODS"
	CodeStoreError      = "STORE_ERROR"
)

// Usage endpoint error codes.
const (
	CodeInvalidRange = "INVALID_TIME_RANGE"
)

// ErrMalformedEventf creates a malformed-event error (400).
func ErrMalformedEventf(reason string) *AppError {
	return BadRequest(CodeMalformedEvent, "malformed event: "+reason)
}

// ErrUnsupportedEventTypef creates an unsupported-event-type error (400).
func ErrUnsupportedEventTypef(eventType string) *AppError {
	return BadRequest(CodeUnsupportedType, "unsupported event type: "+eventType)
}

// ErrIgnoredEventf creates an ignored-event signal (202).
func ErrIgnoredEventf(reason string) *AppError {
	return Accepted(CodeIgnoredEvent, "event ignored: "+reason)
}

// ErrEventTooOldf creates a stale-event signal (202).
func ErrEventTooOldf() *AppError {
	return Accepted(CodeEventTooOld, "event older than resource watermark")
}

// ErrMultipleOpenPeriodsf creates a multiple-open-periods invariant violation (409).
func ErrMultipleOpenPeriodsf(resourceUUID string) *AppError {
	return Conflict(CodeMultipleOpen, "resource has more than one open period: "+resourceUUID)
}

// ErrStoref wraps a persistence failure (5xx).
func ErrStoref(err error, reason string) *AppError {
	return Wrap(err, CodeStoreError, reason, 500)
}

// ErrInvalidRangef creates an invalid time-range error (400).
func ErrInvalidRangef(reason string) *AppError {
	return BadRequest(CodeInvalidRange, reason)
}
