package domain

import "fmt"

// ErrorKind tags the conditions the health data layer can raise.
type ErrorKind int

const (
	KindAuthNotDetermined ErrorKind = iota + 1
	KindNoData
	KindUnableToComplete
	KindSharingDenied
	KindInvalidValue
)

// String returns a stable machine-readable code for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindAuthNotDetermined:
		return "auth_not_determined"
	case KindNoData:
		return "no_data"
	case KindUnableToComplete:
		return "unable_to_complete"
	case KindSharingDenied:
		return "sharing_denied"
	case KindInvalidValue:
		return "invalid_value"
	}
	return "unknown"
}

// Error is the single error type of the health data layer. QuantityType is
// only set for KindSharingDenied.
type Error struct {
	Kind         ErrorKind
	QuantityType string
	Err          error
}

var (
	ErrAuthNotDetermined = &Error{Kind: KindAuthNotDetermined}
	ErrNoData            = &Error{Kind: KindNoData}
	ErrUnableToComplete  = &Error{Kind: KindUnableToComplete}
	ErrSharingDenied     = &Error{Kind: KindSharingDenied}
	ErrInvalidValue      = &Error{Kind: KindInvalidValue}
)

// SharingDenied reports that writing samples of quantityType is not allowed.
func SharingDenied(quantityType string) *Error {
	return &Error{Kind: KindSharingDenied, QuantityType: quantityType}
}

// UnableToComplete wraps a failure of the underlying store.
func UnableToComplete(cause error) *Error {
	return &Error{Kind: KindUnableToComplete, Err: cause}
}

// Error returns the short, user-facing description.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindAuthNotDetermined:
		msg = "need access to health data"
	case KindNoData:
		msg = "no data"
	case KindUnableToComplete:
		msg = "unable to complete request"
	case KindSharingDenied:
		msg = "no write access"
	case KindInvalidValue:
		msg = "invalid value"
	default:
		msg = "unknown health data error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// FailureReason explains the error and how to recover from it.
func (e *Error) FailureReason() string {
	switch e.Kind {
	case KindAuthNotDetermined:
		return "You have not given access to your health data. Grant read access to continue."
	case KindNoData:
		return "There is no data for this health statistic."
	case KindUnableToComplete:
		return "We are unable to complete your request at this time. Please try again later."
	case KindSharingDenied:
		return fmt.Sprintf("You have denied access to upload your %s data. Grant share access to add samples.", e.QuantityType)
	case KindInvalidValue:
		return "Must be a numeric value with a maximum of one decimal place."
	}
	return ""
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so sentinels work with errors.Is regardless of payload.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Kind == t.Kind
}
