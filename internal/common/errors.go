package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies billing and scoring failures so callers can branch on
// the category instead of parsing messages.
type ErrorKind string

const (
	KindInvalidAmount       ErrorKind = "INVALID_AMOUNT"
	KindUnknownPlan         ErrorKind = "UNKNOWN_PLAN"
	KindIllegalTransition   ErrorKind = "ILLEGAL_TRANSITION"
	KindOverCredit          ErrorKind = "OVER_CREDIT"
	KindDuplicateCreditNote ErrorKind = "DUPLICATE_CREDIT_NOTE"
	KindNotBillable         ErrorKind = "NOT_BILLABLE"
	KindConflictRetryFailed ErrorKind = "CONFLICT_RETRY_FAILED"
	KindNotFound            ErrorKind = "NOT_FOUND"
)

// DomainError is the single error type surfaced by the billing and analytics
// services. It carries the offending identifiers alongside the kind so logs
// and API responses stay structured.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
}

func (e *DomainError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Fields)
}

// Is matches on kind, so errors.Is(err, &DomainError{Kind: KindOverCredit})
// holds regardless of message and fields.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Kind == de.Kind
}

// NewDomainError builds a DomainError. Fields are optional alternating
// key, value strings.
func NewDomainError(kind ErrorKind, message string, kv ...string) *DomainError {
	e := &DomainError{Kind: kind, Message: message}
	if len(kv) > 0 {
		e.Fields = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Fields[kv[i]] = kv[i+1]
		}
	}
	return e
}

// KindOf extracts the ErrorKind from an error chain, or "" if the error is
// not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsNotBillable reports whether err is the skip-silently billing signal.
func IsNotBillable(err error) bool {
	return KindOf(err) == KindNotBillable
}
