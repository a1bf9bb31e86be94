package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ledger failures so callers can dispatch on them.
// Kinds are stable strings carried verbatim in RPC error responses.
type ErrorKind string

const (
	KindDuplicateID        ErrorKind = "duplicate_id"
	KindInvalidParent      ErrorKind = "invalid_parent"
	KindNotFound           ErrorKind = "not_found"
	KindHasChildren        ErrorKind = "has_children"
	KindHasEntries         ErrorKind = "has_entries"
	KindUnbalancedEntry    ErrorKind = "unbalanced_entry"
	KindInvalidLine        ErrorKind = "invalid_line"
	KindAlreadyPosted      ErrorKind = "already_posted"
	KindAlreadyDraft       ErrorKind = "already_draft"
	KindForeignSource      ErrorKind = "foreign_source"
	KindCannotDeletePosted ErrorKind = "cannot_delete_posted"
)

// LedgerError is a client-facing ledger failure. Like RPCError, its message
// is safe to return to the caller; additionally it carries a kind so clients
// can distinguish validation, referential and state-conflict failures
// without parsing messages.
type LedgerError struct {
	Kind ErrorKind
	err  error
}

// LedgerErrorf creates a LedgerError with a formatted, client-safe message.
func LedgerErrorf(kind ErrorKind, format string, args ...any) LedgerError {
	return LedgerError{
		Kind: kind,
		err:  fmt.Errorf(format, args...),
	}
}

func (e LedgerError) Error() string {
	return e.err.Error()
}

// KindOf extracts the ErrorKind from an error chain.
// Returns the empty kind for non-ledger errors.
func KindOf(err error) ErrorKind {
	var le LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
