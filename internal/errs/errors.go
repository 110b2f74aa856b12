// Package errs provides the unified error type used across the shell core.
//
// Every subsystem (value bridge, sessions, CRUD builders, runtimes, …) wraps
// its native errors into *errs.Error before returning them to callers.
// Runtime adapters rely on the Kind tag to surface script-level errors that
// tests can match on, so no layer may flatten an *errs.Error into a plain
// fmt.Errorf.
//
// Usage:
//
//	// In a bridge method, reject a bad argument:
//	return errs.Argument("mysqlx.expr", 1, "string")
//
//	// In a caller, check the error kind:
//	if errs.IsUnknownMember(err) {
//	    ...
//	}
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorises an error without exposing subsystem-specific codes.
// All layers (driver, builders, runtimes) map their native failures to one
// of these kinds, giving scripts a single consistent taxonomy.
type Kind int

const (
	KindInternal         Kind = iota
	KindTypeMismatch          // typed extraction on the wrong Value variant
	KindUnknownMember         // member name not exposed by a bridge
	KindArgument              // arity, wrong variant, or semantic constraint
	KindInvalidCallOrder      // CRUD chain method repeated or out of order
	KindUnboundParameter      // execute with an unbound :name placeholder
	KindURIParse              // malformed connection string
	KindSQL                   // server-side statement failure
	KindSessionClosed         // operation on a closed session
	KindResultShape           // result did not have the promised shape
	KindResultLeak            // previous result discarded in strict mode
	KindInterrupted           // cancelled or timed out mid-operation
	KindProtocol              // wire-level failure below the SQL layer
)

func (k Kind) String() string {
	switch k {
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindUnknownMember:
		return "UnknownMember"
	case KindArgument:
		return "ArgumentError"
	case KindInvalidCallOrder:
		return "InvalidCallOrder"
	case KindUnboundParameter:
		return "UnboundParameter"
	case KindURIParse:
		return "UriParseError"
	case KindSQL:
		return "SqlError"
	case KindSessionClosed:
		return "SessionClosed"
	case KindResultShape:
		return "ResultShapeError"
	case KindResultLeak:
		return "ResultLeak"
	case KindInterrupted:
		return "Interrupted"
	case KindProtocol:
		return "ProtocolError"
	default:
		return "Internal"
	}
}

// Error is the single error type returned by all shell subsystems.
// API, when set, is the user-visible operation name ("Dba.createCluster",
// "CollectionFind.limit") and prefixes the rendered message.
type Error struct {
	Kind    Kind
	API     string
	Message string
	Cause   error // original driver-level error, preserved for logging

	// SQL server details, populated only for KindSQL.
	Code     uint16
	SQLState string
}

func (e *Error) Error() string {
	if e.API != "" {
		return fmt.Sprintf("%s: %s", e.API, e.Message)
	}
	return e.Message
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind, API name, and message.
// Pass api == "" for errors that are not tied to a script-visible call.
func New(kind Kind, api, msg string) *Error {
	return &Error{Kind: kind, API: api, Message: msg}
}

// Newf is New with Sprintf-style formatting of the message.
func Newf(kind Kind, api, format string, args ...any) *Error {
	return &Error{Kind: kind, API: api, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// SQL creates a KindSQL error carrying the server code and SQLSTATE.
func SQL(code uint16, sqlstate, msg string, cause error) *Error {
	return &Error{Kind: KindSQL, Message: msg, Cause: cause, Code: code, SQLState: sqlstate}
}

// Argument builds the canonical "Argument #N is expected to be a <kind>"
// error for the given API.
func Argument(api string, pos int, expected string) *Error {
	return Newf(KindArgument, api, "Argument #%d is expected to be a %s", pos, expected)
}

// Arity builds the canonical arity error for the given API. min == max
// renders a single expected count.
func Arity(api string, min, max, got int) *Error {
	if min == max {
		return Newf(KindArgument, api, "Invalid number of arguments in %s, expected %d but got %d", api, min, got)
	}
	return Newf(KindArgument, api, "Invalid number of arguments in %s, expected %d to %d but got %d", api, min, max, got)
}

// UnknownMember builds the canonical unknown-member error for a bridge.
func UnknownMember(class, name string) *Error {
	return Newf(KindUnknownMember, "", "Invalid member %s.%s", class, name)
}

// WithAPI returns a copy of err with the API name set, leaving err itself
// untouched. Non-*Error values are wrapped as KindInternal.
func WithAPI(api string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		clone := *e
		clone.API = api
		return &clone
	}
	return &Error{Kind: KindInternal, API: api, Message: err.Error(), Cause: err}
}

// --- Predicates ---

func IsTypeMismatch(err error) bool     { return kindOf(err) == KindTypeMismatch }
func IsUnknownMember(err error) bool    { return kindOf(err) == KindUnknownMember }
func IsArgument(err error) bool         { return kindOf(err) == KindArgument }
func IsInvalidCallOrder(err error) bool { return kindOf(err) == KindInvalidCallOrder }
func IsUnboundParameter(err error) bool { return kindOf(err) == KindUnboundParameter }
func IsURIParse(err error) bool         { return kindOf(err) == KindURIParse }
func IsSQL(err error) bool              { return kindOf(err) == KindSQL }
func IsSessionClosed(err error) bool    { return kindOf(err) == KindSessionClosed }
func IsResultShape(err error) bool      { return kindOf(err) == KindResultShape }
func IsResultLeak(err error) bool       { return kindOf(err) == KindResultLeak }
func IsInterrupted(err error) bool      { return kindOf(err) == KindInterrupted }
func IsProtocol(err error) bool         { return kindOf(err) == KindProtocol }

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind { return kindOf(err) }

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// JoinKeys renders a set of option keys for "Invalid values in the options"
// style messages, preserving the order given.
func JoinKeys(keys []string) string {
	return strings.Join(keys, ", ")
}
