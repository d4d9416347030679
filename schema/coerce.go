package schema

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CoerceKind identifies a target type for argument coercion, used when a
// client supplies a string for a parameter typed as something else (common
// over transports that only carry string query/form values).
type CoerceKind string

const (
	CoerceString   CoerceKind = "string"
	CoerceInt      CoerceKind = "int"
	CoerceBool     CoerceKind = "bool"
	CoerceDate     CoerceKind = "date"
	CoerceDateTime CoerceKind = "datetime"
	CoerceUUID     CoerceKind = "uuid"
	CoercePath     CoerceKind = "path"
)

// Coerce converts a string argument to the requested kind, per spec §4.1:
// "arguments are coerced (string→int, string→bool, string→date/datetime/
// UUID/Path) by default". Coerce returns the original value unchanged for
// non-string inputs and for CoerceString, since coercion only ever narrows
// a string into a richer type.
//
// Failure returns a *schema.CoercionError, which the caller wraps as
// errs.KindValidation — coercion failure is a validation error, not a tool
// execution error (spec §4.1).
func Coerce(kind CoerceKind, value any) (any, error) {
	s, isString := value.(string)
	if !isString || kind == CoerceString {
		return value, nil
	}
	switch kind {
	case CoerceInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &CoercionError{Kind: kind, Value: s, Cause: err}
		}
		return n, nil
	case CoerceBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, &CoercionError{Kind: kind, Value: s, Cause: err}
		}
		return b, nil
	case CoerceDate:
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, &CoercionError{Kind: kind, Value: s, Cause: err}
		}
		return t, nil
	case CoerceDateTime:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, &CoercionError{Kind: kind, Value: s, Cause: err}
		}
		return t, nil
	case CoerceUUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, &CoercionError{Kind: kind, Value: s, Cause: err}
		}
		return id, nil
	case CoercePath:
		if s == "" {
			return nil, &CoercionError{Kind: kind, Value: s, Cause: fmt.Errorf("empty path")}
		}
		return s, nil
	default:
		return value, nil
	}
}

// CoercionError reports a failed string-to-typed-value coercion.
type CoercionError struct {
	Kind  CoerceKind
	Value string
	Cause error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %q to %s: %v", e.Value, e.Kind, e.Cause)
}

func (e *CoercionError) Unwrap() error { return e.Cause }
