// Package errs provides the core's unified error taxonomy (spec §7). A
// CoreError carries a Kind so the dispatcher can map internal failures onto
// the right protocol-level response without inspecting message text, and a
// Cause chain so errors.Is/errors.As keep working across a mounted server
// boundary or a tool calling another tool's error.
package errs

import "errors"

// Kind enumerates the distinguishable error categories the core produces.
type Kind string

const (
	// KindNotFound means no component matched by name/uri/key/version. A
	// disabled component is reported this way too, since providers and
	// dispatch treat it as absent.
	KindNotFound Kind = "not_found"
	// KindDisabled means a matched component had enabled=false or was
	// filtered out. No provider or dispatch path returns this kind (a
	// disabled component surfaces as KindNotFound); the kind and its
	// Disabled sentinel are available to code that constructs it itself.
	KindDisabled Kind = "disabled"
	// KindValidation means an argument failed schema validation or coercion.
	// Validation errors are never masked and always surface as an
	// invalid-params protocol error.
	KindValidation Kind = "validation"
	// KindTool means a tool's callable raised during invocation.
	KindTool Kind = "tool"
	// KindResource means a resource's callable raised, or otherwise failed,
	// during a read.
	KindResource Kind = "resource"
	// KindPrompt means a prompt's callable raised during rendering.
	KindPrompt Kind = "prompt"
	// KindTask means a queue-surfaced task failure, delivered via
	// tasks/result.
	KindTask Kind = "task"
	// KindProtocol means a framework-level failure (unknown method,
	// malformed payload) that is not attributable to a specific component.
	KindProtocol Kind = "protocol"
)

// CoreError is the core's error type. It implements error, and supports
// errors.Is/errors.As through Unwrap so callers can test for a Kind anywhere
// in the chain without caring how deeply it is wrapped.
type CoreError struct {
	// Kind classifies the failure (spec §7).
	Kind Kind
	// Message is the human-readable summary. For KindTool/KindResource/
	// KindPrompt this is the text delivered to the client as the single
	// content block of a failed call (spec §7, "User-visible failure").
	Message string
	// Masked records whether Message had its cause redacted because the
	// server runs with mask_error_details=true. Validation errors and
	// errors explicitly raised as a user ToolError are never masked.
	Masked bool
	// UserRaised marks an error a tool/resource/prompt callable constructed
	// deliberately (e.g. via a user-facing ToolError helper) as opposed to
	// one caught from an unexpected panic or exception. mask_error_details
	// never redacts a UserRaised error's Message.
	UserRaised bool
	// Cause links to an underlying CoreError, preserving the chain across
	// wrapping (mounted servers, nested tool calls).
	Cause *CoreError
}

// New constructs a CoreError of the given kind with a message.
func New(kind Kind, message string) *CoreError {
	if message == "" {
		message = string(kind)
	}
	return &CoreError{Kind: kind, Message: message}
}

// Raise constructs a user-raised CoreError: one a tool/resource/prompt
// callable produced deliberately. mask_error_details never redacts its
// Message, matching a callable that explicitly chose what to tell the
// client.
func Raise(kind Kind, message string) *CoreError {
	e := New(kind, message)
	e.UserRaised = true
	return e
}

// Wrap constructs a CoreError of the given kind that chains an underlying
// error. If cause is itself a *CoreError (directly or via errors.As), it is
// linked rather than flattened to text, preserving Kind information across
// hops.
func Wrap(kind Kind, message string, cause error) *CoreError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &CoreError{Kind: kind, Message: message, Cause: fromError(cause)}
}

func fromError(err error) *CoreError {
	if err == nil {
		return nil
	}
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce
	}
	return &CoreError{Kind: KindProtocol, Message: err.Error(), Cause: fromError(errors.Unwrap(err))}
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying CoreError, supporting errors.Is/errors.As.
func (e *CoreError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is a CoreError with the same Kind. This lets
// callers write errors.Is(err, errs.NotFound) style checks against the
// sentinel values below.
func (e *CoreError) Is(target error) bool {
	var ce *CoreError
	if !errors.As(target, &ce) {
		return false
	}
	return e.Kind == ce.Kind
}

// Sentinel values for errors.Is comparisons against a bare Kind, e.g.
// errors.Is(err, errs.NotFound).
var (
	NotFound   = &CoreError{Kind: KindNotFound}
	Disabled   = &CoreError{Kind: KindDisabled}
	Validation = &CoreError{Kind: KindValidation}
)

// Redact returns a new error of e's kind whose Message is replaced by a
// generic per-kind text, with Masked set and no cause chain, unless e is a
// validation error (never masked) or the user explicitly raised a ToolError
// (see UserRaised), in which case e is returned unchanged.
// mask_error_details controls whether dispatch calls this before returning
// a KindTool/KindResource/KindPrompt error to the client.
func Redact(e *CoreError) *CoreError {
	if e == nil || e.Kind == KindValidation || e.UserRaised {
		return e
	}
	return &CoreError{Kind: e.Kind, Message: genericMessage(e.Kind), Masked: true}
}

func genericMessage(k Kind) string {
	switch k {
	case KindTool:
		return "tool execution failed"
	case KindResource:
		return "resource read failed"
	case KindPrompt:
		return "prompt rendering failed"
	default:
		return "internal error"
	}
}
