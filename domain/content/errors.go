package content

import (
	"errors"
	"fmt"
)

// Kind classifies a decode failure.
type Kind int

// Kind values.
const (
	KindUnknownVariant Kind = iota + 1
	KindMissingField
	KindMalformedChildren
	KindTooDeep
	KindSyntax
)

// String returns a stable, snake_case name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnknownVariant:
		return "unknown_variant"
	case KindMissingField:
		return "missing_field"
	case KindMalformedChildren:
		return "malformed_children"
	case KindTooDeep:
		return "too_deep"
	case KindSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *DecodeError of the same kind.
var (
	ErrUnknownVariant    = errors.New("unknown variant")
	ErrMissingField      = errors.New("missing field")
	ErrMalformedChildren = errors.New("malformed children")
	ErrTooDeep           = errors.New("content nested too deep")
	ErrSyntax            = errors.New("invalid json")
)

// DecodeError describes why a document could not be decoded into a tree.
// Path points at the offending node; Field names the offending field when
// there is one.
type DecodeError struct {
	Kind  Kind
	Path  Path
	Field string
	Msg   string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode content at %s: %s", e.Path, e.describe())
}

func (e *DecodeError) describe() string {
	msg := e.Kind.sentinel().Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	var inner *DecodeError
	switch {
	case errors.As(e.Err, &inner):
		msg += ": " + inner.describe()
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped child error, if any.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *DecodeError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnknownVariant:
		return ErrUnknownVariant
	case KindMissingField:
		return ErrMissingField
	case KindMalformedChildren:
		return ErrMalformedChildren
	case KindTooDeep:
		return ErrTooDeep
	default:
		return ErrSyntax
	}
}

// KindOf returns the kind of the outermost *DecodeError in err's chain,
// or zero if there is none.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Root returns the innermost *DecodeError in err's chain. Malformed children
// errors wrap the error of the element that failed; Root digs it out.
func Root(err error) *DecodeError {
	var de *DecodeError
	if !errors.As(err, &de) {
		return nil
	}
	for {
		var inner *DecodeError
		if de.Err == nil || !errors.As(de.Err, &inner) {
			return de
		}
		de = inner
	}
}
