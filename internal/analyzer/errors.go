package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
)

// Error kinds. Every fatal GenerateError wraps exactly one of these, so
// callers can branch with errors.Is.
var (
	ErrNotFound             = errors.New("declaration not found")
	ErrAmbiguous            = errors.New("ambiguous declaration")
	ErrMalformedDeclaration = errors.New("malformed declaration")
	ErrMalformedAnnotation  = errors.New("malformed annotation")
	ErrUnknownTypeShape     = errors.New("unknown type shape")
)

// GenerateError is a fatal error that aborts a generation run.
type GenerateError struct {
	Kind      error
	TypeName  string
	Message   string
	Conflicts []string
}

func (e *GenerateError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if len(e.Conflicts) > 0 {
		sb.WriteString("; conflicts found: ")
		for i, c := range e.Conflicts {
			if i > 0 {
				sb.WriteString("; ")
			}
			fmt.Fprintf(&sb, "%q", c)
		}
	}
	return sb.String()
}

func (e *GenerateError) Unwrap() error {
	return e.Kind
}

// Category returns the diagnostic category the error is reported under.
func (e *GenerateError) Category() diagnostic.Category {
	switch {
	case errors.Is(e.Kind, ErrAmbiguous):
		return diagnostic.CategoryDeclarationAmbiguous
	case errors.Is(e.Kind, ErrMalformedAnnotation):
		return diagnostic.CategoryConstraintInvalid
	case errors.Is(e.Kind, ErrUnknownTypeShape):
		return diagnostic.CategoryTypeUnsupported
	default:
		return diagnostic.CategoryDeclarationMalformed
	}
}

func newError(kind error, typeName, format string, args ...any) *GenerateError {
	return &GenerateError{Kind: kind, TypeName: typeName, Message: fmt.Sprintf(format, args...)}
}
