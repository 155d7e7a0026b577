package loader

import (
	"fmt"
	"strings"

	"github.com/wippyai/modloader/errors"
)

// LinkError provides context when a module's dependency cannot be linked.
type LinkError struct {
	Cause      error
	Module     string
	Dependency string
	Specifier  string
	Reason     string
}

func (e *LinkError) Error() string {
	var b strings.Builder
	b.WriteString("link failed")

	if e.Module != "" {
		b.WriteString(" for ")
		b.WriteString(e.Module)
	}

	if e.Dependency != "" {
		fmt.Fprintf(&b, " (import %q -> %s)", e.Specifier, e.Dependency)
	}

	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *LinkError) Unwrap() error {
	return e.Cause
}

// Is matches link-phase link_failure errors so callers can test with the errors package.
func (e *LinkError) Is(target error) bool {
	t, ok := target.(*errors.Error)
	return ok && t.Phase == errors.PhaseLink && t.Kind == errors.KindLinkFailure
}

func linkError(m *Module, l Link, reason string, cause error) *LinkError {
	return &LinkError{
		Module:     m.id,
		Dependency: l.Identifier,
		Specifier:  l.Specifier,
		Reason:     reason,
		Cause:      cause,
	}
}
