package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseLink,
				Kind:   KindMissingExport,
				Path:   []string{"file:///app/b.js", "file:///app/a.js"},
				Detail: "no export named \"ONE\"",
			},
			contains: []string{"[link]", "missing_export", "file:///app/b.js -> file:///app/a.js", "ONE"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRegistry,
				Kind:  KindNotFound,
			},
			contains: []string{"[registry]", "not_found"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseEvaluate,
				Kind:   KindEvaluation,
				Detail: "module body failed",
				Cause:  errors.New("boom"),
			},
			contains: []string{"[evaluate]", "evaluation", "module body failed", "caused by", "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEvaluate,
		Kind:  KindEvaluation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause through chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseRegistry,
		Kind:  KindNotFound,
		Path:  []string{"file:///x"},
	}

	if !err.Is(&Error{Phase: PhaseRegistry, Kind: KindNotFound}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseLink, Kind: KindNotFound}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseRegistry, Kind: KindMissingExport}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseRegistry, Kind: KindNotFound}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseLink, KindMissingExport).
		Path("file:///b", "file:///a").
		Value("x").
		Cause(cause).
		Detail("no export named %q", "x").
		Build()

	if err.Phase != PhaseLink {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseLink)
	}
	if err.Kind != KindMissingExport {
		t.Errorf("Kind = %v, want %v", err.Kind, KindMissingExport)
	}
	if len(err.Path) != 2 || err.Path[0] != "file:///b" || err.Path[1] != "file:///a" {
		t.Errorf("Path = %v, want [file:///b file:///a]", err.Path)
	}
	if err.Value != "x" {
		t.Errorf("Value = %v, want x", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != `no export named "x"` {
		t.Errorf("Detail = %v, want 'no export named \"x\"'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidSpecifier", func(t *testing.T) {
		err := InvalidSpecifier("%zz", "file:///a", errors.New("bad escape"))
		if err.Phase != PhaseResolve || err.Kind != KindInvalidSpecifier {
			t.Errorf("got [%v] %v", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Detail, "file:///a") {
			t.Errorf("Detail = %v, should mention referrer", err.Detail)
		}
	})

	t.Run("InvalidDeclaration", func(t *testing.T) {
		err := InvalidDeclaration(7, "missing from clause")
		if err.Kind != KindInvalidDeclaration {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidDeclaration)
		}
		if !strings.Contains(err.Detail, "line 7") {
			t.Errorf("Detail = %v, should contain line", err.Detail)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseRegistry, "module", "file:///nope")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
		if err.Value != "file:///nope" {
			t.Errorf("Value = %v, want file:///nope", err.Value)
		}
	})

	t.Run("MissingExport", func(t *testing.T) {
		err := MissingExport("file:///b", "file:///a", "ONE")
		if err.Phase != PhaseLink || err.Kind != KindMissingExport {
			t.Errorf("got [%v] %v", err.Phase, err.Kind)
		}
	})

	t.Run("Uninitialized", func(t *testing.T) {
		err := Uninitialized("x")
		if err.Kind != KindUninitialized {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUninitialized)
		}
	})

	t.Run("Evaluation", func(t *testing.T) {
		cause := errors.New("thrown")
		err := Evaluation("file:///a", cause)
		if !errors.Is(err, cause) {
			t.Error("Evaluation should wrap cause")
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseHost, []string{"file:///a", "get"}, "number", "text")
		if !strings.Contains(err.Detail, "string") {
			t.Errorf("Detail = %v, should name Go type", err.Detail)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseHost, "v128 results")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("inner")
		err := Wrap(PhaseLoad, KindInvalidInput, cause, "read entry")
		if err.Unwrap() != cause {
			t.Error("Wrap lost cause")
		}
	})
}
