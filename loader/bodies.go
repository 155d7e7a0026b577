package loader

import (
	"context"

	"github.com/wippyai/modloader/errors"
)

// Bodies is an Evaluator that looks module bodies up by identifier.
// It suits hosts whose module code is written in Go while declarations come
// from scanned source text.
type Bodies map[string]Body

// Compile implements Evaluator.
func (b Bodies) Compile(_ context.Context, m *Module, _ *Scope) (Body, error) {
	body, ok := b[m.Identifier()]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInstantiate, "module body", m.Identifier())
	}
	return body, nil
}
