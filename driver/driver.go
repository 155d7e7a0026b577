// Package driver loads module graphs from an fs.FS into a loader.
//
// Identifiers under the loader's root map to slash-separated paths in the
// file system: with the default root, file:///app/main.js is read from
// app/main.js. Dependencies outside the root, or already registered (for
// example Go modules added with Loader.Define), are left to the loader.
package driver

import (
	"context"
	stderrors "errors"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/modloader/errors"
	"github.com/wippyai/modloader/loader"
	"github.com/wippyai/modloader/specifier"
)

// Load registers each entry and every dependency reachable from it that is
// not registered yet, reading sources from fsys. Entries are specifiers
// resolved against the loader's root. Load returns the entries' identifiers.
//
// Load only constructs modules; nothing is linked or evaluated.
func Load(ctx context.Context, l *loader.Loader, fsys fs.FS, entries ...string) ([]string, error) {
	m, err := newMapper(l.Options().Root)
	if err != nil {
		return nil, err
	}
	log := Logger()

	loading := make(map[string]struct{})

	var loadOne func(id string) error
	loadOne = func(id string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, inProgress := loading[id]; inProgress {
			return nil
		}
		if _, err := l.Lookup(id); err == nil {
			return nil
		}
		loading[id] = struct{}{}

		p, ok := m.path(id)
		if !ok {
			log.Debug("dependency outside file system", zap.String("module", id))
			return nil
		}

		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			kind := errors.KindInvalidInput
			if stderrors.Is(err, fs.ErrNotExist) {
				kind = errors.KindNotFound
			}
			return errors.New(errors.PhaseLoad, kind).
				Path(id).
				Value(p).
				Detail("read %s", p).
				Cause(err).
				Build()
		}

		mod, err := l.NewModule(id, src, nil)
		if err != nil {
			return err
		}
		log.Debug("loaded module",
			zap.String("module", id),
			zap.String("path", p),
			zap.Int("bytes", len(src)))

		for _, dep := range mod.Dependencies() {
			if err := loadOne(dep); err != nil {
				return err
			}
		}
		return nil
	}

	roots := make([]string, 0, len(entries))
	for _, entry := range entries {
		id, err := l.Resolve(entry, "")
		if err != nil {
			return nil, err
		}
		if err := loadOne(id); err != nil {
			return nil, err
		}
		roots = append(roots, id)
	}
	return roots, nil
}

// Run loads entries and imports them concurrently. The namespaces are
// returned in entry order. The first failure is returned; imports already
// under way keep running in the loader.
func Run(ctx context.Context, l *loader.Loader, fsys fs.FS, entries ...string) ([]*loader.Namespace, error) {
	roots, err := Load(ctx, l, fsys, entries...)
	if err != nil {
		return nil, err
	}

	out := make([]*loader.Namespace, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range roots {
		g.Go(func() error {
			ns, err := l.Import(gctx, id)
			if err != nil {
				return err
			}
			out[i] = ns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// mapper translates identifiers under a root URL into fs.FS paths.
type mapper struct {
	root *url.URL
	dir  string
}

func newMapper(root string) (*mapper, error) {
	if root == "" {
		root = specifier.DefaultRoot
	}
	u, err := url.Parse(root)
	if err != nil {
		return nil, errors.InvalidSpecifier(root, "", err)
	}
	dir := u.Path
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir) + "/"
	}
	return &mapper{root: u, dir: dir}, nil
}

func (m *mapper) path(id string) (string, bool) {
	u, err := url.Parse(id)
	if err != nil || u.Scheme != m.root.Scheme || u.Host != m.root.Host {
		return "", false
	}
	p, ok := strings.CutPrefix(u.Path, m.dir)
	if !ok || !fs.ValidPath(p) || p == "." {
		return "", false
	}
	return p, true
}
