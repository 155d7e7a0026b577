package loader

import (
	"github.com/wippyai/modloader/errors"
)

// Meta carries per-module metadata visible to the body.
type Meta struct {
	URL string
}

// Context is what a Body receives: the module's Bindings and its export capability.
type Context struct {
	Scope  *Scope
	module *Module
	Meta   Meta
}

// Identifier returns the identifier of the module being evaluated.
func (c *Context) Identifier() string {
	return c.module.id
}

// Export installs or replaces the accessor for name on the module's Namespace.
func (c *Context) Export(name string, a Accessor) {
	c.module.ns.define(name, a)
}

// ExportBinding exports the local binding local under name.
// Importers observe every later assignment to local.
// The local is declared if it does not exist yet, so early reads fail
// with errors.KindUninitialized rather than silently.
func (c *Context) ExportBinding(name, local string) {
	if !c.Scope.Has(local) {
		c.Scope.Declare(local)
	}
	c.Export(name, c.Scope.Accessor(local))
}

// ExportDefault sets the default export to v. A later call replaces it.
func (c *Context) ExportDefault(v any) {
	c.Export("default", func() (any, error) { return v, nil })
}

// ExportFrom re-exports from dep as described by l.
// Each installed accessor forwards to dep's current entry, so liveness
// carries through chains of re-exports.
func (c *Context) ExportFrom(l Link, dep *Namespace) error {
	_, err := c.exportFrom(l, dep)
	return err
}

func (c *Context) exportFrom(l Link, dep *Namespace) ([]string, error) {
	if l.Intent != IntentExportFrom {
		return nil, errors.InvalidInput(errors.PhaseLink, "export-from requires an export-from link: "+l.String())
	}

	if l.IsWildcard() {
		if l.LocalName != "" {
			c.Export(l.LocalName, func() (any, error) { return dep, nil })
			return []string{l.LocalName}, nil
		}
		var names []string
		for _, name := range dep.Keys() {
			if name == "default" {
				continue
			}
			c.Export(name, forward(dep, name))
			names = append(names, name)
		}
		return names, nil
	}

	if !dep.Has(l.ExternalName) {
		return nil, errors.MissingExport(c.module.id, l.Identifier, l.ExternalName)
	}
	name := l.LocalName
	if name == "" {
		name = l.ExternalName
	}
	c.Export(name, forward(dep, l.ExternalName))
	return []string{name}, nil
}

func forward(dep *Namespace, name string) Accessor {
	return func() (any, error) {
		return dep.Get(name)
	}
}
