package loader

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wippyai/modloader/errors"
)

func importDecl(spec, external, local string) Decl {
	return Decl{Intent: IntentImport, Specifier: spec, ExternalName: external, LocalName: local}
}

func exportFromDecl(spec, external, local string) Decl {
	return Decl{Intent: IntentExportFrom, Specifier: spec, ExternalName: external, LocalName: local}
}

// exportConsts defines and exports each value as a local binding of the same name.
func exportConsts(values map[string]any) Body {
	return func(_ context.Context, c *Context) error {
		for name, v := range values {
			c.Scope.Define(name, v)
			c.ExportBinding(name, name)
		}
		return nil
	}
}

func mustDefine(t *testing.T, l *Loader, id string, decls []Decl, body Body) *Module {
	t.Helper()
	m, err := l.Define(id, decls, body, nil)
	if err != nil {
		t.Fatalf("Define(%q) failed: %v", id, err)
	}
	return m
}

func mustImport(t *testing.T, l *Loader, id string) *Namespace {
	t.Helper()
	ns, err := l.Import(context.Background(), id)
	if err != nil {
		t.Fatalf("Import(%q) failed: %v", id, err)
	}
	return ns
}

func mustGet(t *testing.T, ns *Namespace, name string) any {
	t.Helper()
	v, err := ns.Get(name)
	if err != nil {
		t.Fatalf("Get(%q) on %s failed: %v", name, ns.Identifier(), err)
	}
	return v
}

func TestImport_DependentSeesDependencyExport(t *testing.T) {
	l := NewWithDefaults()

	mustDefine(t, l, "a", nil, exportConsts(map[string]any{"ONE": 1}))
	mustDefine(t, l, "b", []Decl{importDecl("a", "ONE", "ONE")},
		func(_ context.Context, c *Context) error {
			one, err := c.Scope.Get("ONE")
			if err != nil {
				return err
			}
			c.Scope.Define("TWO", one.(int)+1)
			c.ExportBinding("TWO", "TWO")
			return nil
		})

	b := mustImport(t, l, "b")
	if got := mustGet(t, b, "TWO"); got != 2 {
		t.Errorf("TWO = %v, want 2", got)
	}

	a := mustImport(t, l, "a")
	if got := mustGet(t, a, "ONE"); got != 1 {
		t.Errorf("ONE = %v, want 1", got)
	}
	if b.Identifier() != "file:///b" || a.Identifier() != "file:///a" {
		t.Errorf("identifiers = %q, %q", b.Identifier(), a.Identifier())
	}
}

func TestImport_Idempotent(t *testing.T) {
	l := NewWithDefaults()

	var runs atomic.Int32
	mustDefine(t, l, "shared", nil, func(_ context.Context, c *Context) error {
		runs.Add(1)
		time.Sleep(10 * time.Millisecond)
		c.ExportDefault("value")
		return nil
	})

	const n = 50
	results := make([]*Namespace, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns, err := l.Import(context.Background(), "shared")
			if err != nil {
				t.Errorf("Import failed: %v", err)
				return
			}
			results[i] = ns
		}(i)
	}
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Errorf("body ran %d times, want 1", got)
	}
	for i, ns := range results {
		if ns != results[0] {
			t.Errorf("results[%d] is a different Namespace", i)
		}
	}
}

func TestImport_SharedDependencyEvaluatedOnce(t *testing.T) {
	l := NewWithDefaults()

	var runs atomic.Int32
	mustDefine(t, l, "d", nil, func(_ context.Context, c *Context) error {
		runs.Add(1)
		c.Scope.Define("v", "d")
		c.ExportBinding("v", "v")
		return nil
	})
	mustDefine(t, l, "b", []Decl{importDecl("./d", "v", "v")}, exportConsts(map[string]any{"b": true}))
	mustDefine(t, l, "c", []Decl{importDecl("./d", "v", "v")}, exportConsts(map[string]any{"c": true}))
	mustDefine(t, l, "a", []Decl{
		importDecl("./b", "b", "b"),
		importDecl("./c", "c", "c"),
	}, nil)

	mustImport(t, l, "a")
	if got := runs.Load(); got != 1 {
		t.Errorf("shared dependency ran %d times, want 1", got)
	}
}

func TestLiveBinding(t *testing.T) {
	l := NewWithDefaults()

	x := mustDefine(t, l, "x", nil, func(_ context.Context, c *Context) error {
		c.Scope.Define("x", 1)
		c.ExportBinding("x", "x")
		c.Scope.Define("inc", func() {
			v, _ := c.Scope.Get("x")
			_ = c.Scope.Set("x", v.(int)+1)
		})
		c.ExportBinding("inc", "inc")
		// reassigned after export: importers must see 5, not 1
		return c.Scope.Set("x", 5)
	})
	y := mustDefine(t, l, "y", []Decl{
		importDecl("./x", "x", "x"),
		importDecl("./x", "inc", "inc"),
	}, nil)

	mustImport(t, l, "y")

	scope := y.Bindings()
	v, err := scope.Get("x")
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Errorf("x = %v, want 5", v)
	}

	inc, err := scope.Get("inc")
	if err != nil {
		t.Fatal(err)
	}
	inc.(func())()

	v, _ = scope.Get("x")
	if v != 6 {
		t.Errorf("x after inc = %v, want 6", v)
	}
	if got := mustGet(t, x.Namespace(), "x"); got != 6 {
		t.Errorf("x.Namespace().x = %v, want 6", got)
	}

	if err := scope.Set("x", 100); err == nil {
		t.Error("assigning to an import binding should fail")
	}
}

func TestExportDefault_LastWins(t *testing.T) {
	l := NewWithDefaults()

	mustDefine(t, l, "m", nil, func(_ context.Context, c *Context) error {
		c.ExportDefault("first")
		c.ExportDefault("second")
		return nil
	})

	ns := mustImport(t, l, "m")
	if got := mustGet(t, ns, "default"); got != "second" {
		t.Errorf("default = %v, want second", got)
	}
	if keys := ns.Keys(); len(keys) != 1 || keys[0] != "default" {
		t.Errorf("Keys() = %v, want [default]", keys)
	}
}

func TestWildcardReExport(t *testing.T) {
	l := NewWithDefaults()

	x := mustDefine(t, l, "lib/x.js", nil, exportConsts(map[string]any{"a": 1, "b": 2}))
	mustDefine(t, l, "lib/index.js", []Decl{exportFromDecl("./x.js", Wildcard, "ns")}, nil)

	index := mustImport(t, l, "lib/index.js")
	v := mustGet(t, index, "ns")
	ns, ok := v.(*Namespace)
	if !ok {
		t.Fatalf("ns = %T, want *Namespace", v)
	}
	if ns != x.Namespace() {
		t.Error("re-exported namespace is not the dependency's Namespace")
	}
	if got := mustGet(t, ns, "a"); got != 1 {
		t.Errorf("ns.a = %v, want 1", got)
	}

	if err := x.Bindings().Set("b", 20); err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, ns, "b"); got != 20 {
		t.Errorf("ns.b = %v, want 20 after dependency update", got)
	}
}

func TestStarReExport_SkipsDefault(t *testing.T) {
	l := NewWithDefaults()

	x := mustDefine(t, l, "x", nil, func(_ context.Context, c *Context) error {
		c.Scope.Define("a", "A")
		c.ExportBinding("a", "a")
		c.Scope.Define("b", "B")
		c.ExportBinding("b", "b")
		c.ExportDefault("D")
		return nil
	})
	mustDefine(t, l, "all", []Decl{exportFromDecl("./x", Wildcard, "")}, nil)

	all := mustImport(t, l, "all")
	keys := all.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	_ = x.Bindings().Set("a", "A2")
	if got := mustGet(t, all, "a"); got != "A2" {
		t.Errorf("a = %v, want A2", got)
	}
}

func TestReExportChain_Live(t *testing.T) {
	l := NewWithDefaults()

	c := mustDefine(t, l, "c", nil, exportConsts(map[string]any{"v": "one"}))
	mustDefine(t, l, "b", []Decl{exportFromDecl("./c", "v", "w")}, nil)
	mustDefine(t, l, "a", []Decl{exportFromDecl("./b", "w", "")}, nil)

	a := mustImport(t, l, "a")
	if got := mustGet(t, a, "w"); got != "one" {
		t.Errorf("w = %v, want one", got)
	}

	_ = c.Bindings().Set("v", "two")
	if got := mustGet(t, a, "w"); got != "two" {
		t.Errorf("w = %v, want two through two re-exports", got)
	}
}

func TestNamespaceImport(t *testing.T) {
	l := NewWithDefaults()

	mustDefine(t, l, "math", nil, exportConsts(map[string]any{"pi": 3}))
	m := mustDefine(t, l, "main", []Decl{importDecl("./math", Wildcard, "math")},
		func(_ context.Context, c *Context) error {
			v, err := c.Scope.Get("math")
			if err != nil {
				return err
			}
			pi, err := v.(*Namespace).Get("pi")
			if err != nil {
				return err
			}
			c.ExportDefault(pi)
			return nil
		})

	ns := mustImport(t, l, "main")
	if got := mustGet(t, ns, "default"); got != 3 {
		t.Errorf("default = %v, want 3", got)
	}
	if m.State() != StateEvaluated {
		t.Errorf("State() = %v, want evaluated", m.State())
	}
}

func TestFailureIsolation(t *testing.T) {
	l := NewWithDefaults()

	boom := stderrors.New("boom")
	var runs atomic.Int32
	b := mustDefine(t, l, "b", nil, func(_ context.Context, c *Context) error {
		runs.Add(1)
		c.ExportDefault("partial")
		return boom
	})
	a := mustDefine(t, l, "a", []Decl{importDecl("./b", "default", "b")}, exportConsts(map[string]any{"ok": true}))

	_, errA := l.Import(context.Background(), "a")
	if errA == nil {
		t.Fatal("Import(a) should fail")
	}

	var le *LinkError
	if !stderrors.As(errA, &le) {
		t.Fatalf("error = %T, want *LinkError", errA)
	}
	if le.Dependency != "file:///b" {
		t.Errorf("Dependency = %q, want file:///b", le.Dependency)
	}
	if !stderrors.Is(errA, boom) {
		t.Error("link failure should carry the dependency's cause")
	}
	if !stderrors.Is(errA, &errors.Error{Phase: errors.PhaseLink, Kind: errors.KindLinkFailure}) {
		t.Error("link failure should match link_failure")
	}

	if a.State() != StateFailed {
		t.Errorf("a.State() = %v, want failed", a.State())
	}
	if b.State() != StateFailed {
		t.Errorf("b.State() = %v, want failed", b.State())
	}
	if b.Namespace() != nil {
		t.Error("failed module must not expose a Namespace")
	}
	if a.Err() == nil || b.Err() == nil {
		t.Error("failures should be recorded on the modules")
	}

	_, errB := l.Import(context.Background(), "b")
	if !stderrors.Is(errB, &errors.Error{Phase: errors.PhaseEvaluate, Kind: errors.KindEvaluation}) {
		t.Errorf("Import(b) = %v, want evaluation failure", errB)
	}
	_, errB2 := l.Import(context.Background(), "b")
	if errB2 != errB {
		t.Error("later importers should observe the same cached failure")
	}
	if got := runs.Load(); got != 1 {
		t.Errorf("failing body ran %d times, want 1", got)
	}

	_, errA2 := l.Import(context.Background(), "a")
	if errA2 != errA {
		t.Error("a's failure should be memoized")
	}
}

func TestPanicBecomesFailure(t *testing.T) {
	l := NewWithDefaults()

	m := mustDefine(t, l, "p", nil, func(context.Context, *Context) error {
		panic("unexpected")
	})

	_, err := l.Import(context.Background(), "p")
	if err == nil {
		t.Fatal("expected failure")
	}
	if m.State() != StateFailed {
		t.Errorf("State() = %v, want failed", m.State())
	}
}

func TestMissingExport(t *testing.T) {
	l := NewWithDefaults()

	a := mustDefine(t, l, "a", nil, exportConsts(map[string]any{"ONE": 1}))
	mustDefine(t, l, "b", []Decl{importDecl("./a", "TWO", "TWO")}, nil)

	_, err := l.Import(context.Background(), "b")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLink, Kind: errors.KindMissingExport}) {
		t.Fatalf("Import(b) = %v, want missing_export", err)
	}
	if a.State() != StateEvaluated {
		t.Errorf("a.State() = %v, a should be unaffected", a.State())
	}
}

func TestLink_NoPartialBindings(t *testing.T) {
	l := NewWithDefaults()

	mustDefine(t, l, "good", nil, exportConsts(map[string]any{"g": 1}))
	mustDefine(t, l, "bad", nil, func(context.Context, *Context) error {
		return stderrors.New("bad module")
	})
	m := mustDefine(t, l, "mixed", []Decl{
		importDecl("./good", "g", "g"),
		importDecl("./bad", "x", "x"),
		exportFromDecl("./good", "g", "reg"),
	}, nil)

	if err := l.Link(context.Background(), m); err == nil {
		t.Fatal("Link should fail")
	}
	scope := m.Bindings()
	if scope.Has("g") || scope.Has("x") {
		t.Errorf("link-installed bindings retained: %v", scope.Names())
	}
	if m.ns.Has("reg") {
		t.Error("link-installed re-export retained")
	}
	if m.State() != StateFailed {
		t.Errorf("State() = %v, want failed", m.State())
	}
}

func TestImport_Unregistered(t *testing.T) {
	l := NewWithDefaults()

	_, err := l.Import(context.Background(), "missing")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRegistry, Kind: errors.KindNotFound}) {
		t.Fatalf("Import = %v, want not_found", err)
	}

	// The miss is not cached: registering afterwards makes the module importable.
	mustDefine(t, l, "missing", nil, exportConsts(map[string]any{"here": true}))
	ns := mustImport(t, l, "missing")
	if got := mustGet(t, ns, "here"); got != true {
		t.Errorf("here = %v", got)
	}
}

func TestImport_UnregisteredDependency(t *testing.T) {
	l := NewWithDefaults()

	mustDefine(t, l, "a", []Decl{importDecl("./nowhere", "x", "x")}, nil)

	_, err := l.Import(context.Background(), "a")
	var le *LinkError
	if !stderrors.As(err, &le) {
		t.Fatalf("Import = %v, want *LinkError", err)
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRegistry, Kind: errors.KindNotFound}) {
		t.Errorf("cause should be not_found: %v", err)
	}
}

func TestCycle_NeverSettles(t *testing.T) {
	l := NewWithDefaults()

	x := mustDefine(t, l, "x", []Decl{importDecl("./y", "Y", "Y")}, exportConsts(map[string]any{"X": "x"}))
	y := mustDefine(t, l, "y", []Decl{importDecl("./x", "X", "X")}, exportConsts(map[string]any{"Y": "y"}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := l.Import(ctx, "x")
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Import(x) = %v, want deadline exceeded", err)
	}
	if x.State().Terminal() || y.State().Terminal() {
		t.Errorf("states = %v, %v; cycle members must not settle", x.State(), y.State())
	}

	cycles := l.Cycles()
	if len(cycles) != 1 || len(cycles[0]) != 2 || cycles[0][0] != "file:///x" || cycles[0][1] != "file:///y" {
		t.Errorf("Cycles() = %v, want [[file:///x file:///y]]", cycles)
	}
}

func TestCycles_SelfImportAndAcyclic(t *testing.T) {
	l := NewWithDefaults()

	mustDefine(t, l, "self", []Decl{importDecl("./self", "a", "a")}, nil)
	mustDefine(t, l, "leaf", nil, nil)
	mustDefine(t, l, "root", []Decl{importDecl("./leaf", Wildcard, "leaf")}, nil)

	cycles := l.Cycles()
	if len(cycles) != 1 || len(cycles[0]) != 1 || cycles[0][0] != "file:///self" {
		t.Errorf("Cycles() = %v, want [[file:///self]]", cycles)
	}
}

func TestStateProgression(t *testing.T) {
	l := NewWithDefaults()

	mustDefine(t, l, "dep", nil, exportConsts(map[string]any{"v": 1}))
	m := mustDefine(t, l, "m", []Decl{importDecl("./dep", "v", "v")}, nil)

	if m.State() != StateUnlinked {
		t.Errorf("initial State() = %v, want unlinked", m.State())
	}
	if m.Namespace() != nil {
		t.Error("Namespace() before evaluation should be nil")
	}

	ctx := context.Background()
	if err := l.Link(ctx, m); err != nil {
		t.Fatal(err)
	}
	if m.State() != StateLinked {
		t.Errorf("State() after Link = %v, want linked", m.State())
	}

	if err := l.Instantiate(ctx, m); err != nil {
		t.Fatal(err)
	}
	if m.State() != StateInstantiated {
		t.Errorf("State() after Instantiate = %v, want instantiated", m.State())
	}

	ns, err := l.Evaluate(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if m.State() != StateEvaluated || m.Namespace() != ns {
		t.Errorf("State() after Evaluate = %v", m.State())
	}
}

func TestUninitializedBinding(t *testing.T) {
	l := NewWithDefaults()

	var early error
	mustDefine(t, l, "m", nil, func(_ context.Context, c *Context) error {
		c.ExportBinding("late", "late")
		c.ExportBinding("never", "never")
		_, early = c.Scope.Get("late")
		c.Scope.Define("late", "now")
		return nil
	})

	ns := mustImport(t, l, "m")
	uninit := &errors.Error{Phase: errors.PhaseBinding, Kind: errors.KindUninitialized}
	if !stderrors.Is(early, uninit) {
		t.Errorf("early read = %v, want uninitialized", early)
	}
	if got := mustGet(t, ns, "late"); got != "now" {
		t.Errorf("late = %v, want now", got)
	}
	if _, err := ns.Get("never"); !stderrors.Is(err, uninit) {
		t.Errorf("never = %v, want uninitialized", err)
	}
}

func TestSideEffectImportRunsFirst(t *testing.T) {
	l := NewWithDefaults()

	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	mustDefine(t, l, "polyfill", nil, func(context.Context, *Context) error {
		record("polyfill")
		return nil
	})
	mustDefine(t, l, "app", []Decl{importDecl("./polyfill", "", "")}, func(context.Context, *Context) error {
		record("app")
		return nil
	})

	mustImport(t, l, "app")
	if len(order) != 2 || order[0] != "polyfill" || order[1] != "app" {
		t.Errorf("order = %v, want [polyfill app]", order)
	}
}

func TestImport_CanceledWaitKeepsOutcome(t *testing.T) {
	l := NewWithDefaults()

	release := make(chan struct{})
	var runs atomic.Int32
	mustDefine(t, l, "slow", nil, func(_ context.Context, c *Context) error {
		runs.Add(1)
		<-release
		c.ExportDefault("done")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Import(ctx, "slow"); !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Import with canceled ctx = %v, want canceled", err)
	}

	close(release)
	ns := mustImport(t, l, "slow")
	if got := mustGet(t, ns, "default"); got != "done" {
		t.Errorf("default = %v, want done", got)
	}
	if got := runs.Load(); got != 1 {
		t.Errorf("body ran %d times, want 1", got)
	}
}

func TestIndependentLoaders(t *testing.T) {
	l1 := NewWithDefaults()
	l2 := NewWithDefaults()

	mustDefine(t, l1, "m", nil, exportConsts(map[string]any{"v": 1}))
	mustDefine(t, l2, "m", nil, exportConsts(map[string]any{"v": 2}))

	if got := mustGet(t, mustImport(t, l1, "m"), "v"); got != 1 {
		t.Errorf("l1 v = %v, want 1", got)
	}
	if got := mustGet(t, mustImport(t, l2, "m"), "v"); got != 2 {
		t.Errorf("l2 v = %v, want 2", got)
	}
}

func TestContextMeta(t *testing.T) {
	l := NewWithDefaults()

	var url, id string
	mustDefine(t, l, "https://example.com/pkg/main.js", nil, func(_ context.Context, c *Context) error {
		url = c.Meta.URL
		id = c.Identifier()
		return nil
	})

	mustImport(t, l, "https://example.com/pkg/main.js")
	if url != "https://example.com/pkg/main.js" || id != url {
		t.Errorf("Meta.URL = %q, Identifier() = %q", url, id)
	}
}

func TestBaseScopeVisibleToBody(t *testing.T) {
	l := NewWithDefaults()

	base := ScopeOf(map[string]any{"greeting": "hello"})
	_, err := l.Define("m", nil, func(_ context.Context, c *Context) error {
		g, err := c.Scope.Get("greeting")
		if err != nil {
			return err
		}
		c.ExportDefault(g.(string) + " world")
		return nil
	}, base)
	if err != nil {
		t.Fatal(err)
	}

	ns := mustImport(t, l, "m")
	if got := mustGet(t, ns, "default"); got != "hello world" {
		t.Errorf("default = %v", got)
	}
}

func TestNewModule(t *testing.T) {
	scanner := ScannerFunc(func(src []byte) ([]Decl, error) {
		if string(src) == "uses dep" {
			return []Decl{importDecl("./dep", "v", "v")}, nil
		}
		return nil, nil
	})
	bodies := Bodies{
		"file:///app/dep": exportConsts(map[string]any{"v": 41}),
		"file:///app/main": func(_ context.Context, c *Context) error {
			v, err := c.Scope.Get("v")
			if err != nil {
				return err
			}
			c.ExportDefault(v.(int) + 1)
			return nil
		},
	}

	l, err := New(Options{Scanner: scanner, Evaluator: bodies})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := l.NewModule("app/dep", []byte(""), nil); err != nil {
		t.Fatal(err)
	}
	m, err := l.NewModule("app/main", []byte("uses dep"), nil)
	if err != nil {
		t.Fatal(err)
	}

	links := m.Links()
	if len(links) != 1 || links[0].Identifier != "file:///app/dep" {
		t.Fatalf("Links() = %v", links)
	}
	if string(m.Source()) != "uses dep" {
		t.Errorf("Source() = %q", m.Source())
	}

	ns := mustImport(t, l, "app/main")
	if got := mustGet(t, ns, "default"); got != 42 {
		t.Errorf("default = %v, want 42", got)
	}
}

func TestNewModule_Errors(t *testing.T) {
	l := NewWithDefaults()
	if _, err := l.NewModule("m", []byte("x"), nil); err == nil {
		t.Error("NewModule without scanner should fail")
	}

	failing := ScannerFunc(func([]byte) ([]Decl, error) {
		return nil, stderrors.New("unterminated import")
	})
	l, err := New(Options{Scanner: failing})
	if err != nil {
		t.Fatal(err)
	}
	_, err = l.NewModule("m", []byte("import"), nil)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseScan, Kind: errors.KindInvalidDeclaration}) {
		t.Errorf("NewModule = %v, want scan failure", err)
	}

	noEval, err := New(Options{Scanner: ScannerFunc(func([]byte) ([]Decl, error) { return nil, nil })})
	if err != nil {
		t.Fatal(err)
	}
	m, err := noEval.NewModule("m", []byte("body"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := noEval.Import(context.Background(), "m"); err == nil {
		t.Error("Import without evaluator should fail")
	}
	if m.State() != StateFailed {
		t.Errorf("State() = %v, want failed", m.State())
	}
}

func TestDefine_InvalidSpecifier(t *testing.T) {
	l := NewWithDefaults()
	_, err := l.Define("m", []Decl{importDecl("%zz", "a", "a")}, nil, nil)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindInvalidSpecifier}) {
		t.Errorf("Define = %v, want invalid_specifier", err)
	}
	if _, err := l.Lookup("m"); err == nil {
		t.Error("module with unresolvable links must not be registered")
	}
}

func TestNew_InvalidRoot(t *testing.T) {
	if _, err := New(Options{Root: "not-absolute"}); err == nil {
		t.Error("New with relative root should fail")
	}

	l, err := New(Options{Root: "https://modules.example.com/"})
	if err != nil {
		t.Fatal(err)
	}
	m := mustDefine(t, l, "pkg/a.js", nil, nil)
	if m.Identifier() != "https://modules.example.com/pkg/a.js" {
		t.Errorf("Identifier() = %q", m.Identifier())
	}
}
