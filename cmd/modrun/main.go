package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/modloader/decl"
	"github.com/wippyai/modloader/driver"
	"github.com/wippyai/modloader/errors"
	"github.com/wippyai/modloader/loader"
	"github.com/wippyai/modloader/wasmeval"
)

func main() {
	var (
		dir         = flag.String("dir", ".", "Directory modules are read from")
		root        = flag.String("root", "", "Identifier root (default file:///)")
		funcName    = flag.String("call", "", "Exported function of the first entry to call")
		argList     = flag.String("args", "", "Function arguments (comma-separated)")
		cacheDir    = flag.String("cache", "", "Directory for the wasm compilation cache")
		timeout     = flag.Duration("timeout", 30*time.Second, "Give up waiting for imports after this long")
		list        = flag.Bool("list", false, "List registered modules and exit")
		interactive = flag.Bool("i", false, "Interactive registry browser")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	entries := flag.Args()
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: modrun [-dir path] [-call name -args a,b] <entry> [entry...]")
		fmt.Fprintln(os.Stderr, "       modrun [-dir path] -list <entry>")
		fmt.Fprintln(os.Stderr, "       modrun [-dir path] -i <entry>  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config{
		dir:      *dir,
		root:     *root,
		cacheDir: *cacheDir,
		timeout:  *timeout,
		entries:  entries,
		log:      log,
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *funcName, *argList, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	log      *zap.Logger
	dir      string
	root     string
	cacheDir string
	entries  []string
	timeout  time.Duration
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

// session is a loader wired to a wasm engine and a directory of modules.
type session struct {
	loader *loader.Loader
	engine *wasmeval.Engine
	cfg    config
}

func newSession(ctx context.Context, cfg config) (*session, error) {
	driver.SetLogger(cfg.log)

	engine, err := wasmeval.New(ctx, wasmeval.Options{
		Logger:   cfg.log,
		CacheDir: cfg.cacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	mux := driver.Mux{Wasm: engine, Text: decl.New()}
	l, err := loader.New(loader.Options{
		Scanner:   mux,
		Evaluator: mux,
		Logger:    cfg.log,
		Root:      cfg.root,
	})
	if err != nil {
		engine.Close(ctx)
		return nil, err
	}
	return &session{loader: l, engine: engine, cfg: cfg}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.engine.Close(ctx); err != nil {
		s.cfg.log.Warn("close engine", zap.Error(err))
	}
}

// importAll loads and imports every entry. On timeout it reports any import
// cycles, which never settle.
func (s *session) importAll(ctx context.Context) ([]*loader.Namespace, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout)
	defer cancel()

	nss, err := driver.Run(ctx, s.loader, os.DirFS(s.cfg.dir), s.cfg.entries...)
	if stderrors.Is(err, context.DeadlineExceeded) {
		if cycles := s.loader.Cycles(); len(cycles) > 0 {
			return nil, fmt.Errorf("%w: import cycles never settle: %s", err, formatCycles(cycles))
		}
	}
	return nss, err
}

func run(cfg config, funcName, argList string, listOnly bool) error {
	ctx := context.Background()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if listOnly {
		if _, err := driver.Load(ctx, s.loader, os.DirFS(cfg.dir), cfg.entries...); err != nil {
			return err
		}
		printRegistry(s.loader)
		return nil
	}

	nss, err := s.importAll(ctx)
	if err != nil {
		printRegistry(s.loader)
		return err
	}

	for _, ns := range nss {
		printNamespace(ns)
	}

	if funcName == "" {
		return nil
	}

	fn, err := lookupFunc(nss[0], funcName)
	if err != nil {
		return err
	}
	var raw []string
	if argList != "" {
		raw = strings.Split(argList, ",")
	}
	args, err := parseArgs(raw, fn.Params())
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s...\n", fn)
	results, err := fn.Invoke(ctx, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	fmt.Printf("Result: %v\n", results)
	return nil
}

func lookupFunc(ns *loader.Namespace, name string) (*wasmeval.Func, error) {
	v, err := ns.Get(name)
	if err != nil {
		return nil, err
	}
	fn, ok := v.(*wasmeval.Func)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseHost, []string{ns.Identifier(), name}, "function", v)
	}
	return fn, nil
}

func parseArgs(raw []string, params []api.ValueType) ([]any, error) {
	if len(raw) != len(params) {
		return nil, fmt.Errorf("want %d arguments, got %d", len(params), len(raw))
	}
	args := make([]any, len(raw))
	for i, s := range raw {
		v, err := parseArg(strings.TrimSpace(s), params[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseArg(s string, vt api.ValueType) (any, error) {
	switch vt {
	case api.ValueTypeI32:
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case api.ValueTypeI64:
		return strconv.ParseInt(s, 10, 64)
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case api.ValueTypeF64:
		return strconv.ParseFloat(s, 64)
	}
	return nil, fmt.Errorf("cannot pass %s from the command line", api.ValueTypeName(vt))
}

func printRegistry(l *loader.Loader) {
	fmt.Println("Modules:")
	for _, m := range l.Modules() {
		fmt.Printf("  %-12s %s\n", m.State(), m.Identifier())
		if err := m.Err(); err != nil {
			fmt.Printf("  %12s %v\n", "", err)
		}
	}
}

func printNamespace(ns *loader.Namespace) {
	fmt.Printf("%s\n", ns.Identifier())
	snap := ns.Snapshot()
	for _, k := range ns.Keys() {
		fmt.Printf("  %s = %s\n", k, formatValue(snap[k]))
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case *wasmeval.Func:
		return v.String()
	case *loader.Namespace:
		return "namespace " + v.Identifier()
	case error:
		return "<" + v.Error() + ">"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatCycles(cycles [][]string) string {
	parts := make([]string, len(cycles))
	for i, c := range cycles {
		parts[i] = "[" + strings.Join(c, " <-> ") + "]"
	}
	return strings.Join(parts, ", ")
}
