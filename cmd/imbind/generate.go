package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"imbind/internal/config"
	"imbind/internal/diag"
	"imbind/internal/diagfmt"
	"imbind/internal/emit"
	"imbind/internal/frontend"
	"imbind/internal/ir"
	"imbind/internal/link"
	"imbind/internal/nativebuild"
	"imbind/internal/observ"
	"imbind/internal/passes"
	"imbind/internal/pipeline"
)

// LogFile is written next to the generated sources.
const LogFile = "Diagnostics.log"

var generateCmd = &cobra.Command{
	Use:   "generate [manifest]",
	Short: "Generate the binding described by imbind.toml",
	Long: `Translate the snapshot named by the manifest, run the pass pipeline and
write the Go package. Without an argument imbind.toml is looked up from the
current directory upwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: generateExecution,
}

func init() {
	generateCmd.Flags().String("out", "", "output directory (overrides [output].dir)")
	generateCmd.Flags().String("package", "", "package name (overrides [output].package)")
	generateCmd.Flags().Bool("no-native", false, "skip the native helper build")
	generateCmd.Flags().Bool("print-commands", false, "echo the native build command")
	generateCmd.Flags().String("format", "pretty", "diagnostics output format (pretty|json)")
	generateCmd.Flags().String("path-mode", "auto", "how diagnostic paths are shown (auto|absolute|relative|basename)")
}

type generateOptions struct {
	outDir        string
	pkg           string
	noNative      bool
	printCommands bool
	json          bool
	pathMode      diagfmt.PathMode
	maxDiags      int
	color         bool
	quiet         bool
	timings       bool
	ui            bool
	stdout        io.Writer
	stderr        io.Writer
}

func generateExecution(cmd *cobra.Command, args []string) error {
	opts, err := readGenerateOptions(cmd)
	if err != nil {
		return err
	}
	manifest, err := locateManifest(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(manifest)
	if err != nil {
		return usageError(err)
	}

	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log, err := generate(ctx, cfg, opts)
	tr.close(cmd, err != nil || (log != nil && log.HasErrors()))
	if err != nil {
		return err
	}
	if log.HasErrors() {
		return &exitError{code: 1}
	}
	return nil
}

func readGenerateOptions(cmd *cobra.Command) (generateOptions, error) {
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	opts := generateOptions{stdout: cmd.OutOrStdout(), stderr: cmd.ErrOrStderr()}

	var err error
	if opts.outDir, err = flags.GetString("out"); err != nil {
		return opts, err
	}
	if opts.pkg, err = flags.GetString("package"); err != nil {
		return opts, err
	}
	if opts.noNative, err = flags.GetBool("no-native"); err != nil {
		return opts, err
	}
	if opts.printCommands, err = flags.GetBool("print-commands"); err != nil {
		return opts, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return opts, err
	}
	switch format {
	case "pretty":
	case "json":
		opts.json = true
	default:
		return opts, usageError(fmt.Errorf("unsupported format %q (must be pretty or json)", format))
	}
	pathMode, err := flags.GetString("path-mode")
	if err != nil {
		return opts, err
	}
	mode, ok := diagfmt.ParsePathMode(pathMode)
	if !ok {
		return opts, usageError(fmt.Errorf("invalid --path-mode value %q", pathMode))
	}
	opts.pathMode = mode

	if opts.maxDiags, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	opts.color = !color.NoColor
	uiValue, err := root.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	uiMode, err := readSwitch("ui", uiValue)
	if err != nil {
		return opts, usageError(err)
	}
	opts.ui = !opts.quiet && !opts.json && uiMode.enabled(os.Stdout)
	return opts, nil
}

func locateManifest(args []string) (string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return "", usageError(err)
		}
		if info.IsDir() {
			return filepath.Join(args[0], config.FileName), nil
		}
		return args[0], nil
	}
	path, ok, err := config.FindManifest(".")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", usageError(fmt.Errorf("no %s found in the current directory or its parents", config.FileName))
	}
	return path, nil
}

// generate runs the whole pipeline for cfg and writes the diagnostics log.
// The returned error is for failures that stopped the run; problems with
// the binding are in the log.
func generate(ctx context.Context, cfg *config.Config, opts generateOptions) (*diagfmt.Log, error) {
	if opts.outDir == "" {
		opts.outDir = cfg.Path(cfg.Output.Dir)
	}
	if opts.pkg != "" {
		cfg.Output.Package = opts.pkg
	}

	var generated []diag.Diagnostic
	steps, extractor, err := plan(cfg, opts, &generated)
	if err != nil {
		return nil, err
	}
	var timer *observ.Timer
	if opts.timings {
		timer = observ.NewTimer()
	}
	runOpts := pipeline.Options{Timer: timer}

	var st *pipeline.State
	if opts.ui {
		st, err = runWithUI(ctx, cfg.Output.Package, nil, steps, runOpts)
	} else {
		st, err = pipeline.Run(ctx, nil, steps, runOpts)
	}
	if st == nil || st.Library == nil {
		if err == nil {
			err = errors.New("the snapshot produced no library")
		}
		return nil, err
	}

	log := diagfmt.NewLog()
	log.AddLibrary(st.Library)
	log.AddQuarantine(extractor.Quarantine())
	log.AddCategory(diagfmt.CategoryGeneration, generated, "No generation problems")

	if mkErr := os.MkdirAll(opts.outDir, 0o750); mkErr != nil {
		return log, errors.Join(err, fmt.Errorf("failed to create output directory: %w", mkErr))
	}
	pretty := diagfmt.PrettyOpts{
		Color:    opts.color,
		PathMode: opts.pathMode,
		BaseDir:  cfg.Dir,
	}
	if wErr := log.WriteFile(filepath.Join(opts.outDir, LogFile), pretty); wErr != nil {
		err = errors.Join(err, wErr)
	}

	if !opts.quiet {
		if pErr := printLog(log, pretty, opts); pErr != nil {
			err = errors.Join(err, pErr)
		}
	}
	if !opts.quiet || log.HasErrors() {
		fmt.Fprintf(opts.stderr, "%s: %s\n", cfg.Output.Package, log.Summary())
	}
	if timer != nil {
		fmt.Fprint(opts.stderr, timer.Summary())
	}
	return log, err
}

func printLog(log *diagfmt.Log, pretty diagfmt.PrettyOpts, opts generateOptions) error {
	if opts.json {
		return log.JSON(opts.stdout, diagfmt.JSONOpts{
			PathMode: pretty.PathMode,
			BaseDir:  pretty.BaseDir,
			Max:      opts.maxDiags,
		})
	}
	pretty.Max = opts.maxDiags
	pretty.HideEmpty = true
	return log.Write(opts.stdout, pretty)
}

// plan assembles the translate step and the standard pipeline with the
// collaborators cfg enables. Emission diagnostics are collected into
// generated.
func plan(cfg *config.Config, opts generateOptions, generated *[]diag.Diagnostic) ([]pipeline.Step, *passes.BrokenExtractor, error) {
	snapshot := cfg.Path(cfg.Input.Snapshot)
	translate := pipeline.Step{Name: "translate", Stage: pipeline.StageTranslate, Run: func(ctx context.Context, st *pipeline.State) error {
		snap, err := frontend.Read(snapshot)
		if err != nil {
			return err
		}
		lib, err := frontend.Translate(ctx, snap)
		if err != nil {
			return fmt.Errorf("%s: %w", snapshot, err)
		}
		st.Library = lib
		return nil
	}}

	var c pipeline.Collaborators
	if len(cfg.Native.Command) > 0 && !opts.noNative {
		native, err := nativeOptions(cfg, opts)
		if err != nil {
			return nil, nil, err
		}
		c.Native = func(ctx context.Context, lib *ir.Library) (*ir.Library, []string, error) {
			return nativebuild.Build(ctx, lib, native)
		}
	}
	if len(cfg.Input.Symbols) > 0 || c.Native != nil {
		sources := make([]string, len(cfg.Input.Symbols))
		for i, s := range cfg.Input.Symbols {
			sources[i] = cfg.Path(s)
		}
		lo := link.Options{
			Sources:     sources,
			OnMissing:   cfg.Linker.OnMissing.Severity(),
			OnAmbiguous: cfg.Linker.OnAmbiguous.Severity(),
		}
		c.Link = func(ctx context.Context, lib *ir.Library, artifacts []string) (*ir.Library, error) {
			return link.Link(ctx, lib, artifacts, lo)
		}
	}
	eo := emit.Options{
		Dir:     opts.outDir,
		Package: cfg.Output.Package,
		Library: cfg.Output.Library,
		Clean:   true,
	}
	c.Emit = func(ctx context.Context, lib *ir.Library) ([]diag.Diagnostic, error) {
		ds, err := emit.Generate(ctx, lib, eo)
		*generated = append(*generated, ds...)
		return nil, err
	}

	steps, extractor := pipeline.Standard(cfg, c)
	return append([]pipeline.Step{translate}, steps...), extractor, nil
}

func nativeOptions(cfg *config.Config, opts generateOptions) (nativebuild.Options, error) {
	var timeout time.Duration
	if cfg.Native.Timeout != "" {
		d, err := time.ParseDuration(cfg.Native.Timeout)
		if err != nil || d <= 0 {
			return nativebuild.Options{}, usageError(fmt.Errorf("invalid [native].timeout %q", cfg.Native.Timeout))
		}
		timeout = d
	}
	workdir := cfg.Native.Workdir
	if workdir == "" {
		workdir = ".imbind"
	}
	return nativebuild.Options{
		Command:       cfg.Native.Command,
		Workdir:       cfg.Path(workdir),
		Output:        cfg.Path(cfg.Native.Output),
		Timeout:       timeout,
		PrintCommands: opts.printCommands,
		Stdout:        opts.stderr,
	}, nil
}
