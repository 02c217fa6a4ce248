package nativebuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"imbind/internal/ir"
	"imbind/internal/trace"
	imrt "imbind/runtime"
)

// DefaultTimeout bounds the native command when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// HelperFile is the name of the generated C++ source inside Workdir.
const HelperFile = "imbind_exports.cpp"

// Placeholders substituted in every command argument.
const (
	PlaceholderSource  = "{source}"
	PlaceholderOutput  = "{output}"
	PlaceholderInclude = "{include}"
)

// ErrArtifactMissing is returned when the command succeeds without
// producing Options.Output.
var ErrArtifactMissing = errors.New("native artifact missing")

type Options struct {
	// Command is the argv of the build, with placeholders.
	Command []string
	// Workdir receives the helper source and headers; the command runs
	// there.
	Workdir string
	Output  string
	Timeout time.Duration
	// PrintCommands echoes the expanded command to Stdout.
	PrintCommands bool
	Stdout        io.Writer
}

// Build generates the export helper for lib and runs the native command.
// It returns the library with helper symbol names assigned and the
// artifacts to link against. Without inline functions nothing is built.
func Build(ctx context.Context, lib *ir.Library, opts Options) (*ir.Library, []string, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "native-build")
	out, helper := GenerateExports(ctx, lib)
	if helper.Empty() || len(opts.Command) == 0 {
		span.End("nothing to build")
		return out, nil, nil
	}

	workdir, err := filepath.Abs(opts.Workdir)
	if err != nil {
		span.End("bad workdir")
		return out, nil, err
	}
	output, err := filepath.Abs(opts.Output)
	if err != nil {
		span.End("bad output")
		return out, nil, err
	}
	include := filepath.Join(workdir, "include")
	if err := extractHeaders(include); err != nil {
		span.End("extract failed")
		return out, nil, err
	}
	source := filepath.Join(workdir, HelperFile)
	if err := os.WriteFile(source, []byte(helper.Source()), 0o600); err != nil {
		span.End("write failed")
		return out, nil, fmt.Errorf("failed to write export helper: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	r := strings.NewReplacer(PlaceholderSource, source, PlaceholderOutput, output, PlaceholderInclude, include)
	argv := make([]string, len(opts.Command))
	for i, a := range opts.Command {
		argv[i] = r.Replace(a)
	}
	if err := runCommand(cctx, opts, workdir, argv); err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s: timed out after %s", argv[0], timeout)
		}
		span.End("command failed")
		return out, nil, err
	}
	if _, err := os.Stat(output); err != nil {
		span.End("artifact missing")
		return out, nil, fmt.Errorf("%w: %s", ErrArtifactMissing, output)
	}
	span.End(fmt.Sprintf("%d wrappers", len(helper.Wrappers)))
	return out, []string{output}, nil
}

func extractHeaders(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create include dir: %w", err)
	}
	fsys := imrt.NativeFS()
	return fs.WalkDir(fsys, "native", func(entry string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, entry)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, d.Name()), data, 0o600)
	})
}

func runCommand(ctx context.Context, opts Options, dir string, argv []string) error {
	if opts.PrintCommands && opts.Stdout != nil {
		if _, err := fmt.Fprintln(opts.Stdout, strings.Join(argv, " ")); err != nil {
			return fmt.Errorf("failed to print command: %w", err)
		}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", argv[0], err)
		}
		return fmt.Errorf("%s: %s", argv[0], msg)
	}
	return nil
}
