package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/seedbed/internal/adapters/file"
	"github.com/aretw0/seedbed/internal/config"
	"github.com/aretw0/seedbed/internal/mapping"
	"github.com/aretw0/seedbed/internal/presentation/tui"
	"github.com/aretw0/seedbed/pkg/adapters/memory"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/output"
	"github.com/aretw0/seedbed/pkg/runner"
	"golang.org/x/term"
)

// GenerateOptions holds the flags of the generate command.
type GenerateOptions struct {
	RecipePath string
	SessionID  string
	Seed       int64
	Scope      string
	// Vars are option overrides in "K:V,K2:V2" form.
	Vars string

	// Target and NumRecords repeat the recipe until Target has NumRecords records.
	Target     string
	NumRecords int
	MaxBatches int

	// Format is json or markdown; empty picks markdown on a terminal and JSON otherwise.
	Format     string
	OutputPath string
	DBURL      string

	ContinuationFile         string
	GenerateContinuationFile string
	MappingFile              string
	// WorkingDirectory holds continuation state between invocations: an
	// existing continuation.json is loaded and the successor replaces it.
	WorkingDirectory string

	Debug bool
	Quiet bool
}

// IO bundles the process streams so commands can be tested.
type IO struct {
	Out io.Writer
	Err io.Writer
	// TTY reports whether Out is an interactive terminal.
	TTY bool
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{Out: os.Stdout, Err: os.Stderr, TTY: term.IsTerminal(int(os.Stdout.Fd()))}
}

// RunGenerate executes the generate command.
func RunGenerate(ctx context.Context, cfg config.Config, opts GenerateOptions, stdio IO) error {
	logger := createLogger(opts.Debug, cfg.LogLevel)

	data, err := os.ReadFile(opts.RecipePath)
	if err != nil {
		return fmt.Errorf("read recipe: %w", err)
	}
	vars, err := runner.ParseVars(opts.Vars)
	if err != nil {
		return err
	}
	if opts.SessionID == "" {
		opts.SessionID = domain.DefaultSessionID
	}

	promote, err := applyWorkingDirectory(&opts)
	if err != nil {
		return err
	}

	storage, err := openRunStorage(ctx, cfg, &opts)
	if err != nil {
		return err
	}
	defer storage.Close()

	engine, err := createEngine(cfg, storage, EngineOptions{
		Seed:  opts.Seed,
		Scope: opts.Scope,
		Vars:  vars,
		Debug: opts.Debug,
	}, logger)
	if err != nil {
		return err
	}

	recipe, err := engine.Parse(data)
	if err != nil {
		return err
	}
	recipe.Source = filepath.Base(opts.RecipePath)

	if opts.MappingFile != "" {
		if err := mapping.WriteFile(opts.MappingFile, recipe); err != nil {
			return err
		}
		logger.Info("Mapping file written", "path", opts.MappingFile)
	}

	writer, closeOut, err := openWriter(ctx, opts, stdio)
	if err != nil {
		return err
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSessionID(opts.SessionID),
		runner.WithOnBatch(func(ctx context.Context, batch int, res *domain.Result) error {
			return writer.Write(ctx, res.Records)
		}),
	}
	if opts.Target != "" {
		runnerOpts = append(runnerOpts, runner.WithTarget(opts.Target, opts.NumRecords))
	}
	if opts.MaxBatches > 0 {
		runnerOpts = append(runnerOpts, runner.WithMaxBatches(opts.MaxBatches))
	}

	summary, runErr := runner.New(engine, runnerOpts...).Run(ctx, recipe)

	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if err := closeOut(); err != nil && runErr == nil {
		runErr = err
	}

	if runErr == nil && opts.GenerateContinuationFile != "" {
		runErr = writeContinuation(ctx, engine.Sessions().Load, opts)
		if runErr == nil && promote != "" {
			runErr = os.Rename(opts.GenerateContinuationFile, promote)
		}
	}

	if !opts.Quiet {
		reportSummary(stdio.Err, summary, runErr)
	}
	return handleExecutionError(runErr)
}

// Working directory file names.
const (
	ContinuationFileName     = "continuation.json"
	NextContinuationFileName = "continuation_next.json"
)

// applyWorkingDirectory fills in continuation paths from the working
// directory. It returns the path the successor file must be renamed to once
// written, or "" when explicit flags take precedence.
func applyWorkingDirectory(opts *GenerateOptions) (string, error) {
	wd := opts.WorkingDirectory
	if wd == "" {
		return "", nil
	}
	if err := os.MkdirAll(wd, 0755); err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}

	current := filepath.Join(wd, ContinuationFileName)
	if opts.ContinuationFile == "" {
		if _, err := os.Stat(current); err == nil {
			opts.ContinuationFile = current
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("working directory: %w", err)
		}
	}
	if opts.GenerateContinuationFile != "" {
		return "", nil
	}
	opts.GenerateContinuationFile = filepath.Join(wd, NextContinuationFileName)
	return current, nil
}

// openRunStorage seeds an in-memory store from a continuation file, or
// falls back to the configured storage.
func openRunStorage(ctx context.Context, cfg config.Config, opts *GenerateOptions) (*Storage, error) {
	if opts.ContinuationFile == "" && opts.GenerateContinuationFile == "" {
		return OpenStorage(cfg)
	}

	// Continuation files carry one session; process scope would key it differently.
	opts.Scope = string(domain.ScopeSession)
	storage := &Storage{Store: memory.NewStore(), Kind: "continuation"}
	if opts.ContinuationFile == "" {
		return storage, nil
	}

	state, err := file.ReadSession(opts.ContinuationFile)
	if err != nil {
		return nil, fmt.Errorf("read continuation file: %w", err)
	}
	state.ID = opts.SessionID
	if err := storage.Store.Save(ctx, state); err != nil {
		return nil, err
	}
	return storage, nil
}

func writeContinuation(ctx context.Context, load func(context.Context, string) (*domain.Session, error), opts GenerateOptions) error {
	state, err := load(ctx, opts.SessionID)
	if err != nil {
		return fmt.Errorf("load session for continuation: %w", err)
	}
	if err := file.WriteSession(opts.GenerateContinuationFile, state); err != nil {
		return fmt.Errorf("write continuation file: %w", err)
	}
	return nil
}

// openWriter picks the destination: a database URL, an output file, or the
// terminal. The returned close func releases the file, if one was opened.
func openWriter(ctx context.Context, opts GenerateOptions, stdio IO) (output.Writer, func() error, error) {
	nop := func() error { return nil }

	if opts.DBURL != "" {
		w, err := output.OpenSQL(ctx, opts.DBURL)
		return w, nop, err
	}

	format, err := resolveFormat(opts.Format, opts.OutputPath, stdio.TTY)
	if err != nil {
		return nil, nop, err
	}

	dest := stdio.Out
	closeOut := nop
	if opts.OutputPath != "" {
		f, err := os.Create(opts.OutputPath)
		if err != nil {
			return nil, nop, fmt.Errorf("create output file: %w", err)
		}
		dest, closeOut = f, f.Close
	}

	var mdOpts []output.MarkdownOption
	if format == output.FormatMarkdown && opts.OutputPath == "" && stdio.TTY {
		render, err := tui.NewRenderer()
		if err != nil {
			return nil, closeOut, err
		}
		mdOpts = append(mdOpts, output.WithRenderer(render))
	}

	w, err := output.New(format, dest, mdOpts...)
	return w, closeOut, err
}

// resolveFormat applies the explicit flag, then the file extension, then
// the terminal default.
func resolveFormat(flag, path string, tty bool) (output.Format, error) {
	if flag != "" {
		return output.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return output.FormatJSON, nil
	case ".md", ".txt":
		return output.FormatMarkdown, nil
	}
	if path == "" && tty {
		return output.FormatMarkdown, nil
	}
	return output.FormatJSON, nil
}

func reportSummary(w io.Writer, summary *runner.Summary, err error) {
	if summary == nil {
		return
	}
	total := 0
	for _, n := range summary.Counts {
		total += n
	}
	switch {
	case err == nil:
		fmt.Fprintln(w, tui.Status(true, fmt.Sprintf("%d records in %d batch(es)", total, summary.Batches)))
	case isInterrupted(err):
		printSystemMessage(w, "Interrupted after %d batch(es).", summary.Batches)
	default:
		fmt.Fprintln(w, tui.Status(false, err.Error()))
		if last := summary.Last; last != nil && !last.Completed() && len(last.Records) > 0 {
			printSystemMessage(w, "Batch %d failed after %d partial record(s); they were not written.", summary.Batches+1, len(last.Records))
		}
	}
}
