package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvp-joe/cyagen/internal/config"
	"github.com/mvp-joe/cyagen/internal/facts"
	"github.com/mvp-joe/cyagen/internal/generate"
	"github.com/mvp-joe/cyagen/internal/parser"
	"github.com/mvp-joe/cyagen/internal/render"
	"github.com/mvp-joe/cyagen/internal/watcher"
)

// ErrWrongArguments is returned when neither an export path nor both template
// and output directories are given.
var ErrWrongArguments = errors.New("wrong arguments given; you can generate json file or files based on templates at a time")

var (
	sourcePath  string
	templateDir string
	outputDir   string
	jsonPath    string
	formatFlag  string
	watchFlag   bool
)

func init() {
	rootCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "C source file to extract facts from")
	rootCmd.Flags().StringVarP(&templateDir, "temp-dir", "t", "", "template directory")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory")
	rootCmd.Flags().StringVarP(&jsonPath, "json-filepath", "j", "", "export the facts to this file (@sourcename@ is substituted)")
	rootCmd.Flags().StringVar(&formatFlag, "format", "", "export format: json or yaml (default from config)")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the source and templates and regenerate on change")
	_ = rootCmd.MarkFlagRequired("source")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Set up context with cancellation for Ctrl+C
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger, runOptions{
		source:      sourcePath,
		templateDir: templateDir,
		outputDir:   outputDir,
		jsonPath:    jsonPath,
		format:      formatFlag,
		quiet:       quietFlag,
	}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.run(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("generation cancelled")
		}
		return err
	}

	if watchFlag {
		return a.watch(ctx)
	}
	return nil
}

// runOptions holds the command line inputs of one invocation.
type runOptions struct {
	source      string
	templateDir string
	outputDir   string
	jsonPath    string
	format      string // overrides output.format when set
	quiet       bool
}

// app parses the source and produces either an export or a template tree.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	opts      runOptions
	out       io.Writer
	parser    *parser.Parser
	format    facts.Format
	renderer  *render.Renderer
	generator *generate.Generator
}

func newApp(cfg *config.Config, logger *zap.Logger, opts runOptions, out io.Writer) (*app, error) {
	exporting := opts.jsonPath != ""
	if !exporting && (opts.templateDir == "" || opts.outputDir == "") {
		return nil, ErrWrongArguments
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		opts:   opts,
		out:    out,
		parser: parser.New(cfg.ParserOptions(logger)),
	}

	if exporting {
		name := opts.format
		if name == "" {
			name = cfg.Output.Format
		}
		format, err := facts.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		a.format = format
		return a, nil
	}

	renderOpts := []render.Option{render.WithLogger(logger)}
	if !cfg.Render.UTC {
		renderOpts = append(renderOpts, render.WithLocalTime())
	}
	r, err := render.New(renderOpts...)
	if err != nil {
		return nil, err
	}

	gen, err := generate.New(r, cfg.GenerateOptions(logger, NewCLIProgressReporter(out, opts.quiet)))
	if err != nil {
		r.Close()
		return nil, err
	}
	a.renderer = r
	a.generator = gen
	return a, nil
}

// Close releases the renderer's template cache.
func (a *app) Close() {
	if a.renderer != nil {
		a.renderer.Close()
	}
}

// run parses the source once and exports or generates from it.
func (a *app) run(ctx context.Context) error {
	m, err := a.parse()
	if err != nil {
		return err
	}
	if a.opts.jsonPath != "" {
		return a.export(m)
	}
	return a.generate(ctx, m)
}

func (a *app) parse() (*facts.Model, error) {
	return parseSource(a.parser, a.opts.source)
}

// parseSource reads and parses the C file at path and names the model after it.
func parseSource(p *parser.Parser, path string) (*facts.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", path, err)
	}

	m, err := p.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	m.SourceName = generate.SourceName(path)
	return m, nil
}

func (a *app) export(m *facts.Model) error {
	target := strings.ReplaceAll(a.opts.jsonPath, generate.SourceNamePlaceholder, m.SourceName)
	dir, err := generate.SourceDirName(a.opts.source, filepath.Dir(target))
	if err != nil {
		return err
	}
	m.SourceDirName = dir

	written, err := generate.ExportFile(m, a.opts.jsonPath, a.format)
	if err != nil {
		return err
	}
	if !a.opts.quiet {
		fmt.Fprintf(a.out, "exported %s\n", written)
	}
	return nil
}

func (a *app) generate(ctx context.Context, m *facts.Model) error {
	dir, err := generate.SourceDirName(a.opts.source, a.opts.outputDir)
	if err != nil {
		return err
	}
	m.SourceDirName = dir

	_, err = a.generator.Generate(ctx, m, a.opts.templateDir, a.opts.outputDir)
	return err
}

// watch regenerates whenever the source or a template changes, until ctx is
// cancelled. Failed regenerations are logged and watching continues.
func (a *app) watch(ctx context.Context) error {
	w, err := watcher.NewFileWatcher(a.opts.source, a.opts.templateDir, watcher.Options{
		Debounce: a.cfg.Debounce(),
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	changes := make(chan []string, 1)
	err = w.Start(ctx, func(files []string) {
		// A pending regeneration re-reads everything, so extra batches are dropped
		select {
		case changes <- files:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if !a.opts.quiet {
		fmt.Fprintln(a.out, "watching for changes, press Ctrl+C to stop")
	}

	for {
		select {
		case <-ctx.Done():
			if !a.opts.quiet {
				fmt.Fprintln(a.out, "watch mode stopped")
			}
			return nil
		case files := <-changes:
			w.Pause()
			a.logger.Debug("Regenerating", zap.Strings("changed", files))
			if err := a.run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("Regeneration failed", zap.Error(err))
			}
			w.Resume()
		}
	}
}
