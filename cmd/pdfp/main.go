package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"pdfp-go/internal/batch"
	"pdfp-go/internal/compressor"
	"pdfp-go/internal/config"
	"pdfp-go/internal/engine"
	"pdfp-go/internal/files"
	"pdfp-go/internal/logger"
	"pdfp-go/internal/metadata"
	"pdfp-go/internal/settings"
	"pdfp-go/internal/statistics"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dryRun  bool
	verbose bool
	quiet   bool
	version = "dev"

	v = config.NewViper()
)

var errBatchFailed = errors.New("one or more files failed to compress")

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfp [files or folders...]",
	Short: "Compress PDF files with Ghostscript",
	Long: `pdfp compresses one or many PDF files using Ghostscript.

Folders are expanded to the PDF files they directly contain. Compressed
files are written next to the originals as <name>-pdfp.pdf (or
<name>-pdfp-1.pdf and so on when that name is taken) unless an output
folder is given. Files that would not get smaller are left untouched.

Press Ctrl+C to stop after the current file; remaining files are skipped.`,
	Version:       version,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompress(cmd.Context(), args)
	},
}

// autoCmd compresses a single file with the default preset.
var autoCmd = &cobra.Command{
	Use:   "auto <file>",
	Short: "Compress one PDF with ebook quality, keeping the original",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuto(cmd.Context(), args[0])
	},
}

// checkCmd reports whether Ghostscript and exiftool are available.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that Ghostscript is installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context())
	},
}

// inspectCmd prints PDF metadata.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show PDF metadata (requires exiftool)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	flags := rootCmd.Flags()
	flags.StringP("quality", "q", "ebook", "quality preset: screen, ebook, printer, prepress")
	flags.Bool("remove-input", false, "delete originals after a size-reducing compression")
	flags.StringP("output-dir", "o", "", "write compressed files to this folder")
	flags.Float64("target-size", 0, "desired output size per file (0 = none)")
	flags.String("target-unit", "MB", "unit of --target-size: KB or MB")
	flags.BoolVar(&dryRun, "dry-run", false, "show what would be done without running Ghostscript")

	for key, flag := range map[string]string{
		"quality":           "quality",
		"remove_input_file": "remove-input",
		"output_folder":     "output-dir",
		"target_size":       "target-size",
		"target_size_unit":  "target-unit",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(autoCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(inspectCmd)
}

// runCompress executes a batch over the given paths.
func runCompress(ctx context.Context, args []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg)
	fs := afero.NewOsFs()

	inputs, errs := files.NewResolver(fs).Collect(args)
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "✗ %v\n", e)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no valid files to compress (supported: %s)", files.SupportedFormats())
	}
	if limit := cfg.Safety.MaxFilesPerRun; limit > 0 && len(inputs) > limit {
		return fmt.Errorf("%d files exceed safety.max_files_per_run (%d)", len(inputs), limit)
	}
	for _, f := range inputs {
		if cfg.IsLargeFile(f.Size) {
			fmt.Fprintf(os.Stderr, "⚠ %s is %s; compression may take a while\n", f.Name, statistics.FormatBytes(f.Size))
		}
	}

	s := cfg.CompressionSettings()
	if !quiet {
		suggestQuality(inputs, s)
	}

	if dryRun {
		plan, err := batch.NewPlanner(fs, log).Plan(inputs, s)
		if err != nil {
			return err
		}
		printPlan(os.Stdout, plan, s)
		return nil
	}

	gs := engine.NewGhostscript(cfg.Engine.Binaries, log)
	if err := requireEngine(ctx, gs, cfg.Engine.Binaries, os.Stderr); err != nil {
		return err
	}

	stats := statistics.NewStatistics()
	comp := compressor.NewDefaultCompressor(fs, gs, log, cfg.CompressorOptions())
	orch := batch.NewOrchestrator(comp, log, stats)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := orch.Start(ctx, inputs, s)
	if err != nil {
		return err
	}
	r := newRenderer(os.Stdout, os.Stderr, len(inputs), quiet)
	for ev := range h.Events() {
		r.handle(ev)
	}
	sum, err := h.Wait()
	if err != nil {
		return err
	}
	stats.Finalize()

	if sum.Cancelled {
		fmt.Fprintf(os.Stderr, "\nCancelled: %d file(s) skipped\n", sum.Totals.Skipped)
	}
	if !quiet {
		fmt.Println("\n" + stats.GetSummary())
	}
	if stats.HasFailures() {
		fmt.Fprintln(os.Stderr, "\n"+stats.GetErrorSummary())
		return errBatchFailed
	}
	return nil
}

// runAuto compresses one file with ebook quality and no extras.
func runAuto(ctx context.Context, path string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg)
	fs := afero.NewOsFs()

	input, err := files.NewResolver(fs).Resolve(path)
	if err != nil {
		return err
	}

	gs := engine.NewGhostscript(cfg.Engine.Binaries, log)
	if err := requireEngine(ctx, gs, cfg.Engine.Binaries, os.Stderr); err != nil {
		return err
	}
	comp := compressor.NewDefaultCompressor(fs, gs, log, cfg.CompressorOptions())
	orch := batch.NewOrchestrator(comp, log, nil)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := newRenderer(os.Stdout, os.Stderr, 1, quiet)
	sum, err := orch.Run(ctx, []files.FileInfo{input}, settings.CompressionSettings{Quality: settings.QualityEbook}, r.handle)
	if err != nil {
		return err
	}
	if sum.Totals.Failed > 0 {
		return errBatchFailed
	}
	return nil
}

// runCheck probes for Ghostscript and exiftool.
func runCheck(ctx context.Context) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg)

	gs := engine.NewGhostscript(cfg.Engine.Binaries, log)
	ver, err := gs.Version(ctx)
	if err != nil {
		fmt.Println("✗ Ghostscript not found")
		fmt.Println(engine.InstallInstructions(runtime.GOOS))
		return err
	}
	bin, _ := gs.Locate(ctx)
	fmt.Printf("✓ Ghostscript %s (%s)\n", ver, bin)

	if et, err := metadata.NewExifTool(log); err != nil {
		fmt.Println("- exiftool not found; 'pdfp inspect' is unavailable")
	} else {
		et.Close()
		fmt.Println("✓ exiftool")
	}
	return nil
}

// runInspect prints metadata for a PDF.
func runInspect(path string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg)

	input, err := files.NewResolver(afero.NewOsFs()).Resolve(path)
	if err != nil {
		return err
	}

	et, err := metadata.NewExifTool(log)
	if err != nil {
		return err
	}
	defer et.Close()

	info, err := et.Inspect(input.Path)
	if err != nil {
		return err
	}
	printInfo(os.Stdout, input, info)
	return nil
}

// suggestQuality hints at a better tier when a target size is set.
func suggestQuality(inputs []files.FileInfo, s settings.CompressionSettings) {
	target := s.TargetSize()
	if target == 0 {
		return
	}
	for _, f := range inputs {
		if settings.EstimateCompressedSize(f.Size, s.Quality) <= target {
			continue
		}
		if q := settings.SuggestQuality(f.Size, target); q != s.Quality {
			fmt.Fprintf(os.Stderr, "ℹ %s: %s quality is unlikely to reach the target, try --quality %s\n",
				f.Name, s.Quality, q)
		}
	}
}

// setupLogger configures and returns a logger.
// requireEngine stops a command before any job when the engine is missing.
func requireEngine(ctx context.Context, eng engine.Engine, candidates []string, w io.Writer) error {
	if eng.Available(ctx) {
		return nil
	}
	fmt.Fprintln(w, "Ghostscript is not installed.")
	fmt.Fprintln(w, engine.InstallInstructions(runtime.GOOS))
	return &engine.NotInstalledError{Candidates: candidates}
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := cfg.LoggerConfig()
	if quiet {
		loggerCfg.Console = false
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.WarnLevel)
	}

	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errBatchFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
