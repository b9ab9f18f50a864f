package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joshuapare/dfxmlkit/dfxml"
	"github.com/joshuapare/dfxmlkit/internal/logger"
	"github.com/joshuapare/dfxmlkit/pkg/types"
	"github.com/joshuapare/dfxmlkit/regxml"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	configPath string
	sectorSize int64
	logJSON    bool
	limitsName string
	showDiags  bool

	cfg        = DefaultConfig()
	limits     = types.DefaultLimits()
	diagReport *types.DiagnosticReport
	logCloser  io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "dfxmlctl",
	Short: "Inspect DFXML and RegXML forensic documents",
	Long: `dfxmlctl reads Digital Forensics XML file listings and RegXML registry
dumps as a stream. It lists files, volumes and registry cells, checks byte
runs for overlaps, and verifies file contents against a disk image.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		printDiagnostics()
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log parser diagnostics to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().Int64Var(&sectorSize, "sector-size", 0, "Sector size for byte runs (default 512)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write the log as JSON")
	rootCmd.PersistentFlags().
		StringVar(&limitsName, "limits", "", "Document limits: default, relaxed, strict or none")
	rootCmd.PersistentFlags().
		BoolVar(&showDiags, "diagnostics", false, "Report tolerated input problems to stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config file, applies flag overrides and starts logging.
func setup(cmd *cobra.Command, _ []string) error {
	cfg = DefaultConfig()
	if configPath != "" {
		c, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	if cmd.Flags().Changed("sector-size") {
		if sectorSize <= 0 {
			return fmt.Errorf("--sector-size must be positive, got %d", sectorSize)
		}
		cfg.SectorSize = sectorSize
	}
	if logJSON {
		cfg.Logging.JSON = true
	}
	if cmd.Flags().Changed("limits") {
		cfg.Limits = limitsName
	}
	l, err := types.LimitsByName(cfg.Limits)
	if err != nil {
		return err
	}
	limits = l
	diagReport = nil
	if showDiags {
		diagReport = &types.DiagnosticReport{}
	}
	if noColor || (cfg.Color != nil && !*cfg.Color) {
		color.NoColor = true
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = min(level, slog.LevelDebug)
	}
	logCloser, err = logger.Init(logger.Options{
		Enabled: verbose || cfg.Logging.LogDir != "",
		Level:   level,
		JSON:    cfg.Logging.JSON,
		LogDir:  cfg.Logging.LogDir,
	})
	return err
}

// dfxmlOptions returns the reader options derived from the configuration.
func dfxmlOptions(extra ...dfxml.Option) []dfxml.Option {
	opts := []dfxml.Option{
		dfxml.WithSectorSize(cfg.SectorSize),
		dfxml.WithLimits(limits),
		dfxml.WithDiagnostics(diagReport),
	}
	return append(opts, extra...)
}

func regxmlOptions() []regxml.Option {
	return []regxml.Option{
		regxml.WithLimits(limits),
		regxml.WithDiagnostics(diagReport),
	}
}

// printDiagnostics writes the collected diagnostics to stderr.
func printDiagnostics() {
	if diagReport == nil {
		return
	}
	if jsonOut {
		out, err := diagReport.FormatJSON()
		if err == nil {
			fmt.Fprintln(os.Stderr, out)
		}
		return
	}
	s := diagReport.Summary()
	fmt.Fprintf(os.Stderr, "%s\n", warnColor(fmt.Sprintf("diagnostics: %d warnings, %d info", s.Warnings, s.Info)))
	fmt.Fprint(os.Stderr, diagReport.FormatTextCompact())
}

// openInput opens a document argument. "-" is standard input.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return f, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

var (
	okColor   = color.New(color.FgGreen).SprintFunc()
	badColor  = color.New(color.FgRed).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
)
