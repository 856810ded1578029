// Package main provides the CLI entry point for sheets-dl.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/handiism/sheets-exporter/internal/config"
	"github.com/handiism/sheets-exporter/internal/export"
	"github.com/handiism/sheets-exporter/internal/http"
	ioutils "github.com/handiism/sheets-exporter/internal/io"
	"github.com/handiism/sheets-exporter/internal/model"
	"github.com/handiism/sheets-exporter/internal/sheets"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

// options holds the persistent flag values.
type options struct {
	configPath string
	host       string
	output     string
	cookie     string
	cookieFile string
	headers    []string
	delay      time.Duration
	rate       float64
	timeout    time.Duration
	strict     bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "\nInterrupted, export cancelled.")
		err = ctx.Err()
	case err != nil:
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
	}

	code := exitCodeFor(err)
	stop()
	os.Exit(code)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "sheets-dl",
		Short: "Download Google Sheets through the export endpoints",
		Long: `sheets-dl fetches a Google Sheets document through its export API
in csv, tsv, xlsx, ods, pdf or html and saves each payload to a directory
or blob bucket.

Private sheets need the session cookies of an account that can view them,
passed with --cookie or --cookie-file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default: "+config.DefaultPath()+")")
	flags.StringVar(&opts.host, "host", "", "Export endpoint host (default: "+sheets.DefaultHost+")")
	flags.StringVarP(&opts.output, "output", "o", "", "Output directory or bucket URL (file:///dir, mem://)")
	flags.StringVar(&opts.cookie, "cookie", "", "Cookie header value sent with each request")
	flags.StringVar(&opts.cookieFile, "cookie-file", "", "Netscape cookies.txt file")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "Extra request header as 'Name: value' (repeatable)")
	flags.DurationVar(&opts.delay, "delay", export.DefaultBatchDelay, "Pause between batch downloads")
	flags.Float64Var(&opts.rate, "rate", 0, "Batch rate limit in requests per second (overrides --delay)")
	flags.DurationVar(&opts.timeout, "timeout", http.DefaultTimeout, "Per-request timeout, 0 disables")
	flags.BoolVar(&opts.strict, "strict", false, "Reject sign-in pages and malformed binary exports")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(
		newURLsCmd(opts),
		newFetchCmd(opts),
		newAllCmd(opts),
	)

	return rootCmd
}

func newURLsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "urls <sheet-url>",
		Short: "Print the export endpoint for every format",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}

			ref, err := sheets.ParseReference(args[0])
			if err != nil {
				return err
			}

			endpoints := settings.ToBuilder().Build(ref)
			for _, f := range model.AllFormats() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f, endpoints[f])
			}
			return nil
		},
	}
}

func newFetchCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "fetch <sheet-url>",
		Short: "Download a single export format",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFormat(format)
			if err != nil {
				return err
			}
			ref, err := sheets.ParseReference(args[0])
			if err != nil {
				return err
			}

			return withExporter(cmd, opts, func(ctx context.Context, _ *config.Settings, exporter *export.Exporter) error {
				outcome := exporter.ExportFormat(ctx, ref, f)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if !outcome.Succeeded {
					fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("Failed: "+outcome.ErrorMessage))
					return fmt.Errorf("%w: %s", ErrExportFailed, f)
				}

				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
					fmt.Sprintf("Downloaded %s successfully! (%s)", strings.ToUpper(string(f)), outcome.FileName)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(model.FormatCSV), "Export format: csv, tsv, xlsx, ods, pdf, html")
	return cmd
}

func newAllCmd(opts *options) *cobra.Command {
	var formats []string

	cmd := &cobra.Command{
		Use:   "all <sheet-url>",
		Short: "Download every batch format in sequence",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := sheets.ParseReference(args[0])
			if err != nil {
				return err
			}

			return withExporter(cmd, opts, func(ctx context.Context, settings *config.Settings, exporter *export.Exporter) error {
				batch, err := settings.Formats()
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("formats") {
					if batch, err = model.ParseFormats(formats); err != nil {
						return err
					}
				}

				result := exporter.Export(ctx, ref, batch...)
				if ctx.Err() != nil {
					return ctx.Err()
				}

				out := cmd.OutOrStdout()
				for _, o := range result.Failed() {
					fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  %s: %s", o.Format, o.ErrorMessage)))
				}

				summary := fmt.Sprintf("Downloaded %s formats successfully!", result.Ratio())
				if result.Succeeded < result.Total {
					fmt.Fprintln(out, warningStyle.Render(summary))
					return fmt.Errorf("%w: %s", ErrExportFailed, result.Ratio())
				}
				fmt.Fprintln(out, successStyle.Render(summary))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&formats, "formats", nil, "Comma-separated batch formats (default: config batch_formats)")
	return cmd
}

// withExporter loads settings, opens the output and runs fn with a
// configured exporter that logs progress to stderr.
func withExporter(cmd *cobra.Command, opts *options, fn func(context.Context, *config.Settings, *export.Exporter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}

	clientOpts, err := settings.ToClientOptions()
	if err != nil {
		return err
	}

	saver, err := ioutils.OpenSaver(ctx, settings.Output)
	if err != nil {
		return err
	}
	defer saver.Close()

	exporterOpts, err := settings.ToExporterOptions(progressPrinter(cmd.ErrOrStderr(), opts.verbose))
	if err != nil {
		return err
	}

	exporter := export.NewExporter(http.NewClient(clientOpts), saver, exporterOpts...)
	fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("Saving to "+destination(saver, settings.Output)))

	return fn(ctx, settings, exporter)
}

// loadSettings reads the config file and applies explicitly set flags.
func loadSettings(cmd *cobra.Command, opts *options) (*config.Settings, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		settings.Host = opts.host
	}
	if flags.Changed("output") {
		settings.Output = opts.output
	}
	if flags.Changed("cookie") {
		settings.Cookie = opts.cookie
	}
	if flags.Changed("cookie-file") {
		settings.CookieFile = opts.cookieFile
	}
	if flags.Changed("header") {
		headers, err := parseHeaders(opts.headers)
		if err != nil {
			return nil, err
		}
		if settings.Headers == nil {
			settings.Headers = map[string]string{}
		}
		for k, v := range headers {
			settings.Headers[k] = v
		}
	}
	if flags.Changed("delay") {
		settings.BatchDelay = opts.delay.String()
	}
	if flags.Changed("rate") {
		settings.RateLimit = opts.rate
	}
	if flags.Changed("timeout") {
		settings.RequestTimeout = opts.timeout.String()
	}
	if flags.Changed("strict") {
		settings.StrictValidation = opts.strict
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// parseHeaders splits "Name: value" flags.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: header %q is not 'Name: value'", ErrUsage, v)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// progressPrinter renders progress events with level prefixes.
func progressPrinter(w io.Writer, verbose bool) func(export.ProgressEvent) {
	return func(event export.ProgressEvent) {
		if event.Level == export.LevelVerbose && !verbose {
			return
		}

		var line string
		switch event.Level {
		case export.LevelError:
			line = errorStyle.Render("✗ " + event.Message)
		case export.LevelWarning:
			line = warningStyle.Render("! " + event.Message)
		case export.LevelSuccess:
			line = successStyle.Render("✓ " + event.Message)
		case export.LevelInfo:
			line = infoStyle.Render("› " + event.Message)
		default:
			line = dimStyle.Render("  " + event.Message)
		}

		fmt.Fprintln(w, line)
	}
}

func destination(saver *ioutils.BlobSaver, fallback string) string {
	if d := saver.Destination(); d != "" {
		return d
	}
	return fallback
}

// exactArgs is cobra.ExactArgs with errors marked as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}
