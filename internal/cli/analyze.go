package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	semver "github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/vesper-lang/vesper/internal/analysis"
	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/lifecycle"
	"github.com/vesper-lang/vesper/internal/report"
	"github.com/vesper-lang/vesper/internal/unitfile"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	Policy        string
	LangVersion   string
	DumpSchedules bool
	ReportDB      string
}

// analyzeSummary is the JSON shape of one analysis run.
type analyzeSummary struct {
	Unit        string           `json:"unit"`
	Procedures  int              `json:"procedures"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Diagnostics []diagnosticJSON `json:"diagnostics,omitempty"`
	Schedules   string           `json:"schedules,omitempty"`
}

type diagnosticJSON struct {
	Code     string `json:"code"`
	Level    string `json:"level"`
	Message  string `json:"message"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <unit.yaml>",
		Short: "Analyze a compilation unit's lifecycle semantics",
		Long: `Analyze binds the unit's lifecycle operators, validates destructible
contexts, and prints the destructor schedules and deep-copy plans the
compiler would emit.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(rootOpts, opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "destructible-context policy file (YAML)")
	cmd.Flags().StringVar(&opts.LangVersion, "lang-version", "", "override the unit's language version")
	cmd.Flags().BoolVar(&opts.DumpSchedules, "dump-schedules", true, "print destructor schedules and deep-copy plans")
	cmd.Flags().StringVar(&opts.ReportDB, "report", "", "record the run in a report database at this path")

	return cmd
}

func runAnalyze(rootOpts *RootOptions, opts *AnalyzeOptions, path string, out, errOut io.Writer) error {
	started := time.Now()

	unit, err := unitfile.Load(path)
	if err != nil {
		return err
	}

	if opts.Policy != "" {
		unit.Policy, err = lifecycle.LoadPolicy(opts.Policy)
		if err != nil {
			return err
		}
	}
	if opts.LangVersion != "" {
		unit.LangVersion, err = semver.NewVersion(opts.LangVersion)
		if err != nil {
			return fmt.Errorf("lang-version %q: %w", opts.LangVersion, err)
		}
	}

	result, err := analysis.Run(unit)
	if err != nil {
		return err
	}
	duration := time.Since(started)

	if opts.ReportDB != "" {
		if err := recordRun(opts.ReportDB, unit, result, started, duration); err != nil {
			return err
		}
		if rootOpts.Verbose {
			fmt.Fprintf(errOut, "recorded run in %s\n", opts.ReportDB)
		}
	}

	if rootOpts.Format == "json" {
		if err := writeJSONSummary(out, unit, result, opts.DumpSchedules); err != nil {
			return err
		}
	} else {
		writeTextSummary(out, result, opts.DumpSchedules)
	}

	if result.HasErrors() {
		return fmt.Errorf("analysis of %s failed with %d diagnostic(s)", unit.Name, len(result.Diagnostics))
	}
	return nil
}

func recordRun(dbPath string, unit *analysis.Unit, result *analysis.Result, started time.Time, duration time.Duration) error {
	store, err := report.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := report.Run{
		Unit:       unit.Name,
		StartedAt:  started,
		Duration:   duration,
		Procedures: len(unit.Procedures),
		Dump:       result.Annotations.Dump(),
	}
	if unit.LangVersion != nil {
		run.LangVersion = unit.LangVersion.String()
	}
	_, err = store.RecordRun(context.Background(), run, result.Diagnostics)
	return err
}

func writeTextSummary(out io.Writer, result *analysis.Result, dump bool) {
	for _, d := range result.Diagnostics {
		fmt.Fprintln(out, d.String())
	}
	if dump {
		fmt.Fprint(out, result.Annotations.Dump())
	}
}

func writeJSONSummary(out io.Writer, unit *analysis.Unit, result *analysis.Result, dump bool) error {
	summary := analyzeSummary{
		Unit:       unit.Name,
		Procedures: len(unit.Procedures),
	}
	for _, d := range result.Diagnostics {
		switch d.Level {
		case diagnostic.LevelError:
			summary.Errors++
		case diagnostic.LevelWarning:
			summary.Warnings++
		}
		summary.Diagnostics = append(summary.Diagnostics, diagnosticJSON{
			Code:     string(d.Code),
			Level:    d.Level.String(),
			Message:  d.Message,
			Type:     d.TypeName,
			Location: d.Span.String(),
		})
	}
	if dump {
		summary.Schedules = result.Annotations.Dump()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
