package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	csvimport "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/import"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/rules"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	verifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	flaggedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// errRowsRejected is returned by verify --fail-on-reject
var errRowsRejected = errors.New("one or more rows were rejected")

type verifyOptions struct {
	rulesPath    string
	sheet        string
	delimiter    string
	format       string
	failOnReject bool
}

func newVerifyCmd() *cobra.Command {
	opts := &verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a CSV or XLSX catalog file",
		Long: `Decode, normalize and verify a catalog file and print one verdict per row.

Without --rules the built-in rule set is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.rulesPath, "rules", "", "rules document (YAML or JSON)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from an XLSX file (default: first sheet)")
	cmd.Flags().StringVar(&opts.delimiter, "delimiter", "", "CSV delimiter (default: ,)")
	cmd.Flags().StringVarP(&opts.format, "output", "o", "table", "output format: table or json")
	cmd.Flags().BoolVar(&opts.failOnReject, "fail-on-reject", false, "exit non-zero when any row is rejected")
	return cmd
}

func runVerify(out io.Writer, path string, opts *verifyOptions) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ruleSet, err := loadRuleSet(opts.rulesPath)
	if err != nil {
		return err
	}

	var decoderOpts []csvimport.DecoderOption
	if opts.sheet != "" {
		decoderOpts = append(decoderOpts, csvimport.WithSheet(opts.sheet))
	}
	if opts.delimiter != "" {
		r := []rune(opts.delimiter)
		if len(r) != 1 {
			return fmt.Errorf("delimiter must be a single character, got %q", opts.delimiter)
		}
		decoderOpts = append(decoderOpts, csvimport.WithCSVDelimiter(r[0]))
	}

	table, err := csvimport.NewDecoder(decoderOpts...).Decode(filepath.Base(path), content)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	normalized, err := csvimport.NewNormalizer(nil).Normalize(table)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", path, err)
	}
	report := ruleSet.Engine.EvaluateAll(normalized.Rows)

	switch opts.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case "table", "":
		if err := printReport(out, ruleSet.Source, normalized, report); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	if opts.failOnReject && report.CountByStatus()[verification.StatusRejected] > 0 {
		return errRowsRejected
	}
	return nil
}

// loadRuleSet reads the rules document at path, or the built-in set when
// path is empty
func loadRuleSet(path string) (*rules.RuleSet, error) {
	if path == "" {
		return rules.Build(rules.SourceDefault, rules.DefaultYAML())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return rules.Build(path, data)
}

func printReport(out io.Writer, source string, normalized *csvimport.NormalizeResult, report verification.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ROW"),
		headerStyle.Render("ID"),
		headerStyle.Render("STATUS"),
		headerStyle.Render("TAGS"),
		headerStyle.Render("REASONS"),
	)
	for _, v := range report.Verdicts {
		id := v.Identifier()
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			v.RowIndex(),
			id,
			styleStatus(v.Status),
			joinOrDash(v.Tags),
			joinOrDash(v.RejectionReasons),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts := report.CountByStatus()
	fmt.Fprintf(out, "\nrules: %s\n", source)
	fmt.Fprintf(out, "rows: %d  verified: %d  flagged: %d  rejected: %d  dropped: %d\n",
		len(report.Verdicts),
		counts[verification.StatusVerified],
		counts[verification.StatusFlagged],
		counts[verification.StatusRejected],
		normalized.Dropped,
	)
	for _, col := range normalized.Columns {
		if !col.Mapped {
			fmt.Fprintf(out, "%s column %q is not part of the catalog schema\n", warningStyle.Render("note:"), col.Header)
		}
	}
	printWarnings(out, report.Warnings)
	return nil
}

func printWarnings(out io.Writer, warnings []verification.RuleConfigurationWarning) {
	for _, w := range warnings {
		fmt.Fprintf(out, "%s rule %s: %s\n", warningStyle.Render("warning:"), w.RuleID, w.Message)
	}
}

func styleStatus(s verification.Status) string {
	switch s {
	case verification.StatusVerified:
		return verifiedStyle.Render(string(s))
	case verification.StatusFlagged:
		return flaggedStyle.Render(string(s))
	case verification.StatusRejected:
		return rejectedStyle.Render(string(s))
	}
	return string(s)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
