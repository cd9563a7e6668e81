// Command report prints assessment statistics for a workbook and optionally
// writes JSON, CSV and XLSX exports.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"assesspulse/internal/config"
	"assesspulse/internal/dataprocessing"
	"assesspulse/internal/exporter"
	"assesspulse/internal/infrastructure"
	"assesspulse/internal/validation"
	"assesspulse/pkg/contracts/domain"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	in      string
	dir     string
	jsonOut string
	csvOut  string
	xlsxOut string
	dept    string
	deptSet bool
	verbose bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "assessment workbook (.xlsx)")
	fs.StringVar(&opts.dir, "dir", config.DefaultDataDir, "directory searched for the newest workbook when -in is empty")
	fs.StringVar(&opts.jsonOut, "json", "", "write the full report as JSON to this file")
	fs.StringVar(&opts.csvOut, "csv", "", "write the department table as CSV to this file")
	fs.StringVar(&opts.xlsxOut, "xlsx", "", "write the report workbook to this file")
	fs.StringVar(&opts.dept, "dept", "", "print only this department; -dept= selects the unnamed department")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "dept" {
			opts.deptSet = true
		}
	})
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := infrastructure.NewLoggerWithWriter(stderr, level)

	if err := validatePaths(opts, validation.NewFileValidator(logger)); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.RedString("invalid arguments:"), err)
		return 1
	}

	source := dataprocessing.NewWorkbookSource(opts.in, opts.dir, logger)
	records, err := source.Load(ctx)
	if err != nil {
		logger.Error("Failed to load workbook", slog.String("source", source.Name()), slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "%s %v\n", color.RedString("load failed:"), err)
		return 1
	}

	stats, err := dataprocessing.ComputeStatistics(records)
	if err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.RedString("compute failed:"), err)
		return 1
	}
	for _, d := range stats.Departments {
		if d.Unbucketed.Attempt1+d.Unbucketed.Attempt2 > 0 {
			logger.Warn("Scores outside every band",
				slog.String("department", d.Name),
				slog.Int("attempt1", d.Unbucketed.Attempt1),
				slog.Int("attempt2", d.Unbucketed.Attempt2))
		}
	}

	if opts.deptSet {
		group, ok := stats.Department(opts.dept)
		if !ok {
			fmt.Fprintf(stderr, "%s %q\n", color.RedString("unknown department:"), opts.dept)
			return 1
		}
		printDepartment(stdout, group)
	} else {
		printReport(stdout, stats)
	}

	if err := writeExports(opts, stats, logger); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.RedString("export failed:"), err)
		return 1
	}
	return 0
}

func validatePaths(opts options, v *validation.FileValidator) error {
	if opts.in != "" {
		if err := v.ValidateWorkbook(opts.in); err != nil {
			return err
		}
	} else if err := v.ValidateInputDirectory(opts.dir); err != nil {
		return err
	}

	outputs := []struct {
		path string
		exts []string
	}{
		{opts.jsonOut, []string{".json"}},
		{opts.csvOut, []string{".csv"}},
		{opts.xlsxOut, []string{".xlsx"}},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := v.ValidateOutputFile(o.path, o.exts...); err != nil {
			return err
		}
	}
	return nil
}

func printReport(w io.Writer, stats *domain.OverallStatistics) {
	fmt.Fprintln(w, color.CyanString("\n=== Assessment Report ==="))
	renderTable(w, exporter.SummaryHeaders, exporter.SummaryRows(stats))

	fmt.Fprintln(w, color.YellowString("\nDepartments"))
	renderTable(w, exporter.DepartmentHeaders, exporter.ReportRows(stats))

	fmt.Fprintln(w, color.YellowString("\nScore Ranges"))
	renderTable(w, exporter.RangeHeaders, exporter.RangeRows(stats.ScoreRanges, stats.Unbucketed))
}

func printDepartment(w io.Writer, group domain.GroupStatistics) {
	fmt.Fprintln(w, color.CyanString("\n=== %s ===", group.Name))
	one := &domain.OverallStatistics{Departments: []domain.GroupStatistics{group}}
	renderTable(w, exporter.DepartmentHeaders, exporter.ReportRows(one))

	fmt.Fprintln(w, color.YellowString("\nScore Ranges"))
	renderTable(w, exporter.RangeHeaders, exporter.RangeRows(group.ScoreRanges, group.Unbucketed))
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
}

func writeExports(opts options, stats *domain.OverallStatistics, logger *slog.Logger) error {
	if opts.jsonOut != "" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		if err := os.WriteFile(opts.jsonOut, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.jsonOut, err)
		}
	}
	if opts.csvOut != "" {
		if err := exporter.NewCSVWriter(nil, logger).WriteReport(opts.csvOut, stats); err != nil {
			return fmt.Errorf("write %s: %w", opts.csvOut, err)
		}
	}
	if opts.xlsxOut != "" {
		if err := exporter.SaveWorkbook(opts.xlsxOut, stats); err != nil {
			return fmt.Errorf("write %s: %w", opts.xlsxOut, err)
		}
	}
	return nil
}
