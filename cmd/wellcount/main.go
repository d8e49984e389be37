// Command wellcount analyses cytometry exports without the web server.
//
//	wellcount -thresholds 1,2 -decimals 1 [-xlsx out.xlsx] file.csv
//	wellcount -aggregate [-thresholds 1,2] [-xlsx out.xlsx] a.csv b.csv ...
//	wellcount -aggregate run1/
//
// The first form prints the total, filtered and percent matrices of one
// file as CSV; the second prints the mean and standard deviation of the
// percent matrices of every file. A directory argument stands for the CSV
// files directly inside it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cellviewer/internal/config"
	"cellviewer/internal/exporter"
	"cellviewer/internal/files"
	"cellviewer/internal/infrastructure"
	"cellviewer/internal/services"
	"cellviewer/internal/wellmatrix"
)

type options struct {
	thresholds []float64
	decimals   int
	xlsx       string
	aggregate  bool
	verbose    bool
	files      []string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "wellcount:", err)
		}
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("wellcount", flag.ContinueOnError)
	fs.SetOutput(stderr)
	thresholds := fs.String("thresholds", "", "comma separated lower bound per substance; blank entries are 0")
	decimals := fs.Int("decimals", config.DefaultPercentDecimals, "decimal places of percent values")
	xlsx := fs.String("xlsx", "", "also write an Excel workbook to this path")
	aggregate := fs.Bool("aggregate", false, "compare several files by mean and standard deviation")
	verbose := fs.Bool("v", false, "log to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o := &options{decimals: *decimals, xlsx: *xlsx, aggregate: *aggregate, verbose: *verbose, files: fs.Args()}
	if o.decimals < 0 {
		return nil, fmt.Errorf("-decimals must not be negative")
	}
	var err error
	if o.thresholds, err = parseThresholds(*thresholds); err != nil {
		return nil, err
	}
	if len(o.files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	return o, nil
}

// resolveFiles replaces directory arguments with the CSV exports inside them
// and checks the file count of the selected mode.
func resolveFiles(o *options, logger *slog.Logger) error {
	found, err := files.NewDiscovery("", logger).Expand(o.files)
	if err != nil {
		return err
	}
	o.files = files.Paths(found)
	switch {
	case o.aggregate && len(o.files) < 2:
		return fmt.Errorf("-aggregate needs at least 2 files, got %d", len(o.files))
	case !o.aggregate && len(o.files) != 1:
		return fmt.Errorf("expected one file, got %d", len(o.files))
	}
	return nil
}

func parseThresholds(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("threshold %d (%q) is not a number", i+1, p)
		}
		out[i] = v
	}
	return out, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	logCfg := config.LoggingConfig{Level: "warn", Format: "text"}
	if o.verbose {
		logCfg.Level = "debug"
	}
	logger := infrastructure.WithComponent(infrastructure.NewLoggerWithWriter(stderr, logCfg), "wellcount")
	if err := resolveFiles(o, logger); err != nil {
		return err
	}
	analysis := services.NewAnalysisService(config.AnalysisConfig{
		PercentDecimals: o.decimals,
		HistogramBins:   config.DefaultHistogramBins,
	}, nil, logger)

	ctx := infrastructure.EnsureTraceID(context.Background())
	if o.aggregate {
		return aggregate(ctx, analysis, o, stdout)
	}
	return single(ctx, analysis, o, stdout)
}

func analyzeFile(ctx context.Context, analysis *services.AnalysisService, path string, thresholds []float64) (*services.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := analysis.Analyze(ctx, data, thresholds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func single(ctx context.Context, analysis *services.AnalysisService, o *options, stdout io.Writer) error {
	path := o.files[0]
	a, err := analyzeFile(ctx, analysis, path, o.thresholds)
	if err != nil {
		return err
	}
	result := wellmatrix.Result{Total: a.Total, Filtered: a.Filtered, Percent: a.Percent}
	if err := exporter.WriteBlocksCSV(stdout, exporter.ResultBlocks(result)); err != nil {
		return err
	}
	if o.xlsx == "" {
		return nil
	}

	wb, err := exporter.IndividualWorkbook(exporter.IndividualReport{
		FileName:   filepath.Base(path),
		Substances: a.Substances,
		Thresholds: a.Thresholds,
		Result:     result,
	})
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.SaveAs(o.xlsx)
}

func aggregate(ctx context.Context, analysis *services.AnalysisService, o *options, stdout io.Writer) error {
	report := exporter.ComparisonReport{}
	percents := make([]wellmatrix.Matrix, 0, len(o.files))
	for _, path := range o.files {
		a, err := analyzeFile(ctx, analysis, path, o.thresholds)
		if err != nil {
			return err
		}
		if len(percents) > 0 && !percents[0].SameIndex(a.Percent) {
			return fmt.Errorf("%s is %s, %s is %s: %w",
				o.files[0], report.Experiments[0].Percent.Index(), path, a.Percent.Index(), wellmatrix.ErrShapeMismatch)
		}
		percents = append(percents, a.Percent)
		report.Experiments = append(report.Experiments, exporter.Experiment{
			FileName:   filepath.Base(path),
			Sites:      a.Sites,
			Substances: a.Substances,
			Thresholds: a.Thresholds,
			Percent:    a.Percent,
		})
	}

	mean, std, err := wellmatrix.MeanStdDev(percents)
	if err != nil {
		return err
	}
	report.Mean, report.StdDev = mean, std

	err = exporter.WriteBlocksCSV(stdout, []exporter.MatrixBlock{
		{Explanation: exporter.ExplainMean, Matrix: mean},
		{Explanation: exporter.ExplainStdDev, Matrix: std},
	})
	if err != nil || o.xlsx == "" {
		return err
	}

	wb, err := exporter.ComparisonWorkbook(report)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.SaveAs(o.xlsx)
}
