// CLAUDE:SUMMARY CLI subcommand that analyzes one report file and prints matches, per-dimension counts and recommendations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/hazyhaar/touchstone-factors/pkg/analysis"
	"github.com/hazyhaar/touchstone-factors/pkg/report"
)

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	taxonomyPath := fs.String("taxonomy", "", "taxonomy location (overrides config)")
	exportPath := fs.String("export", "", "write the grouped factors to this .xlsx file")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: factors analyze [-config c.yaml] [-taxonomy loc] [-export out.xlsx] [-json] <report.txt>")
		os.Exit(1)
	}

	cfg := mustLoadConfig(*cfgPath)
	if *taxonomyPath != "" {
		cfg.Taxonomy.Location = *taxonomyPath
		cfg.SourcesDB = ""
	}
	logger := newLogger(cfg.LogLevel)

	text, err := readReport(fs.Arg(0), logger)
	if err != nil {
		logger.Error("read report", "error", err)
		os.Exit(1)
	}

	sdb := openSources(cfg, logger)
	if sdb != nil {
		defer sdb.Close()
	}
	svc := newService(cfg, sdb, logger)
	ctx := context.Background()
	if err := svc.Load(ctx); err != nil {
		logger.Error("taxonomy load failed", "error", err)
		os.Exit(1)
	}

	res, err := svc.Analyze(ctx, text)
	if err != nil {
		logger.Error("analyze", "error", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
	} else {
		printResult(os.Stdout, res)
	}

	if *exportPath != "" {
		if err := writeExport(*exportPath, res); err != nil {
			logger.Error("export", "path", *exportPath, "error", err)
			os.Exit(1)
		}
		logger.Info("export written", "path", *exportPath, "rows", len(res.Export))
	}
}

// readReport extracts text from a report file. Only plain text is
// supported; other formats yield empty text and a warning.
func readReport(path string, logger *slog.Logger) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		logger.Warn("unsupported report format, analyzing empty text", "path", path)
		return "", nil
	}
}

func printResult(w io.Writer, res *analysis.Result) {
	fmt.Fprintf(w, "Language: %s\n", res.Language)
	if res.NoTermsMatched {
		fmt.Fprintln(w, "No taxonomy terms matched.")
		return
	}
	exact, fuzzy := res.Matches.Counts()
	fmt.Fprintf(w, "Matches: %d (%d exact, %d fuzzy)\n\n", len(res.Matches), exact, fuzzy)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tFACTOR\tTERM\tSCORE")
	for _, m := range res.Matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\n", m.Dimension, m.Factor, m.MatchedTerm, m.Score)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nBy dimension:")
	for _, d := range res.ByDimension {
		fmt.Fprintf(w, "  %-30s %d\n", d.Dimension, d.Count)
	}

	fmt.Fprintln(w, "\nRecommendations:")
	for _, r := range res.Recommendations {
		fmt.Fprintf(w, "  [%s / %s] (%d)\n", r.Dimension, r.Factor, r.Count)
		for _, rec := range []string{r.Recommendation1, r.Recommendation2} {
			if rec != "" {
				fmt.Fprintf(w, "    - %s\n", rec)
			}
		}
	}
}

func writeExport(path string, res *analysis.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(f, res.Export); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
