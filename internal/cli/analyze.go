package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/team-sakkal/caoscan/internal/export"
	"github.com/team-sakkal/caoscan/internal/model"
	"github.com/team-sakkal/caoscan/internal/pipeline"
)

var (
	outXLSX        string
	outJSON        string
	concurrency    int
	minTextLength  int
	analyzeTimeout time.Duration
	noCache        bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <pdf>...",
	Short: "Analyze CAO documents and write a summary spreadsheet",
	Long: `Analyze runs the full extraction over one or more CAO PDF files:
- Extract text (direct, with OCR fallback for scans)
- Select sentences that mention wages together with a percentage
- Classify each sentence into dated wage-increase claims
- Validate and merge claims per effective date
- Write the summary spreadsheet, optionally the raw results as JSON

Example:
  caoscan analyze cao-metaal.pdf
  caoscan analyze *.pdf --out overzicht.xlsx --json resultaten.json
  caoscan analyze cao.pdf --concurrency 4 --min-text-length 200`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outXLSX, "out", export.DownloadName, "output spreadsheet path")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")

	// Analysis flags
	analyzeCmd.Flags().IntVar(&concurrency, "concurrency", 0, "documents analyzed in parallel (default from config)")
	analyzeCmd.Flags().IntVar(&minTextLength, "min-text-length", 0, "minimum extracted characters before OCR fallback (default from config)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 30*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the classification cache")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Documents = concurrency
	}
	if minTextLength > 0 {
		cfg.PDF.MinTextLength = minTextLength
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured: set CAOSCAN_API_KEY or OPENROUTER_API_KEY")
	}

	docs, err := collectDocuments(args)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Documents: %d\n", len(docs))
		fmt.Fprintf(os.Stderr, "Workers:   %d\n", cfg.Concurrency.Documents)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	logger := newLogger()
	p := pipeline.New(cfg, logger)
	run := p.Analyze(ctx, docs)

	successCount, failureCount := 0, 0
	for _, id := range run.IDs() {
		res, _ := run.Get(id)
		if res.Failed() {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", id, res.Failure.Message())
			continue
		}
		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d datums)\n", id, len(res.Groups))
	}
	fmt.Fprintf(os.Stderr, "\nTotal: %d, success: %d, failures: %d\n", run.Len(), successCount, failureCount)

	if outJSON != "" {
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		if err := os.WriteFile(outJSON, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", outJSON, err)
		}
		fmt.Fprintf(os.Stderr, "✓ Results written to %s\n", outJSON)
	}

	if !run.HasIncreases() {
		return model.ErrNoIncreases
	}

	workbook, err := export.NewRenderer(logger).Render(run)
	if err != nil {
		return fmt.Errorf("render spreadsheet: %w", err)
	}
	if err := os.WriteFile(outXLSX, workbook, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outXLSX, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Spreadsheet written to %s\n", outXLSX)

	return nil
}

// collectDocuments maps file arguments to pipeline documents keyed by
// base name; a repeated base name gets a numeric suffix.
func collectDocuments(paths []string) ([]pipeline.Document, error) {
	seen := make(map[string]int)
	docs := make([]pipeline.Document, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		name := filepath.Base(path)
		n := seen[name]
		seen[name] = n + 1
		if n > 0 {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
		}
		docs = append(docs, pipeline.Document{ID: name, Path: path})
	}
	return docs, nil
}
