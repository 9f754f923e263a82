// Package pdftext turns CAO PDF files into plain text. Digital extraction
// via pdftotext is tried first; documents that yield too little text
// (scanned agreements, mostly) fall back to rasterization plus Tesseract
// OCR with the Dutch language pack.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/team-sakkal/caoscan/internal/model"
)

// ErrNoText signals that neither digital extraction nor OCR produced
// usable text for the document.
var ErrNoText = errors.New("no usable text extracted")

// Result is the outcome of one extraction.
type Result struct {
	Text   string
	Pages  int
	Method string // "pdf-text" | "pdf-ocr"
}

// Extractor is the text extraction collaborator.
type Extractor struct {
	cfg    model.PDFConfig
	runner Runner
	logger zerolog.Logger
}

// NewExtractor creates an extractor; zero-valued config fields get the
// usual defaults.
func NewExtractor(cfg model.PDFConfig, logger zerolog.Logger) *Extractor {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "nld"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 100
	}
	logger = logger.With().Str("component", "pdftext").Logger()
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract produces best-effort plain text for the PDF at path. It tries
// digital extraction first and falls back to OCR when the result stays
// under the minimum-acceptable-length threshold.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	text, pages, err := e.pdfToText(ctx, path)
	if err == nil && len(strings.TrimSpace(text)) >= e.cfg.MinTextLength {
		e.logger.Debug().Str("path", path).Int("pages", pages).Msg("digital extraction succeeded")
		return Result{Text: text, Pages: pages, Method: "pdf-text"}, nil
	}
	if err != nil {
		e.logger.Warn().Str("path", path).Err(err).Msg("digital extraction failed, trying OCR")
	} else {
		e.logger.Info().
			Str("path", path).
			Int("chars", len(strings.TrimSpace(text))).
			Int("min", e.cfg.MinTextLength).
			Msg("digital extraction too short, trying OCR")
	}

	text, pages, err = e.pdfToOCR(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("ocr extraction: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrNoText
	}
	e.logger.Debug().Str("path", path).Int("pages", pages).Msg("ocr extraction succeeded")
	return Result{Text: text, Pages: pages, Method: "pdf-ocr"}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, err
	}
	text := string(out)
	// pdftotext separates pages with form feeds
	return text, 1 + strings.Count(text, "\f"), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (string, int, error) {
	tmpDir, err := os.MkdirTemp("", "caoscan-pp-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn().Str("dir", tmpDir).Err(rmErr).Msg("failed to remove temp dir")
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	if _, _, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix); err != nil {
		return "", 0, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	for _, img := range matches {
		// tesseract <page.png> stdout -l nld
		txt, _, err := e.runner.Run(ctx, e.cfg.Tesseract, img, "stdout", "-l", e.cfg.Lang)
		if err != nil {
			e.logger.Warn().Str("page", img).Err(err).Msg("tesseract failed for page")
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.Write(txt)
	}
	return b.String(), len(matches), nil
}
