// Package pipeline orchestrates the per-document analysis flow: text
// extraction, candidate sentence selection, sentence classification,
// claim normalization and date aggregation.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/team-sakkal/caoscan/internal/aggregate"
	"github.com/team-sakkal/caoscan/internal/cache"
	"github.com/team-sakkal/caoscan/internal/extract"
	"github.com/team-sakkal/caoscan/internal/llm"
	"github.com/team-sakkal/caoscan/internal/model"
	"github.com/team-sakkal/caoscan/internal/pdftext"
	"github.com/team-sakkal/caoscan/internal/validate"
	"github.com/team-sakkal/caoscan/internal/worker"
)

// Document is a single file queued for analysis. ID is the name the
// result is reported under and must be unique within one run.
type Document struct {
	ID   string
	Path string
}

// TextExtractor yields the text content of a document on disk.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (pdftext.Result, error)
}

// Pipeline runs the full analysis for a batch of documents.
type Pipeline struct {
	extractor  TextExtractor
	sentences  *extract.SentenceExtractor
	classifier llm.Classifier
	normalizer *validate.Normalizer
	aggregator *aggregate.Aggregator
	pacer      *worker.Pacer
	workers    int
	logger     zerolog.Logger
}

// New wires a pipeline from configuration. All documents in a run share
// one classifier and one pacer, so the endpoint request interval holds
// across parallel documents.
func New(cfg *model.Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor:  pdftext.NewExtractor(cfg.PDF, logger),
		sentences:  extract.NewSentenceExtractor(cfg.Extract.Keywords),
		classifier: llm.NewClient(cfg.LLM, cache.New(cfg.Cache), logger),
		normalizer: validate.NewNormalizer(logger),
		aggregator: aggregate.New(),
		pacer:      worker.NewPacer(cfg.LLM.RequestInterval),
		workers:    cfg.Concurrency.Documents,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// Analyze processes every document and returns a run holding one result
// per document, in input order. Individual document failures are
// recorded in their result and never abort the batch.
func (p *Pipeline) Analyze(ctx context.Context, docs []Document) *model.AnalysisRun {
	results := worker.Map(ctx, p.workers, docs, func(ctx context.Context, doc Document) model.DocumentResult {
		return p.analyzeDocument(ctx, doc)
	})

	run := model.NewAnalysisRun()
	for i, doc := range docs {
		run.Add(doc.ID, results[i])
	}
	return run
}

func (p *Pipeline) analyzeDocument(ctx context.Context, doc Document) model.DocumentResult {
	logger := p.logger.With().Str("document", doc.ID).Logger()

	extracted, err := p.extractor.Extract(ctx, doc.Path)
	if err != nil {
		logger.Error().Err(err).Msg("text extraction failed")
		return model.DocumentResult{Failure: model.FailureExtraction}
	}
	logger.Info().
		Str("method", extracted.Method).
		Int("pages", extracted.Pages).
		Int("chars", len(extracted.Text)).
		Msg("text extracted")

	candidates := p.sentences.Candidates(extracted.Text)
	if len(candidates) == 0 {
		logger.Info().Msg("no candidate sentences")
		return model.DocumentResult{Failure: model.FailureNoCandidates}
	}
	logger.Info().Int("candidates", len(candidates)).Msg("candidate sentences selected")

	var raw []model.RawClaim
	for i, sentence := range candidates {
		if err := p.pacer.Wait(ctx); err != nil {
			logger.Warn().Err(err).Int("remaining", len(candidates)-i).Msg("run cancelled, keeping claims collected so far")
			break
		}
		claims, err := p.classifier.Classify(ctx, sentence)
		if err != nil {
			// A sentence that cannot be classified contributes no
			// claims; the rest of the document still counts.
			logger.Warn().Err(err).Int("sentence", i+1).Msg("classification failed")
			continue
		}
		raw = append(raw, claims...)
	}

	normalized := p.normalizer.NormalizeAll(raw)
	groups := p.aggregator.Aggregate(normalized)
	if groups == nil {
		groups = []model.AggregatedGroup{}
	}
	logger.Info().
		Int("claims", len(normalized)).
		Int("dates", len(groups)).
		Msg("document analyzed")
	return model.DocumentResult{Groups: groups}
}
