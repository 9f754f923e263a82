package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/team-sakkal/caoscan/internal/aggregate"
	"github.com/team-sakkal/caoscan/internal/extract"
	"github.com/team-sakkal/caoscan/internal/model"
	"github.com/team-sakkal/caoscan/internal/pdftext"
	"github.com/team-sakkal/caoscan/internal/validate"
	"github.com/team-sakkal/caoscan/internal/worker"
)

type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (pdftext.Result, error) {
	if err := f.errs[path]; err != nil {
		return pdftext.Result{}, err
	}
	return pdftext.Result{Text: f.texts[path], Pages: 1, Method: "pdf-text"}, nil
}

type fakeClassifier struct {
	mu     sync.Mutex
	calls  []string
	claims map[string][]model.RawClaim
	errs   map[string]error
}

func (f *fakeClassifier) Classify(_ context.Context, sentence string) ([]model.RawClaim, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sentence)
	f.mu.Unlock()
	if err := f.errs[sentence]; err != nil {
		return nil, err
	}
	return f.claims[sentence], nil
}

func strp(s string) *string { return &s }

func newTestPipeline(ex TextExtractor, cl *fakeClassifier, workers int) *Pipeline {
	return &Pipeline{
		extractor:  ex,
		sentences:  extract.NewSentenceExtractor(nil),
		classifier: cl,
		normalizer: validate.NewNormalizer(zerolog.Nop()),
		aggregator: aggregate.New(),
		pacer:      worker.NewPacer(0),
		workers:    workers,
		logger:     zerolog.Nop(),
	}
}

func TestAnalyze_SingleDocument(t *testing.T) {
	text := "Inleiding zonder cijfers. Het loon stijgt met 2% op 1 januari 2025. " +
		"Daarna volgt een verhoging van 3% per dezelfde datum."
	cl := &fakeClassifier{claims: map[string][]model.RawClaim{
		"Het loon stijgt met 2% op 1 januari 2025.": {
			{Datum: strp("01/01/2025"), Percentage: 2.0, Categorie: "standaard"},
		},
		"Daarna volgt een verhoging van 3% per dezelfde datum.": {
			{Datum: strp("01/01/2025"), Percentage: "3,0", Categorie: "standaard"},
		},
	}}
	p := newTestPipeline(&fakeExtractor{texts: map[string]string{"a.pdf": text}}, cl, 1)

	run := p.Analyze(context.Background(), []Document{{ID: "a.pdf", Path: "a.pdf"}})

	res, ok := run.Get("a.pdf")
	if !ok || res.Failed() {
		t.Fatalf("expected success, got %+v", res)
	}
	if len(res.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(res.Groups))
	}
	g := res.Groups[0]
	if g.Date != "01/01/2025" || g.DisplayString != "2,00%/3,00%" {
		t.Errorf("group = %q %q, want 01/01/2025 2,00%%/3,00%%", g.Date, g.DisplayString)
	}
	if len(cl.calls) != 2 {
		t.Errorf("classifier calls = %d, want 2", len(cl.calls))
	}
}

func TestAnalyze_ExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{errs: map[string]error{"bad.pdf": errors.New("boom")}}
	p := newTestPipeline(ex, &fakeClassifier{}, 1)

	run := p.Analyze(context.Background(), []Document{{ID: "bad.pdf", Path: "bad.pdf"}})

	res, _ := run.Get("bad.pdf")
	if res.Failure != model.FailureExtraction {
		t.Fatalf("failure = %q, want %q", res.Failure, model.FailureExtraction)
	}
	if run.HasIncreases() {
		t.Error("run should report no increases")
	}
}

func TestAnalyze_NoCandidateSentences(t *testing.T) {
	ex := &fakeExtractor{texts: map[string]string{"x.pdf": "Dit document bevat geen relevante inhoud."}}
	cl := &fakeClassifier{}
	p := newTestPipeline(ex, cl, 1)

	run := p.Analyze(context.Background(), []Document{{ID: "x.pdf", Path: "x.pdf"}})

	res, _ := run.Get("x.pdf")
	if res.Failure != model.FailureNoCandidates {
		t.Fatalf("failure = %q, want %q", res.Failure, model.FailureNoCandidates)
	}
	if len(cl.calls) != 0 {
		t.Errorf("classifier called %d times for a document without candidates", len(cl.calls))
	}
}

func TestAnalyze_ClassifierErrorSkipsSentence(t *testing.T) {
	text := "Het salaris stijgt met 1,5% in 2024. De toeslag wordt 2% per 01-07-2025."
	first := "Het salaris stijgt met 1,5% in 2024."
	second := "De toeslag wordt 2% per 01-07-2025."
	cl := &fakeClassifier{
		errs: map[string]error{first: errors.New("endpoint unavailable")},
		claims: map[string][]model.RawClaim{
			second: {{Datum: strp("01/07/2025"), Percentage: 2.0, Categorie: "standaard"}},
		},
	}
	p := newTestPipeline(&fakeExtractor{texts: map[string]string{"d.pdf": text}}, cl, 1)

	run := p.Analyze(context.Background(), []Document{{ID: "d.pdf", Path: "d.pdf"}})

	res, _ := run.Get("d.pdf")
	if res.Failed() {
		t.Fatalf("a single failing sentence must not fail the document: %+v", res)
	}
	if len(res.Groups) != 1 || res.Groups[0].Date != "01/07/2025" {
		t.Fatalf("groups = %+v, want one group for 01/07/2025", res.Groups)
	}
}

func TestAnalyze_EmptyClaimsIsSuccess(t *testing.T) {
	text := "Het voorbeeld noemt een loonsverhoging van 2% ter illustratie."
	cl := &fakeClassifier{} // returns no claims for every sentence
	p := newTestPipeline(&fakeExtractor{texts: map[string]string{"e.pdf": text}}, cl, 1)

	run := p.Analyze(context.Background(), []Document{{ID: "e.pdf", Path: "e.pdf"}})

	res, _ := run.Get("e.pdf")
	if res.Failed() {
		t.Fatalf("empty claim list is a valid success, got %+v", res)
	}
	if res.Groups == nil || len(res.Groups) != 0 {
		t.Errorf("groups = %#v, want empty non-nil slice", res.Groups)
	}
	if res.HasIncreases() {
		t.Error("document without claims must not report increases")
	}
}

func TestAnalyze_PreservesInputOrder(t *testing.T) {
	texts := map[string]string{
		"one.pdf":   "Het loon stijgt met 1% per 01-01-2025.",
		"two.pdf":   "Het loon stijgt met 2% per 01-01-2025.",
		"three.pdf": "Het loon stijgt met 3% per 01-01-2025.",
	}
	cl := &fakeClassifier{claims: map[string][]model.RawClaim{}}
	for _, s := range texts {
		cl.claims[s] = []model.RawClaim{{Datum: strp("01/01/2025"), Percentage: 1.0, Categorie: "standaard"}}
	}
	p := newTestPipeline(&fakeExtractor{texts: texts}, cl, 2)

	docs := []Document{
		{ID: "one.pdf", Path: "one.pdf"},
		{ID: "two.pdf", Path: "two.pdf"},
		{ID: "three.pdf", Path: "three.pdf"},
	}
	run := p.Analyze(context.Background(), docs)

	ids := run.IDs()
	want := []string{"one.pdf", "two.pdf", "three.pdf"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if !run.HasIncreases() {
		t.Error("run with increases should report them")
	}
}

func TestAnalyze_CancelledContextKeepsPartialClaims(t *testing.T) {
	text := "Het loon stijgt met 2% per 01-01-2025. De toeslag wordt 3% per 01-01-2026."
	cl := &fakeClassifier{}
	p := newTestPipeline(&fakeExtractor{texts: map[string]string{"c.pdf": text}}, cl, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := p.Analyze(ctx, []Document{{ID: "c.pdf", Path: "c.pdf"}})

	// Extraction and candidate selection ran, but pacing refuses every
	// sentence under a cancelled context.
	res, ok := run.Get("c.pdf")
	if !ok {
		t.Fatal("cancelled run must still record a result per document")
	}
	if res.Failed() {
		t.Fatalf("cancellation is not a document failure: %+v", res)
	}
	if len(cl.calls) != 0 {
		t.Errorf("classifier calls = %d, want 0 after cancellation", len(cl.calls))
	}
}
