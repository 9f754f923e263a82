package extract

import (
	"reflect"
	"testing"
)

func TestCandidates_KeywordAndPercentageRequired(t *testing.T) {
	e := NewSentenceExtractor(nil)

	text := "Het loon stijgt met 2% op 01-01-2025. " +
		"De werkweek blijft 36 uur. " +
		"Ongeveer 15% van de werknemers werkt deeltijd. " +
		"De salarissen worden verhoogd."

	got := e.Candidates(text)
	want := []string{"Het loon stijgt met 2% op 01-01-2025."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}
}

func TestCandidates_MultipleSentencesKeepOrder(t *testing.T) {
	e := NewSentenceExtractor(nil)

	text := "De salarissen stijgen met 2% per 1 januari. " +
		"Tussendoor een irrelevante zin. " +
		"De toeslag wordt verhoogd naar 3,5 %."

	got := e.Candidates(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(got), got)
	}
	if got[0] != "De salarissen stijgen met 2% per 1 januari." {
		t.Errorf("unexpected first candidate: %q", got[0])
	}
	if got[1] != "De toeslag wordt verhoogd naar 3,5 %." {
		t.Errorf("unexpected second candidate: %q", got[1])
	}
}

func TestCandidates_WhitespaceNormalization(t *testing.T) {
	e := NewSentenceExtractor(nil)

	text := "Het   loon\nstijgt\t met\r\n2%   op 01-01-2025."
	got := e.Candidates(text)
	want := []string{"Het loon stijgt met 2% op 01-01-2025."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}
}

func TestCandidates_CaseInsensitiveKeywords(t *testing.T) {
	e := NewSentenceExtractor(nil)

	got := e.Candidates("De SALARISSEN stijgen met 4%.")
	if len(got) != 1 {
		t.Errorf("expected case-insensitive keyword match, got %v", got)
	}
}

func TestCandidates_EmptyInput(t *testing.T) {
	e := NewSentenceExtractor(nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		if got := e.Candidates(text); len(got) != 0 {
			t.Errorf("Candidates(%q) = %v, want empty", text, got)
		}
	}
}

func TestCandidates_Idempotent(t *testing.T) {
	e := NewSentenceExtractor(nil)

	text := "Het loon stijgt met 2% op 01-01-2025! Geldt de cao-verhoging van 1,5% ook voor jou? Ja."
	first := e.Candidates(text)
	second := e.Candidates(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not idempotent: %v vs %v", first, second)
	}
	if len(first) != 2 {
		t.Errorf("expected '!' and '?' boundaries to count, got %v", first)
	}
}

func TestCandidates_CustomKeywords(t *testing.T) {
	e := NewSentenceExtractor([]string{"pensioen"})

	got := e.Candidates("De pensioenpremie stijgt met 1%. Het loon stijgt met 2%.")
	if len(got) != 1 || got[0] != "De pensioenpremie stijgt met 1%." {
		t.Errorf("custom keyword set not honored: %v", got)
	}
}
