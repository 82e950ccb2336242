package vespa

import (
	"math"
	"strings"
	"testing"

	"github.com/ragforge/ragcore/internal/core/domain"
)

func TestCombineWithFilter_SubstitutesTargetHits(t *testing.T) {
	got := combineWithFilter("({targetHits:%d}nearestNeighbor(embedding,query_embedding))", domain.Filters{}, 10)
	if !strings.Contains(got, "{targetHits:10}") {
		t.Fatalf("combineWithFilter did not substitute targetHits: %q", got)
	}
}

func TestCombineWithFilter_AppendsFilters(t *testing.T) {
	got := combineWithFilter("(content contains \"x\")", domain.Filters{DocumentID: "doc-1", EmbeddingModel: "openai/text-embedding-3-small"}, 0)
	if !strings.Contains(got, "document_id contains \"doc-1\"") {
		t.Fatalf("missing document_id filter: %q", got)
	}
	if !strings.Contains(got, "embedding_model contains \"openai/text-embedding-3-small\"") {
		t.Fatalf("missing embedding_model filter: %q", got)
	}
}

func TestCombineWithFilter_NoFiltersLeavesConditionUnchanged(t *testing.T) {
	condition := "(content contains \"x\")"
	got := combineWithFilter(condition, domain.Filters{}, 0)
	if got != condition {
		t.Fatalf("combineWithFilter = %q, want %q", got, condition)
	}
}

func TestCandidatesFromHits_SetsDistanceForVectorMode(t *testing.T) {
	resp := &vespaSearchResponse{}
	resp.Root.Children = []struct {
		Relevance float64     `json:"relevance"`
		Fields    vespaFields `json:"fields"`
	}{
		{Relevance: 0.9, Fields: vespaFields{ID: "e1", Content: "hello"}},
	}

	got := candidatesFromHits(resp, true)
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if math.Abs(got[0].Distance-0.1) > 1e-9 {
		t.Fatalf("Distance = %v, want 0.1", got[0].Distance)
	}
	if got[0].TextRank != 0 {
		t.Fatalf("TextRank = %v, want 0 for a vector-mode hit", got[0].TextRank)
	}
}

func TestCandidatesFromHits_SetsTextRankForLexicalMode(t *testing.T) {
	resp := &vespaSearchResponse{}
	resp.Root.Children = []struct {
		Relevance float64     `json:"relevance"`
		Fields    vespaFields `json:"fields"`
	}{
		{Relevance: 0.7, Fields: vespaFields{ID: "e1"}},
	}

	got := candidatesFromHits(resp, false)
	if got[0].TextRank != 0.7 {
		t.Fatalf("TextRank = %v, want 0.7", got[0].TextRank)
	}
	if got[0].Distance != 0 {
		t.Fatalf("Distance = %v, want 0 for a lexical-mode hit", got[0].Distance)
	}
}
