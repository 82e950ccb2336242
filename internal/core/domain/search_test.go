package domain

import (
	"math"
	"testing"
	"time"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"nil a", nil, []float32{1, 2}, 0},
		{"mismatched length", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"zero magnitude", []float32{0, 0}, []float32{1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.5, 1.5, -2.0, 3.0}
	if got := CosineSimilarity(v, v); math.Abs(got-1) > 1e-9 {
		t.Errorf("cosine_similarity(v, v) = %v, want 1", got)
	}
	neg := make([]float32, len(v))
	for i, x := range v {
		neg[i] = -x
	}
	if got := CosineSimilarity(v, neg); math.Abs(got+1) > 1e-9 {
		t.Errorf("cosine_similarity(v, -v) = %v, want -1", got)
	}
	zero := make([]float32, len(v))
	if got := CosineSimilarity(v, zero); got != 0 {
		t.Errorf("cosine_similarity(v, 0) = %v, want 0", got)
	}
}

func TestUsageScoreZeroWhenUnused(t *testing.T) {
	now := time.Now()
	if got := UsageScore(0, nil, now); got != 0 {
		t.Errorf("usage_count=0 should score 0, got %v", got)
	}
	if got := UsageScore(5, nil, now); got != 0 {
		t.Errorf("nil returned_at should score 0, got %v", got)
	}
}

func TestUsageScoreRanksFrequentRecentHigher(t *testing.T) {
	now := time.Now()
	recentlyUsed := UsageScore(50, &now, now)
	stale := time.Now().AddDate(0, -6, 0)
	oldUsage := UsageScore(50, &stale, now)

	if recentlyUsed <= oldUsage {
		t.Errorf("recently used embedding should score higher: recent=%v old=%v", recentlyUsed, oldUsage)
	}
	if recentlyUsed <= 0 || recentlyUsed > 1 {
		t.Errorf("usage score should be in (0, 1], got %v", recentlyUsed)
	}
}

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()
	if opts.SimilarityThreshold != 0.7 {
		t.Errorf("expected default similarity_threshold 0.7, got %v", opts.SimilarityThreshold)
	}
	if opts.SemanticWeight != 0.7 || opts.TextWeight != 0.3 {
		t.Errorf("expected default weights 0.7/0.3, got %v/%v", opts.SemanticWeight, opts.TextWeight)
	}
}
