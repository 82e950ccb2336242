package ai

import (
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
)

// fallbackDimensions matches OpenAI's ada-002/3-small family, which is
// also the width of the stored embedding column, so fallback vectors
// stay comparable in scale to the vectors they might be mixed with.
const fallbackDimensions = 1536

// pseudoEmbed produces a deterministic pseudo-vector from text: an
// FNV-32a hash seeds a linear congruential generator that fills out
// the vector. It never errors and never calls out to a network, so
// it's always available as the gateway's last-resort embedding path
// (spec 4.3: "fallback never surfaces as an error").
func pseudoEmbed(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, fallbackDimensions)
	for i := range vec {
		seed = seed*1103515245 + 12345
		vec[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return vec
}

var (
	tokenPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentencePattern  = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// frequencySummarize ranks sentences by normalized stopword-filtered
// token frequency and returns the top-scoring ones in original order,
// trimmed to maxLength characters. Grounded on the same
// frequency-ranking approach as a text-summarization package in the
// example corpus.
func frequencySummarize(text string, maxLength int) string {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return truncate(strings.TrimSpace(text), maxLength)
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range tokenize(sent) {
			if stopwords[tok] {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := tokenize(sent)
		var s float64
		for _, tok := range toks {
			s += freq[tok]
		}
		if len(toks) > 0 {
			s /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = scored{i, s}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	var picked []int
	total := 0
	for _, s := range scores {
		sentLen := len(sentences[s.idx])
		if total+sentLen > maxLength && len(picked) > 0 {
			continue
		}
		picked = append(picked, s.idx)
		total += sentLen
		if total >= maxLength {
			break
		}
	}
	sort.Ints(picked)

	var out strings.Builder
	for _, idx := range picked {
		out.WriteString(strings.TrimSpace(sentences[idx]))
		out.WriteString(" ")
	}
	return truncate(strings.TrimSpace(out.String()), maxLength)
}

// frequencyKeywords returns up to max tokens ordered by descending
// document frequency, stopwords excluded.
func frequencyKeywords(text string, max int) []string {
	freq := map[string]int{}
	order := []string{}
	for _, tok := range tokenize(text) {
		if stopwords[tok] || len(tok) < 3 {
			continue
		}
		if _, seen := freq[tok]; !seen {
			order = append(order, tok)
		}
		freq[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if max > 0 && max < len(order) {
		order = order[:max]
	}
	return order
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}

var stopwords = buildStopwords()

func buildStopwords() map[string]bool {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of",
		"in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been",
		"being", "it", "this", "that", "these", "those", "from", "up", "down", "over",
		"under", "again", "further", "than", "so", "such", "into", "about", "between",
		"through", "during", "before", "after", "above", "below", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
