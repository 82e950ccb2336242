package postgres

import (
	"strings"
	"testing"

	"github.com/ragforge/ragcore/internal/core/domain"
)

func TestFilterClause_NoFilters(t *testing.T) {
	clause, args := filterClause(domain.Filters{}, 3)
	if clause != "" {
		t.Fatalf("clause = %q, want empty", clause)
	}
	if args != nil {
		t.Fatalf("args = %v, want nil", args)
	}
}

func TestFilterClause_CombinesAndNumbersArgsFromStart(t *testing.T) {
	filters := domain.Filters{
		DocumentType:   domain.DocumentTypePDF,
		EmbeddingModel: "openai/text-embedding-3-small",
		Tags:           []string{"eng", "draft"},
	}
	clause, args := filterClause(filters, 3)

	if !strings.Contains(clause, "$3") || !strings.Contains(clause, "$4") || !strings.Contains(clause, "$5") {
		t.Fatalf("clause does not number placeholders from startArg: %q", clause)
	}
	if len(args) != 3 {
		t.Fatalf("len(args) = %d, want 3", len(args))
	}
}

func TestToTSQuery_ORsWords(t *testing.T) {
	got := toTSQuery("hello world")
	if got != "hello | world" {
		t.Fatalf("toTSQuery = %q, want %q", got, "hello | world")
	}
}

func TestToTSQuery_StripsTSOperators(t *testing.T) {
	got := toTSQuery("a&b|c!d:e'f")
	if strings.ContainsAny(got, "&|!:'") {
		t.Fatalf("toTSQuery left unsafe tsquery operators in %q", got)
	}
}
