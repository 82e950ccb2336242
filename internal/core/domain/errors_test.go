package domain

import (
	"errors"
	"testing"
)

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(KindStorage, "postgres.Save", "failed to save document", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the wrapped cause")
	}
	if got := err.Error(); got == "" {
		t.Errorf("expected non-empty error message")
	}
}

func TestIsKind(t *testing.T) {
	err := NewError(KindParse, "parser.Parse", "malformed pdf", nil)

	if !IsKind(err, KindParse) {
		t.Errorf("expected IsKind(err, KindParse) to be true")
	}
	if IsKind(err, KindStorage) {
		t.Errorf("expected IsKind(err, KindStorage) to be false")
	}
	if IsKind(errors.New("plain error"), KindParse) {
		t.Errorf("plain errors should never match a Kind")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindParse, "ParseError"},
		{KindEmbedding, "EmbeddingError"},
		{KindGeneration, "GenerationError"},
		{KindStorage, "StorageError"},
		{KindConfiguration, "ConfigurationError"},
		{KindSearch, "SearchError"},
		{KindDocument, "DocumentError"},
		{KindUnknown, "Error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
