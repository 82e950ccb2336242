package domain

import "testing"

func TestDocumentStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from DocumentStatus
		to   DocumentStatus
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusProcessed, false},
		{StatusPending, StatusError, false},
		{StatusProcessing, StatusProcessed, true},
		{StatusProcessing, StatusError, true},
		{StatusProcessing, StatusPending, false},
		{StatusProcessed, StatusProcessing, false},
		{StatusError, StatusProcessing, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMetadataMergeOver(t *testing.T) {
	generated := Metadata{"summary": "generated summary", "classification": "technical"}
	caller := Metadata{"summary": "caller summary"}

	merged := caller.MergeOver(generated)

	if merged["summary"] != "caller summary" {
		t.Errorf("caller-set summary should win, got %v", merged["summary"])
	}
	if merged["classification"] != "technical" {
		t.Errorf("generated-only field should survive merge, got %v", merged["classification"])
	}
	// Original maps must be untouched.
	if generated["summary"] != "generated summary" {
		t.Errorf("MergeOver mutated generated map")
	}
}

func TestMetadataCloneIsIndependent(t *testing.T) {
	original := Metadata{"summary": "s"}
	clone := original.Clone()
	clone["summary"] = "changed"

	if original["summary"] != "s" {
		t.Errorf("Clone shared storage with the original map")
	}
}

func TestMetadataCloneNil(t *testing.T) {
	var m Metadata
	clone := m.Clone()
	if clone == nil {
		t.Fatalf("Clone of nil Metadata should return a usable empty map")
	}
	clone["k"] = "v"
}
