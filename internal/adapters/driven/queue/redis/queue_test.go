package redis

import (
	"errors"
	"testing"
)

func TestIsGroupExistsError(t *testing.T) {
	if isGroupExistsError(nil) {
		t.Fatal("nil error should not be a group-exists error")
	}
	if !isGroupExistsError(errors.New("BUSYGROUP Consumer Group name already exists")) {
		t.Fatal("expected BUSYGROUP error to be recognized")
	}
	if isGroupExistsError(errors.New("some other error")) {
		t.Fatal("unrelated error misclassified as group-exists")
	}
}

func TestIsStreamNotExistsError(t *testing.T) {
	if isStreamNotExistsError(nil) {
		t.Fatal("nil error should not be a stream-not-exists error")
	}
	if !isStreamNotExistsError(errors.New("ERR no such key")) {
		t.Fatal("expected 'ERR no such key' to be recognized")
	}
	if !isStreamNotExistsError(errors.New("ERR The XINFO subcommand requires the key to exist")) {
		t.Fatal("expected XINFO error to be recognized")
	}
	if isStreamNotExistsError(errors.New("some other error")) {
		t.Fatal("unrelated error misclassified as stream-not-exists")
	}
}
