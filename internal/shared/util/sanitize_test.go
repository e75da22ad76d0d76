package util

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" notes/week1.md ")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if got != "notes_week1.md" {
		t.Fatalf("expected notes_week1.md, got %q", got)
	}
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
}

func TestSanitizeErrorFlattensAndTruncates(t *testing.T) {
	err := errors.New("line one\nline two\r\n" + strings.Repeat("x", 600))
	got := SanitizeError(err, 500)
	if strings.ContainsAny(got, "\r\n") {
		t.Fatalf("expected newlines removed, got %q", got[:40])
	}
	if len(got) != 500 {
		t.Fatalf("expected 500 bytes, got %d", len(got))
	}
	if SanitizeError(nil, 500) != "" {
		t.Fatalf("expected empty string for nil error")
	}
}
