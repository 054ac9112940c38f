package summary

import (
	"strings"
	"testing"
)

func TestTruncateFileTextShortPassesThrough(t *testing.T) {
	text := "short notes"
	if got := TruncateFileText(text); got != text {
		t.Errorf("TruncateFileText = %q, want unchanged", got)
	}
}

func TestTruncateFileTextCapsLongInput(t *testing.T) {
	long := strings.Repeat("a", maxFileChars+500)

	got := TruncateFileText(long)

	if !strings.HasSuffix(got, "[truncated]") {
		t.Error("truncated text should be marked")
	}
	if len(got) > maxFileChars+len("\n[truncated]") {
		t.Errorf("truncated length = %d, over budget", len(got))
	}
}

func TestIsTextExtractable(t *testing.T) {
	cases := []struct {
		mime     string
		filename string
		want     bool
	}{
		{"text/plain", "notes.txt", true},
		{"text/markdown", "notes.md", true},
		{"application/json", "data.json", true},
		{"", "notes.md", true},
		{"", "NOTES.TXT", true},
		{"application/pdf", "slides.pdf", false},
		{"image/png", "diagram.png", false},
		{"application/octet-stream", "archive.zip", false},
	}

	for _, c := range cases {
		if got := IsTextExtractable(c.mime, c.filename); got != c.want {
			t.Errorf("IsTextExtractable(%q, %q) = %v, want %v", c.mime, c.filename, got, c.want)
		}
	}
}

func TestBuildPromptIncludesSessionDetails(t *testing.T) {
	prompt := buildPrompt("linear algebra", 2.5, "matrix notes")

	if !strings.Contains(prompt, "linear algebra") {
		t.Error("prompt missing topic")
	}
	if !strings.Contains(prompt, "2.5") {
		t.Error("prompt missing hours")
	}
	if !strings.Contains(prompt, "matrix notes") {
		t.Error("prompt missing file text")
	}
}

func TestBuildPromptWithoutFile(t *testing.T) {
	prompt := buildPrompt("calculus", 1, "")

	if strings.Contains(prompt, "attached file") {
		t.Error("prompt should omit the file section when there is no file")
	}
}
