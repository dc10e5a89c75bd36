package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSRT = "1\r\n00:00:00,000 --> 00:00:01,830\r\nI'm happy to\r\nhave you here today.\r\n\r\n2\r\n00:00:01,910 --> 00:00:03,610\r\nAs I'm sure you're all\r\n"

func TestReadLinesSRT(t *testing.T) {
	lines, err := ReadLines(strings.NewReader(sampleSRT), SRT)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	want := []string{"I'm happy to", "have you here today.", "As I'm sure you're all"}
	if len(lines) != len(want) {
		t.Fatalf("got %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormatOf(t *testing.T) {
	if FormatOf("lecture.SRT") != SRT || FormatOf("lecture.txt") != Plain {
		t.Fatalf("unexpected format detection")
	}
}

func TestLoadFilesMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.srt")
	if err := os.WriteFile(first, []byte("\ufeffAutomatisch gegenereerde transcriptie\nFirst part of the lecture\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte(sampleSRT), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewCleaner(Options{MinLength: 5}).LoadFiles(first, second)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	want := []string{"first part of the lecture", "i'm happy to", "have you here today.", "as i'm sure you're all"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := NewCleaner(Options{}).LoadFiles(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
