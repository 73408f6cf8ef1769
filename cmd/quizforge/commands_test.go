package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateCommand_MissingFile(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"generate"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing --file")
	}
	if !strings.Contains(err.Error(), "--file") {
		t.Errorf("error = %q, want it to mention --file", err.Error())
	}
}

func TestLoadFragmentText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("alpha beta gamma delta"), 0o644); err != nil {
		t.Fatal(err)
	}

	frag, err := loadFragment(path, 1<<20)
	if err != nil {
		t.Fatalf("loadFragment: %v", err)
	}
	if frag.Name != "notes.txt" {
		t.Errorf("name = %q", frag.Name)
	}
	if frag.WordCount != 4 {
		t.Errorf("word count = %d, want 4", frag.WordCount)
	}
}

func TestLoadFragmentUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadFragment(path, 1<<20); err == nil {
		t.Error("expected error for unsupported file type")
	}
}

func TestLoadFragmentTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("word ", 100)), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadFragment(path, 10); err == nil {
		t.Error("expected error for oversized file")
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorGreen, "ok"); got != "ok" {
		t.Errorf("colorize with noColor=true = %q", got)
	}

	noColor = false
	if got := colorize(colorGreen, "ok"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false = %q, want ANSI codes", got)
	}
}
