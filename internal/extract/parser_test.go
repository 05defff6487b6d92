package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModule(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mod.py")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write module: %v", err)
	}
	return path
}

func TestParseFileFullModule(t *testing.T) {
	path := writeModule(t, `"""Position handling for time-lapse experiments.

Extra detail that is not part of the summary.
"""
from typing import Optional

SOME_CONSTANT = 42


class Position:
    """A detected cell position at a single time point."""

    def __init__(self, x, y, z):
        pass


def distance(a: Position, b: Position) -> float:
    """Euclidean distance between two positions."""
    return 0.0


async def load_async(path):
    '''Loads positions in the background.'''
    pass


def _internal_helper():
    """Not public."""
    pass
`)

	p, err := parseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !strings.HasPrefix(p.doc, "Position handling for time-lapse experiments.") {
		t.Errorf("unexpected module docstring: %q", p.doc)
	}
	if len(p.classes) != 1 || p.classes[0].Name != "Position" {
		t.Fatalf("expected class Position, got %+v", p.classes)
	}
	if p.classes[0].Doc != "A detected cell position at a single time point." {
		t.Errorf("unexpected class doc: %q", p.classes[0].Doc)
	}
	if len(p.functions) != 2 {
		t.Fatalf("expected 2 public functions, got %+v", p.functions)
	}
	if p.functions[0].Name != "distance" || p.functions[1].Name != "load_async" {
		t.Errorf("unexpected functions: %+v", p.functions)
	}
	if p.functions[0].Signature != "def distance(a: Position, b: Position) -> float" {
		t.Errorf("unexpected signature: %q", p.functions[0].Signature)
	}
}

func TestParseFileMultiLineSignature(t *testing.T) {
	path := writeModule(t, `def find_nearest(positions,
                 around,
                 max_amount: int = 1):
    """Finds the nearest positions around a point."""
    pass
`)

	p, err := parseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.functions) != 1 {
		t.Fatalf("expected 1 function, got %+v", p.functions)
	}
	want := "def find_nearest(positions, around, max_amount: int = 1)"
	if p.functions[0].Signature != want {
		t.Errorf("signature: want %q, got %q", want, p.functions[0].Signature)
	}
}

func TestParseFileOneLineDefinitions(t *testing.T) {
	path := writeModule(t, `def identity(x): return x


class Empty: pass


def follower():
    """Documented follower."""
    pass
`)

	p, err := parseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.classes) != 1 || p.classes[0].Name != "Empty" {
		t.Fatalf("expected class Empty, got %+v", p.classes)
	}
	if p.classes[0].Signature != "class Empty" {
		t.Errorf("unexpected class signature: %q", p.classes[0].Signature)
	}
	if len(p.functions) != 2 {
		t.Fatalf("expected 2 functions, got %+v", p.functions)
	}
	// The inline body must not bleed into the signature or swallow the next
	// definition's docstring.
	if p.functions[0].Name != "identity" || p.functions[0].Signature != "def identity(x)" || p.functions[0].Doc != "" {
		t.Errorf("unexpected first function: %+v", p.functions[0])
	}
	if p.functions[1].Name != "follower" || p.functions[1].Doc != "Documented follower." {
		t.Errorf("unexpected second function: %+v", p.functions[1])
	}
}

func TestParseFileNoDocstrings(t *testing.T) {
	path := writeModule(t, "import os\n\n\ndef run():\n    pass\n")
	p, err := parseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.doc != "" {
		t.Errorf("expected empty module doc, got %q", p.doc)
	}
	if len(p.functions) != 1 || p.functions[0].Doc != "" {
		t.Errorf("expected undocumented function, got %+v", p.functions)
	}
}

func TestParseFileUnterminatedDocstringFails(t *testing.T) {
	path := writeModule(t, `"""This docstring never ends
def run():
    pass
`)
	if _, err := parseFile(path); err == nil || !strings.Contains(err.Error(), "unterminated docstring") {
		t.Fatalf("expected unterminated docstring error, got %v", err)
	}
}

func TestParseFileUnterminatedSignatureFails(t *testing.T) {
	path := writeModule(t, "def broken(a,\n           b,\n")
	if _, err := parseFile(path); err == nil || !strings.Contains(err.Error(), "unterminated signature") {
		t.Fatalf("expected unterminated signature error, got %v", err)
	}
}

func TestParseFileRawDocstringPrefix(t *testing.T) {
	path := writeModule(t, `r"""Raw docstring with \escapes."""
`)
	p, err := parseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(p.doc, "Raw docstring") {
		t.Errorf("raw prefix docstring not detected: %q", p.doc)
	}
}
