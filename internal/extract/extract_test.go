// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	content := "first line\nsecond line\nthird"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if doc.Text != content {
		t.Errorf("text = %q", doc.Text)
	}
	if len(doc.Marks) != 3 {
		t.Fatalf("got %d marks, want 3", len(doc.Marks))
	}

	loc := doc.Locator()
	page, line := loc.Locate(0)
	if *page != 1 || *line != 1 {
		t.Errorf("offset 0 at page %d line %d", *page, *line)
	}
	// "second line" starts at offset 11.
	_, line = loc.Locate(11)
	if *line != 2 {
		t.Errorf("offset 11 at line %d, want 2", *line)
	}
	_, line = loc.Locate(len(content) - 1)
	if *line != 3 {
		t.Errorf("last offset at line %d, want 3", *line)
	}
}

func TestText_InMemory(t *testing.T) {
	doc := Text("a\nb")
	if len(doc.Marks) != 2 {
		t.Fatalf("got %d marks", len(doc.Marks))
	}
	page, line := doc.Locator().Locate(2)
	if *page != 1 || *line != 2 {
		t.Errorf("got page %d line %d", *page, *line)
	}
}

func TestText_Empty(t *testing.T) {
	doc := Text("")
	if doc.Text != "" || len(doc.Marks) != 0 {
		t.Errorf("empty doc: %+v", doc)
	}
	if page, line := doc.Locator().Locate(0); page != nil || line != nil {
		t.Error("empty doc should locate to nils")
	}
}

func TestFile_UnsupportedExtension(t *testing.T) {
	if _, err := File("image.png"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestFile_Missing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLineMarks_TrailingNewline(t *testing.T) {
	// A trailing newline does not open a phantom line.
	marks := lineMarks("one\ntwo\n", 3, 100)
	if len(marks) != 2 {
		t.Fatalf("got %d marks: %+v", len(marks), marks)
	}
	if marks[0].CharIndex != 100 || marks[0].Page != 3 || marks[0].Line != 1 {
		t.Errorf("first mark %+v", marks[0])
	}
	if marks[1].CharIndex != 104 || marks[1].Line != 2 {
		t.Errorf("second mark %+v", marks[1])
	}
}
