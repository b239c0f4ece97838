// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package extract turns input documents into plain text plus the offset
// marks that let the engine report page and line numbers. The engine
// itself never touches files; this is its only input adapter.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"autoredact/internal/entity"
)

// Document is extracted text with page/line offset marks.
type Document struct {
	Text  string
	Marks []entity.OffsetMark
}

// Locator builds the offset-to-page/line translator for this document.
func (d *Document) Locator() *entity.Locator {
	return entity.NewLocator(d.Marks)
}

// File reads path and extracts text by extension. Plain text and
// Markdown are read raw; PDFs go through the PDF text extractor.
func File(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdfFile(path)
	case ".txt", ".md", ".text", "":
		return textFile(path)
	default:
		return nil, fmt.Errorf("unsupported input type %q", filepath.Ext(path))
	}
}

// Text wraps an in-memory string as a single-page document.
func Text(text string) *Document {
	return &Document{Text: text, Marks: lineMarks(text, 1, 0)}
}

func textFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)
	return &Document{Text: text, Marks: lineMarks(text, 1, 0)}, nil
}

func pdfFile(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	var marks []entity.OffsetMark
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, path, err)
		}
		marks = append(marks, lineMarks(content, i, b.Len())...)
		b.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
	}
	return &Document{Text: b.String(), Marks: marks}, nil
}

// lineMarks produces one mark per line of content, with char indexes
// shifted by base.
func lineMarks(content string, page, base int) []entity.OffsetMark {
	if content == "" {
		return nil
	}
	marks := []entity.OffsetMark{{CharIndex: base, Page: page, Line: 1}}
	line := 1
	for i, r := range content {
		if r == '\n' && i+1 < len(content) {
			line++
			marks = append(marks, entity.OffsetMark{CharIndex: base + i + 1, Page: page, Line: line})
		}
	}
	return marks
}
