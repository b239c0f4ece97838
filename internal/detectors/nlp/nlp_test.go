// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package nlp

import (
	"math"
	"testing"

	"autoredact/internal/entity"
	"autoredact/internal/models"
)

func TestDecodeBIO_SingleEntity(t *testing.T) {
	text := "meet John Smith today"
	preds := []models.TokenPrediction{
		{Start: 0, End: 4, Label: "O", Score: 0.99},
		{Start: 5, End: 9, Label: "B-PER", Score: 0.98},
		{Start: 10, End: 15, Label: "I-PER", Score: 0.96},
		{Start: 16, End: 21, Label: "O", Score: 0.99},
	}

	cands := decodeBIO(text, preds)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates", len(cands))
	}
	c := cands[0]
	if c.Type != entity.TypePerson {
		t.Errorf("type = %s", c.Type)
	}
	if c.Text != "John Smith" {
		t.Errorf("text = %q", c.Text)
	}
	if c.StartChar != 5 || c.EndChar != 15 {
		t.Errorf("span [%d,%d)", c.StartChar, c.EndChar)
	}
	if math.Abs(c.Confidence-0.97) > 1e-9 {
		t.Errorf("confidence %g, want mean 0.97", c.Confidence)
	}
	if c.Source != entity.SourceNLP {
		t.Errorf("source = %s", c.Source)
	}
}

func TestDecodeBIO_AdjacentEntities(t *testing.T) {
	text := "Anna Bob"
	preds := []models.TokenPrediction{
		{Start: 0, End: 4, Label: "B-PER", Score: 0.9},
		{Start: 5, End: 8, Label: "B-PER", Score: 0.9},
	}
	cands := decodeBIO(text, preds)
	if len(cands) != 2 {
		t.Fatalf("B tag should start a new span: got %d", len(cands))
	}
	if cands[0].Text != "Anna" || cands[1].Text != "Bob" {
		t.Errorf("texts %q, %q", cands[0].Text, cands[1].Text)
	}
}

func TestDecodeBIO_UnknownLabelDropped(t *testing.T) {
	preds := []models.TokenPrediction{
		{Start: 0, End: 5, Label: "B-ORG", Score: 0.99},
		{Start: 6, End: 10, Label: "I-ORG", Score: 0.99},
	}
	if cands := decodeBIO("Acme Corp", preds); len(cands) != 0 {
		t.Errorf("ORG spans should be dropped, got %+v", cands)
	}
}

func TestDecodeBIO_LowScoreDropped(t *testing.T) {
	preds := []models.TokenPrediction{
		{Start: 0, End: 4, Label: "B-PER", Score: 0.3},
	}
	if cands := decodeBIO("John", preds); len(cands) != 0 {
		t.Errorf("low-score span kept: %+v", cands)
	}
}

func TestDecodeBIO_OrphanContinuation(t *testing.T) {
	// An I- tag without a preceding B- still opens a span.
	preds := []models.TokenPrediction{
		{Start: 0, End: 4, Label: "I-PER", Score: 0.9},
	}
	cands := decodeBIO("John", preds)
	if len(cands) != 1 || cands[0].Text != "John" {
		t.Errorf("orphan continuation: %+v", cands)
	}
}

func TestSplitBIO(t *testing.T) {
	cases := []struct {
		label string
		tag   string
		name  string
		ok    bool
	}{
		{"B-PER", "B", "PER", true},
		{"I-LOC", "I", "LOC", true},
		{"O", "", "", false},
		{"PER", "", "", false},
	}
	for _, tc := range cases {
		tag, name, ok := splitBIO(tc.label)
		if tag != tc.tag || name != tc.name || ok != tc.ok {
			t.Errorf("splitBIO(%q) = %q,%q,%v", tc.label, tag, name, ok)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	text := "First one. Second one!\nThird"
	sents := splitSentences(text)
	if len(sents) != 3 {
		t.Fatalf("got %d sentences: %+v", len(sents), sents)
	}
	if sents[0].text != "First one." || sents[0].start != 0 {
		t.Errorf("first = %+v", sents[0])
	}
	if sents[1].text != "Second one!" || sents[1].start != 11 {
		t.Errorf("second = %+v", sents[1])
	}
	if sents[2].text != "Third" || sents[2].start != 23 {
		t.Errorf("third = %+v", sents[2])
	}
	// Offsets must index back into the original text.
	for _, s := range sents {
		if text[s.start:s.start+len(s.text)] != s.text {
			t.Errorf("offset mismatch for %+v", s)
		}
	}
}

func TestCosine(t *testing.T) {
	if got := cosine([]float64{1, 0}, []float64{1, 0}); math.Abs(got-1) > 1e-12 {
		t.Errorf("identical vectors: %g", got)
	}
	if got := cosine([]float64{1, 0}, []float64{0, 1}); math.Abs(got) > 1e-12 {
		t.Errorf("orthogonal vectors: %g", got)
	}
	if got := cosine([]float64{1, 0}, []float64{0, 0}); got != 0 {
		t.Errorf("zero vector: %g", got)
	}
	if got := cosine([]float64{1}, []float64{1, 2}); got != 0 {
		t.Errorf("length mismatch: %g", got)
	}
}

func TestMergeLocal(t *testing.T) {
	a := entity.Candidate{Type: entity.TypeEmail, StartChar: 0, EndChar: 10, Confidence: 0.8}
	b := entity.Candidate{Type: entity.TypeEmail, StartChar: 5, EndChar: 15, Confidence: 0.9}
	c := entity.Candidate{Type: entity.TypePhone, StartChar: 0, EndChar: 10, Confidence: 0.7}

	out := mergeLocal([]entity.Candidate{a, b, c})
	if len(out) != 2 {
		t.Fatalf("got %d candidates: %+v", len(out), out)
	}
	var email *entity.Candidate
	for i := range out {
		if out[i].Type == entity.TypeEmail {
			email = &out[i]
		}
	}
	if email == nil || email.Confidence != 0.9 {
		t.Errorf("higher-confidence overlap should win: %+v", out)
	}
}

func TestExemplarsOnlyCoverPatternedTypes(t *testing.T) {
	// Similarity hits anchor on the pattern table; exemplar types
	// without a pattern would never produce a span.
	for typ := range exemplars {
		if typ == entity.TypePerson || typ == entity.TypeBankAccount {
			t.Errorf("%s has no anchoring pattern", typ)
		}
	}
}

func TestNERLabelTableClosed(t *testing.T) {
	if len(nerLabelTable) != 1 || nerLabelTable["PER"] != entity.TypePerson {
		t.Errorf("label table = %v", nerLabelTable)
	}
}
