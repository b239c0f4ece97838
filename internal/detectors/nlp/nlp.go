// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package nlp implements the NLP detection method: transformer NER for
// person names plus embedding similarity against exemplar phrases to
// flag sentences that talk about sensitive values.
package nlp

import (
	"context"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"

	"autoredact/internal/detectors/pattern"
	"autoredact/internal/entity"
	"autoredact/internal/models"
)

// nerLabelTable translates NER model labels to entity types. The table
// is closed: anything it does not name is dropped, never guessed.
var nerLabelTable = map[string]entity.Type{
	"PER": entity.TypePerson,
}

// exemplars are reference phrases per type. A sentence embedding close
// to an exemplar marks the sentence as likely to contain that type.
var exemplars = map[entity.Type][]string{
	entity.TypeEmail:        {"you can reach me by email", "send the message to my email address"},
	entity.TypePhone:        {"call me on my phone number", "my direct telephone line is"},
	entity.TypeSSN:          {"my social security number is", "the ssn on the form reads"},
	entity.TypeCreditCard:   {"charge it to my credit card number", "the card on file ends in"},
	entity.TypeAPIKey:       {"use this api key for authentication", "the service access key is"},
	entity.TypePassword:     {"the account password is", "log in with this password"},
	entity.TypeInsuranceID:  {"my insurance member id is", "the patient id on the claim"},
	entity.TypePolicyNumber: {"the policy number on the contract", "refer to policy number"},
}

const (
	defaultSimilarityThreshold = 0.75
	minTokenScore              = 0.5
)

// Detector runs NER and similarity over the shared model runtime. Both
// models load lazily on first detection.
type Detector struct {
	runtime             *models.Runtime
	similarityThreshold float64

	exemplarOnce sync.Once
	exemplarVecs []exemplarVec
	exemplarErr  error
}

type exemplarVec struct {
	typ entity.Type
	vec []float64
}

// New builds the NLP detector over a shared model runtime.
func New(runtime *models.Runtime, similarityThreshold float64) *Detector {
	if similarityThreshold <= 0 || similarityThreshold >= 1 {
		similarityThreshold = defaultSimilarityThreshold
	}
	return &Detector{runtime: runtime, similarityThreshold: similarityThreshold}
}

// Method implements detectors.Detector.
func (d *Detector) Method() entity.SourceMethod {
	return entity.SourceNLP
}

// Detect combines NER person spans with similarity-flagged value spans,
// keeping the higher-confidence candidate where the two overlap.
func (d *Detector) Detect(ctx context.Context, text string) ([]entity.Candidate, error) {
	persons, err := d.detectNER(ctx, text)
	if err != nil {
		return nil, err
	}
	values, err := d.detectSimilarity(ctx, text)
	if err != nil {
		return nil, err
	}
	return mergeLocal(append(persons, values...)), nil
}

func (d *Detector) detectNER(ctx context.Context, text string) ([]entity.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ner, err := d.runtime.NER()
	if err != nil {
		return nil, err
	}
	preds, err := ner.Predict(text)
	if err != nil {
		return nil, err
	}
	return decodeBIO(text, preds), nil
}

// decodeBIO stitches B-/I- token runs into entity spans. The span
// confidence is the mean token score.
func decodeBIO(text string, preds []models.TokenPrediction) []entity.Candidate {
	var out []entity.Candidate
	var cur *entity.Candidate
	var scoreSum float64
	var scoreCount int

	flush := func() {
		if cur == nil {
			return
		}
		cur.Confidence = scoreSum / float64(scoreCount)
		cur.Text = text[cur.StartChar:cur.EndChar]
		if cur.Confidence >= minTokenScore {
			out = append(out, *cur)
		}
		cur = nil
	}

	for _, p := range preds {
		tag, label, ok := splitBIO(p.Label)
		typ, known := nerLabelTable[label]
		if !ok || !known {
			flush()
			continue
		}
		switch {
		case tag == "B" || cur == nil || cur.Type != typ:
			flush()
			cur = &entity.Candidate{
				Type:      typ,
				StartChar: p.Start,
				EndChar:   p.End,
				Source:    entity.SourceNLP,
			}
			scoreSum, scoreCount = p.Score, 1
		default: // continuation
			cur.EndChar = p.End
			scoreSum += p.Score
			scoreCount++
		}
	}
	flush()
	return out
}

func splitBIO(label string) (tag, name string, ok bool) {
	switch {
	case strings.HasPrefix(label, "B-"):
		return "B", label[2:], true
	case strings.HasPrefix(label, "I-"):
		return "I", label[2:], true
	default:
		return "", "", false
	}
}

func (d *Detector) detectSimilarity(ctx context.Context, text string) ([]entity.Candidate, error) {
	embed, err := d.runtime.Embedding()
	if err != nil {
		return nil, err
	}
	if err := d.ensureExemplars(embed); err != nil {
		return nil, err
	}

	table, err := pattern.CompiledTable()
	if err != nil {
		return nil, err
	}

	var out []entity.Candidate
	for _, sent := range splitSentences(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := embed.Embed(sent.text)
		if err != nil {
			return nil, err
		}
		for typ, sim := range bestSimilarities(vec, d.exemplarVecs) {
			if sim < d.similarityThreshold {
				continue
			}
			re, hasPattern := table[typ]
			if !hasPattern {
				continue
			}
			for _, span := range re.FindAllStringIndex(sent.text, -1) {
				out = append(out, entity.Candidate{
					Type:       typ,
					Text:       sent.text[span[0]:span[1]],
					StartChar:  sent.start + span[0],
					EndChar:    sent.start + span[1],
					Confidence: sim,
					Source:     entity.SourceNLP,
				})
			}
		}
	}
	return out, nil
}

func (d *Detector) ensureExemplars(embed *models.EmbeddingModel) error {
	d.exemplarOnce.Do(func() {
		for typ, phrases := range exemplars {
			for _, phrase := range phrases {
				vec, err := embed.Embed(phrase)
				if err != nil {
					d.exemplarErr = err
					return
				}
				d.exemplarVecs = append(d.exemplarVecs, exemplarVec{typ: typ, vec: vec})
			}
		}
	})
	return d.exemplarErr
}

// bestSimilarities returns the max cosine similarity per type.
func bestSimilarities(vec []float64, refs []exemplarVec) map[entity.Type]float64 {
	best := make(map[entity.Type]float64)
	for _, ref := range refs {
		sim := cosine(vec, ref.vec)
		if sim > best[ref.typ] {
			best[ref.typ] = sim
		}
	}
	return best
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

type sentenceSpan struct {
	text  string
	start int
}

// splitSentences cuts text on terminal punctuation and newlines,
// keeping absolute offsets.
func splitSentences(text string) []sentenceSpan {
	var out []sentenceSpan
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				lead := leadingSpace(text[start : i+1])
				out = append(out, sentenceSpan{text: strings.TrimRight(text[start+lead:i+1], " \t\n"), start: start + lead})
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		lead := leadingSpace(text[start:])
		out = append(out, sentenceSpan{text: strings.TrimRight(text[start+lead:], " \t\n"), start: start + lead})
	}
	return out
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\n"))
}

// mergeLocal removes same-type overlaps within this method's own
// output, keeping the higher-confidence span.
func mergeLocal(cands []entity.Candidate) []entity.Candidate {
	var out []entity.Candidate
	for _, c := range cands {
		replaced := false
		keep := true
		for i := range out {
			if out[i].Type == c.Type && out[i].Overlaps(c) {
				if c.Confidence > out[i].Confidence {
					out[i] = c
					replaced = true
				}
				keep = false
				break
			}
		}
		if keep && !replaced {
			out = append(out, c)
		}
	}
	return out
}
