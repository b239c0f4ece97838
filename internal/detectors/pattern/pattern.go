// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pattern implements the regex detection method. Each entity type
// with a recognizable surface form has one generating expression; every
// match is scored by the validators before it becomes a candidate.
package pattern

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"autoredact/internal/detectors"
	"autoredact/internal/entity"
	"autoredact/internal/validators"
)

// patternSources maps each detectable type to its generating expression.
// PERSON and BANK_ACCOUNT have no reliable surface form without a label
// and are covered by the context and NLP methods instead.
var patternSources = map[entity.Type]string{
	entity.TypeEmail:        `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
	entity.TypePhone:        `\(?\b\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`,
	entity.TypeSSN:          `\b\d{3}-\d{2}-\d{4}\b`,
	entity.TypeCreditCard:   `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`,
	entity.TypeIPAddress:    `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`,
	entity.TypeURL:          `https?://[A-Za-z0-9.-]+(?::\d+)?(?:/[A-Za-z0-9/_.%~-]*)?(?:\?[A-Za-z0-9&=%._-]*)?`,
	entity.TypeDate:         `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`,
	entity.TypeZipCode:      `\b\d{5}(?:-\d{4})?\b`,
	entity.TypeCurrency:     `\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?`,
	entity.TypeAPIKey:       `\b(?:sk|pk|rk)-[A-Za-z0-9_-]{16,}\b`,
	entity.TypePassword:     `(?i)\b(?:password|passwd|pwd)\s*[:=]\s*\S+`,
	entity.TypeSecret:       `(?i)\b(?:secret|token|private[_ ]key)\s*[:=]\s*\S+`,
	entity.TypeInsuranceID:  `\b(?:MED|INS|GRP|HMO|PPO)-\d{3,4}-\d{3,6}\b`,
	entity.TypePolicyNumber: `\b(?:POL|PCY)-?\d{6,12}\b`,
}

var (
	compileOnce sync.Once
	compiled    map[entity.Type]*regexp.Regexp
	compileErr  error
)

// CompiledTable returns the shared compiled pattern table. A pattern that
// fails to compile is a fatal configuration error, surfaced at startup.
func CompiledTable() (map[entity.Type]*regexp.Regexp, error) {
	compileOnce.Do(func() {
		compiled = make(map[entity.Type]*regexp.Regexp, len(patternSources))
		for t, src := range patternSources {
			re, err := regexp.Compile(src)
			if err != nil {
				compileErr = detectors.NewConfigurationError("pattern", "pattern for %s: %v", t, err)
				return
			}
			compiled[t] = re
		}
	})
	return compiled, compileErr
}

// Detector is the pure-regex detection method.
type Detector struct {
	table map[entity.Type]*regexp.Regexp
	types []entity.Type
}

// New builds the pattern detector, compiling the full table up front.
func New() (*Detector, error) {
	table, err := CompiledTable()
	if err != nil {
		return nil, err
	}
	types := make([]entity.Type, 0, len(table))
	for t := range table {
		types = append(types, t)
	}
	// Stable iteration keeps candidate order deterministic.
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return &Detector{table: table, types: types}, nil
}

// Method implements detectors.Detector.
func (d *Detector) Method() entity.SourceMethod {
	return entity.SourcePattern
}

// Detect runs every expression over the text and scores each match with
// its type's validator. Matches whose validator score is zero are
// dropped outright.
func (d *Detector) Detect(ctx context.Context, text string) ([]entity.Candidate, error) {
	var out []entity.Candidate
	for _, t := range d.types {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, span := range d.table[t].FindAllStringIndex(text, -1) {
			matched := text[span[0]:span[1]]
			score := validators.Score(t, matched)
			if score == 0 {
				continue
			}
			out = append(out, entity.Candidate{
				Type:       t,
				Text:       matched,
				StartChar:  span[0],
				EndChar:    span[1],
				Confidence: score,
				Source:     entity.SourcePattern,
			})
		}
	}
	return out, nil
}
