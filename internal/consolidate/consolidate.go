// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package consolidate turns the raw candidate pool from every detection
// method into the final redaction plan: overlapping spans are merged to
// a single winner, the confidence threshold is applied, and the
// survivors get stable sequential IDs. The whole pass is deterministic:
// the same pool in any order yields byte-identical plans.
package consolidate

import (
	"sort"

	"autoredact/internal/entity"
)

// Config controls thresholding and how the final redactions are to be
// applied.
type Config struct {
	Threshold         float64
	Method            entity.RedactionMethod
	CustomReplacement string
}

// Consolidate merges, thresholds, and finalizes the candidate pool.
// Candidates must already be structurally valid.
func Consolidate(candidates []entity.Candidate, cfg Config) []entity.Redaction {
	pool := make([]entity.Candidate, len(candidates))
	copy(pool, candidates)

	// Canonical order first so grouping is independent of input order.
	sort.Slice(pool, func(i, j int) bool { return less(pool[i], pool[j]) })

	var winners []entity.Candidate
	for start := 0; start < len(pool); {
		// Grow the overlap group: any candidate starting before the
		// group's furthest end joins it, regardless of type.
		end := start + 1
		groupEnd := pool[start].EndChar
		for end < len(pool) && pool[end].StartChar < groupEnd {
			if pool[end].EndChar > groupEnd {
				groupEnd = pool[end].EndChar
			}
			end++
		}

		winner := pool[start]
		for _, c := range pool[start+1 : end] {
			if beats(c, winner) {
				winner = c
			}
		}
		if winner.Confidence >= cfg.Threshold {
			winners = append(winners, winner)
		}
		start = end
	}

	// Winners are non-overlapping by construction; order them by span
	// and assign IDs from 1.
	sort.Slice(winners, func(i, j int) bool { return less(winners[i], winners[j]) })

	out := make([]entity.Redaction, 0, len(winners))
	for i, w := range winners {
		r := entity.Redaction{
			ID:            i + 1,
			Type:          w.Type,
			Text:          w.Text,
			StartChar:     w.StartChar,
			EndChar:       w.EndChar,
			PageNumber:    w.PageNumber,
			LineNumber:    w.LineNumber,
			Confidence:    w.Confidence,
			Source:        w.Source,
			IsRedacted:    true,
			Method:        cfg.Method,
			ContextBefore: w.ContextBefore,
			ContextAfter:  w.ContextAfter,
		}
		if cfg.Method == entity.RedactCustom {
			r.CustomReplacement = cfg.CustomReplacement
		}
		out = append(out, r)
	}
	return out
}

// beats decides whether a displaces b as an overlap group's winner.
// The tie-break chain: higher confidence, then longer span, then
// higher source priority, then lower start offset.
func beats(a, b entity.Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	alen, blen := a.EndChar-a.StartChar, b.EndChar-b.StartChar
	if alen != blen {
		return alen > blen
	}
	if a.Source.Priority() != b.Source.Priority() {
		return a.Source.Priority() > b.Source.Priority()
	}
	return a.StartChar < b.StartChar
}

// less is the canonical candidate ordering: by span, then by the same
// chain beats uses, so sorting is total and deterministic.
func less(a, b entity.Candidate) bool {
	if a.StartChar != b.StartChar {
		return a.StartChar < b.StartChar
	}
	if a.EndChar != b.EndChar {
		return a.EndChar < b.EndChar
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Source.Priority() != b.Source.Priority() {
		return a.Source.Priority() > b.Source.Priority()
	}
	return a.Type < b.Type
}
