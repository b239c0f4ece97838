// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mlensemble implements the ensemble detection method: six
// classifiers vote on feature vectors extracted from text windows
// around pattern hits, combined by fixed weights.
package mlensemble

import (
	"context"
	"regexp"
	"sort"

	"autoredact/internal/detectors/pattern"
	"autoredact/internal/entity"
	"autoredact/internal/models"
)

const (
	// emitThreshold is the internal weighted-score cutoff; it is
	// independent of the engine's redaction threshold.
	emitThreshold = 0.6
	// voteThreshold is the per-member class probability needed to cast
	// a type vote.
	voteThreshold = 0.5
	// windowPad extends each pattern hit on both sides to give the
	// classifiers surrounding context.
	windowPad = 30
)

// Detector runs the classifier ensemble over the shared model runtime.
type Detector struct {
	runtime *models.Runtime
}

// New builds the ensemble detector over a shared model runtime.
func New(runtime *models.Runtime) *Detector {
	return &Detector{runtime: runtime}
}

// Method implements detectors.Detector.
func (d *Detector) Method() entity.SourceMethod {
	return entity.SourceMLEnsemble
}

// Detect scores a context window around every pattern hit. A window
// whose weighted entity score clears the internal threshold yields one
// candidate spanning the hit, typed by majority vote.
func (d *Detector) Detect(ctx context.Context, text string) ([]entity.Candidate, error) {
	ensemble, err := d.runtime.Ensemble()
	if err != nil {
		return nil, err
	}
	table, err := pattern.CompiledTable()
	if err != nil {
		return nil, err
	}

	seen := make(map[[2]int]bool)
	var out []entity.Candidate
	for _, typ := range orderedTypes(table) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, span := range table[typ].FindAllStringIndex(text, -1) {
			key := [2]int{span[0], span[1]}
			if seen[key] {
				continue
			}
			seen[key] = true

			window := text[clamp(span[0]-windowPad, len(text)):clamp(span[1]+windowPad, len(text))]
			preds, err := ensemble.Predict(Features(window))
			if err != nil {
				return nil, err
			}

			score := weightedEntityScore(preds)
			if score <= emitThreshold {
				continue
			}
			entityType, ok := majorityVote(preds, ensemble.Classes())
			if !ok {
				continue
			}
			out = append(out, entity.Candidate{
				Type:       entityType,
				Text:       text[span[0]:span[1]],
				StartChar:  span[0],
				EndChar:    span[1],
				Confidence: clampScore(score),
				Source:     entity.SourceMLEnsemble,
			})
		}
	}
	return out, nil
}

// weightedEntityScore combines each member's probability that the
// window contains any entity (one minus its negative-class
// probability) by the fixed member weights.
func weightedEntityScore(preds []models.MemberPrediction) float64 {
	var score float64
	for _, p := range preds {
		if len(p.Probs) == 0 {
			continue
		}
		score += p.Weight * (1 - p.Probs[0])
	}
	return score
}

// majorityVote picks the entity type most members assert with
// probability above the vote threshold. Ties go to the class backed by
// the highest member weight, then to the class asserted by the
// earliest member in the fixed ensemble order, then to the lowest
// class index, so the outcome is a pure function of the predictions.
func majorityVote(preds []models.MemberPrediction, classes []string) (entity.Type, bool) {
	votes := make(map[int]int)
	bestWeight := make(map[int]float64)
	firstVoter := make(map[int]int)
	for i, p := range preds {
		class := argmax(p.Probs)
		if class <= 0 || class >= len(classes) || p.Probs[class] <= voteThreshold {
			continue
		}
		votes[class]++
		if p.Weight > bestWeight[class] {
			bestWeight[class] = p.Weight
		}
		if _, seen := firstVoter[class]; !seen {
			firstVoter[class] = i
		}
	}
	if len(votes) == 0 {
		return "", false
	}

	candidates := make([]int, 0, len(votes))
	for class := range votes {
		candidates = append(candidates, class)
	}
	sort.Ints(candidates)

	winner := candidates[0]
	for _, class := range candidates[1:] {
		switch {
		case votes[class] != votes[winner]:
			if votes[class] > votes[winner] {
				winner = class
			}
		case bestWeight[class] != bestWeight[winner]:
			if bestWeight[class] > bestWeight[winner] {
				winner = class
			}
		case firstVoter[class] < firstVoter[winner]:
			winner = class
		}
	}
	typ, known := entity.ParseType(classes[winner])
	if !known {
		return "", false
	}
	return typ, true
}

func argmax(probs []float64) int {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best
}

func orderedTypes(table map[entity.Type]*regexp.Regexp) []entity.Type {
	types := make([]entity.Type, 0, len(table))
	for t := range table {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}
