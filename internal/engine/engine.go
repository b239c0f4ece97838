// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package engine orchestrates a detection run: it fans the text out to
// every enabled detector in parallel, degrades around the ones that
// fail, filters malformed candidates, and hands the pool to the
// consolidator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"autoredact/internal/consolidate"
	"autoredact/internal/detectors"
	"autoredact/internal/entity"
	"autoredact/internal/observability"
)

// contextWindow is how many characters of surrounding text each
// candidate carries into the result.
const contextWindow = 30

// Config holds one engine's run parameters.
type Config struct {
	ConfidenceThreshold float64
	RedactionMethod     entity.RedactionMethod
	CustomReplacement   string
	DetectorBudget      time.Duration
}

// Metadata describes one completed run.
type Metadata struct {
	RunID                string   `json:"run_id"`
	MethodsUsed          []string `json:"methods_used"`
	MethodsDegraded      []string `json:"methods_degraded,omitempty"`
	CandidatesConsidered int      `json:"candidates_considered"`
	TotalRedactions      int      `json:"total_redactions"`
	DurationMs           int64    `json:"duration_ms"`
}

// Result is the redaction plan plus run metadata.
type Result struct {
	Redactions []entity.Redaction `json:"redactions"`
	Metadata   Metadata           `json:"metadata"`
}

// Engine runs a fixed set of detectors under one configuration.
type Engine struct {
	cfg       Config
	detectors []detectors.Detector
	observer  *observability.StandardObserver
}

// New validates the configuration and builds an engine. Invalid
// thresholds or an empty detector set are fatal configuration errors.
func New(cfg Config, dets []detectors.Detector, observer *observability.StandardObserver) (*Engine, error) {
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, detectors.NewConfigurationError("engine",
			"confidence threshold %g outside [0,1]", cfg.ConfidenceThreshold)
	}
	switch cfg.RedactionMethod {
	case entity.RedactBlackBox:
	case entity.RedactCustom:
		if cfg.CustomReplacement == "" {
			return nil, detectors.NewConfigurationError("engine",
				"custom replacement text required for %s", entity.RedactCustom)
		}
	default:
		return nil, detectors.NewConfigurationError("engine",
			"unknown redaction method %q", cfg.RedactionMethod)
	}
	if len(dets) == 0 {
		return nil, detectors.NewConfigurationError("engine", "no detectors configured")
	}
	if cfg.DetectorBudget <= 0 {
		cfg.DetectorBudget = 10 * time.Second
	}
	return &Engine{cfg: cfg, detectors: dets, observer: observer}, nil
}

// Detect runs every detector over text and consolidates the results.
// locator may be nil when the caller has no page/line metadata.
//
// A detector that is unavailable or fails contributes zero candidates
// and is recorded as degraded; one that exceeds its budget keeps any
// candidates it returned alongside the timeout. The run fails only when
// the caller cancels, or when every detector was unavailable.
func (e *Engine) Detect(ctx context.Context, text string, locator *entity.Locator) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	perDetector := make([][]entity.Candidate, len(e.detectors))
	detErrs := make([]error, len(e.detectors))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, det := range e.detectors {
		i, det := i, det
		g.Go(func() error {
			done := e.observer.StartTiming(string(det.Method()), "detect", runID)

			budgetCtx, cancel := context.WithTimeout(groupCtx, e.cfg.DetectorBudget)
			defer cancel()

			cands, err := det.Detect(budgetCtx, text)
			if err != nil {
				detErrs[i] = err
				// A timed-out detector may still have returned the
				// candidates it found before the budget ran out.
				perDetector[i] = cands
				done(false, map[string]interface{}{"error": err.Error()})
				// Caller cancellation aborts the whole run; everything
				// else is this detector's own problem.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			perDetector[i] = cands
			done(true, map[string]interface{}{"candidates": len(cands)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var used, degraded []string
	unavailable := 0
	var pool []entity.Candidate
	for i, det := range e.detectors {
		method := string(det.Method())
		if err := detErrs[i]; err != nil {
			degraded = append(degraded, method)
			if detectors.IsUnavailable(err) {
				unavailable++
			}
			e.observer.LogDegradation(method, err)
		} else {
			used = append(used, method)
		}
		for _, c := range perDetector[i] {
			if c.Validate(len(text)) != nil {
				// Malformed candidates are dropped, never repaired.
				continue
			}
			pool = append(pool, c)
		}
	}

	if unavailable == len(e.detectors) {
		return nil, fmt.Errorf("%w: %s", detectors.ErrAllUnavailable, strings.Join(degraded, ", "))
	}

	e.annotate(text, locator, pool)

	plan := consolidate.Consolidate(pool, consolidate.Config{
		Threshold:         e.cfg.ConfidenceThreshold,
		Method:            e.cfg.RedactionMethod,
		CustomReplacement: e.cfg.CustomReplacement,
	})

	return &Result{
		Redactions: plan,
		Metadata: Metadata{
			RunID:                runID,
			MethodsUsed:          used,
			MethodsDegraded:      degraded,
			CandidatesConsidered: len(pool),
			TotalRedactions:      len(plan),
			DurationMs:           time.Since(start).Milliseconds(),
		},
	}, nil
}

// annotate fills in the context snippets and page/line positions the
// detectors themselves do not know about.
func (e *Engine) annotate(text string, locator *entity.Locator, pool []entity.Candidate) {
	for i := range pool {
		c := &pool[i]
		before := c.StartChar - contextWindow
		if before < 0 {
			before = 0
		}
		after := c.EndChar + contextWindow
		if after > len(text) {
			after = len(text)
		}
		c.ContextBefore = text[before:c.StartChar]
		c.ContextAfter = text[c.EndChar:after]
		c.PageNumber, c.LineNumber = locator.Locate(c.StartChar)
	}
}

// IsConfigurationError reports whether err is a fatal startup error.
func IsConfigurationError(err error) bool {
	var ce *detectors.ConfigurationError
	return errors.As(err, &ce)
}
