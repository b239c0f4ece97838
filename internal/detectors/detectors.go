// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package detectors defines the contract shared by every detection method
// and the error taxonomy the engine uses to classify their failures.
package detectors

import (
	"context"
	"errors"
	"fmt"

	"autoredact/internal/entity"
)

// Detector produces entity candidates from text. Implementations must be
// safe for concurrent use and must honor context cancellation on any
// blocking work.
type Detector interface {
	// Method identifies the detection method for priority ranking and
	// degradation logging.
	Method() entity.SourceMethod

	// Detect scans text and returns zero or more candidates. A detector
	// that cannot operate returns ErrUnavailable (possibly wrapped); it
	// never invents candidates to compensate.
	Detect(ctx context.Context, text string) ([]entity.Candidate, error)
}

// ErrUnavailable means a detector's backing resource (model files,
// local endpoint) is missing or unreachable. The engine treats it as
// recoverable and degrades to the remaining methods.
var ErrUnavailable = errors.New("detector unavailable")

// ErrAllUnavailable means every configured detector was unavailable for
// a run, so no detection was performed at all.
var ErrAllUnavailable = errors.New("all detectors unavailable")

// ConfigurationError is a fatal startup error: invalid thresholds,
// malformed patterns, weights that do not sum to one.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

// NewConfigurationError builds a fatal configuration error.
func NewConfigurationError(component, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

// IsTimeout reports whether err represents a detector exceeding its
// per-run time budget.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsUnavailable reports whether err represents a missing or unreachable
// detector backend.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
