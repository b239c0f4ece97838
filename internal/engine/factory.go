// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"time"

	"autoredact/internal/config"
	"autoredact/internal/detectors"
	"autoredact/internal/detectors/contextlabel"
	"autoredact/internal/detectors/llm"
	"autoredact/internal/detectors/mlensemble"
	"autoredact/internal/detectors/nlp"
	"autoredact/internal/detectors/pattern"
	"autoredact/internal/entity"
	"autoredact/internal/models"
)

// BuildDetectors constructs the detector set for the enabled methods.
// Model-backed detectors are built lazily: a missing model bundle shows
// up as ErrUnavailable at detection time, not here. The returned
// runtime is non-nil only when a model-backed method is enabled; the
// caller owns closing it.
func BuildDetectors(cfg *config.Config) ([]detectors.Detector, *models.Runtime, error) {
	methods, err := cfg.EnabledMethods()
	if err != nil {
		return nil, nil, err
	}

	var runtime *models.Runtime
	ensureRuntime := func() *models.Runtime {
		if runtime == nil {
			runtime = models.NewRuntime(models.Config{
				Dir:            cfg.Models.Dir,
				SequenceLength: cfg.Models.SequenceLength,
				LibraryPath:    cfg.Models.LibraryPath,
			})
		}
		return runtime
	}

	var dets []detectors.Detector
	for _, method := range methods {
		switch method {
		case entity.SourcePattern:
			d, err := pattern.New()
			if err != nil {
				return nil, nil, err
			}
			dets = append(dets, d)
		case entity.SourceContext:
			d, err := contextlabel.New()
			if err != nil {
				return nil, nil, err
			}
			dets = append(dets, d)
		case entity.SourceNLP:
			dets = append(dets, nlp.New(ensureRuntime(), 0))
		case entity.SourceMLEnsemble:
			dets = append(dets, mlensemble.New(ensureRuntime()))
		case entity.SourceLLM:
			client := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.Model,
				time.Duration(cfg.LLM.TimeoutMs)*time.Millisecond)
			dets = append(dets, llm.New(client))
		}
	}
	return dets, runtime, nil
}
