// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	ort "github.com/yalue/onnxruntime_go"

	"autoredact/internal/detectors"
)

// FeatureDim is the fixed length of the ensemble feature vector.
const FeatureDim = 50

// memberSpec fixes the file name and vote weight of each ensemble
// member. Weights are uncalibrated defaults; they must sum to one.
type memberSpec struct {
	Name   string
	File   string
	Weight float64
}

var memberSpecs = []memberSpec{
	{"gradient_boost_a", "gb_a.onnx", 0.25},
	{"gradient_boost_b", "gb_b.onnx", 0.25},
	{"gradient_boost_c", "gb_c.onnx", 0.20},
	{"random_forest", "rf.onnx", 0.15},
	{"svm", "svm.onnx", 0.10},
	{"naive_bayes", "nb.onnx", 0.05},
}

// EnsembleModel holds the six classifier sessions and their shared
// class list. Class 0 is always the negative "no entity" class.
type EnsembleModel struct {
	members []*ensembleMember
	classes []string
}

type ensembleMember struct {
	spec    memberSpec
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
}

// MemberPrediction is one classifier's class-probability vector.
type MemberPrediction struct {
	Name   string
	Weight float64
	Probs  []float64
}

func loadEnsemble(dir string) (*EnsembleModel, error) {
	var sum float64
	for _, s := range memberSpecs {
		sum += s.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, detectors.NewConfigurationError("ensemble", "member weights sum to %g, want 1.0", sum)
	}

	classes, err := loadClassList(filepath.Join(dir, "classes.json"))
	if err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}

	m := &EnsembleModel{classes: classes}
	for _, spec := range memberSpecs {
		member, err := loadMember(dir, spec, len(classes))
		if err != nil {
			m.destroy()
			return nil, fmt.Errorf("member %s: %w", spec.Name, err)
		}
		m.members = append(m.members, member)
	}
	return m, nil
}

func loadMember(dir string, spec memberSpec, numClasses int) (*ensembleMember, error) {
	modelPath := filepath.Join(dir, spec.File)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, FeatureDim))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numClasses)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"probabilities"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ensembleMember{spec: spec, session: session, input: input, output: output}, nil
}

// Classes returns the shared class list.
func (m *EnsembleModel) Classes() []string {
	return m.classes
}

// Predict runs every member over one feature vector and returns their
// class probabilities in fixed member order.
func (m *EnsembleModel) Predict(features []float32) ([]MemberPrediction, error) {
	if len(features) != FeatureDim {
		return nil, fmt.Errorf("feature vector length %d, want %d", len(features), FeatureDim)
	}

	out := make([]MemberPrediction, 0, len(m.members))
	for _, member := range m.members {
		probs, err := member.run(features)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", member.spec.Name, err)
		}
		out = append(out, MemberPrediction{
			Name:   member.spec.Name,
			Weight: member.spec.Weight,
			Probs:  probs,
		})
	}
	return out, nil
}

func (e *ensembleMember) run(features []float32) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.input.GetData(), features)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	raw := e.output.GetData()
	probs := make([]float64, len(raw))
	for i, v := range raw {
		probs[i] = float64(v)
	}
	return probs, nil
}

func (m *EnsembleModel) destroy() {
	for _, member := range m.members {
		if member.session != nil {
			member.session.Destroy()
		}
		if member.input != nil {
			member.input.Destroy()
		}
		if member.output != nil {
			member.output.Destroy()
		}
	}
}

func loadClassList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, err
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("class list needs a negative class plus entity classes, got %d entries", len(classes))
	}
	return classes, nil
}
