// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package models owns the local ONNX model bundle: the shared runtime
// environment plus the NER, embedding, and ensemble sessions built on
// it. Every model loads lazily and at most once; a missing bundle makes
// the owning detector unavailable instead of failing the run.
package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"autoredact/internal/detectors"
)

// Config locates the model bundle on disk. The bundle layout is one
// subdirectory per model family under Dir:
//
//	ner/        model.onnx, labels.json, vocab.txt
//	embedding/  model.onnx, config.json, vocab.txt
//	ensemble/   gb_a.onnx ... nb.onnx, classes.json
type Config struct {
	Dir            string
	SequenceLength int
	LibraryPath    string
}

func (c Config) seqLen() int {
	if c.SequenceLength > 0 {
		return c.SequenceLength
	}
	return 256
}

// Runtime is the shared handle to the bundle. It is safe for concurrent
// use; all detectors of one engine share a single Runtime.
type Runtime struct {
	cfg Config

	envOnce sync.Once
	envErr  error

	nerOnce sync.Once
	ner     *NERModel
	nerErr  error

	embedOnce sync.Once
	embed     *EmbeddingModel
	embedErr  error

	ensembleOnce sync.Once
	ensemble     *EnsembleModel
	ensembleErr  error
}

// NewRuntime builds a runtime handle. No files are touched until a
// model is first requested.
func NewRuntime(cfg Config) *Runtime {
	return &Runtime{cfg: cfg}
}

func (r *Runtime) ensureEnvironment() error {
	r.envOnce.Do(func() {
		libPath := resolveSharedLibraryPath(r.cfg.LibraryPath, r.cfg.Dir)
		if libPath == "" {
			r.envErr = fmt.Errorf("%w: onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH", detectors.ErrUnavailable)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		if !ort.IsInitialized() {
			if err := ort.InitializeEnvironment(); err != nil {
				r.envErr = fmt.Errorf("%w: initialize onnxruntime: %v", detectors.ErrUnavailable, err)
			}
		}
	})
	return r.envErr
}

// NER returns the shared NER model, loading it on first use.
func (r *Runtime) NER() (*NERModel, error) {
	r.nerOnce.Do(func() {
		if err := r.ensureEnvironment(); err != nil {
			r.nerErr = err
			return
		}
		m, err := loadNER(filepath.Join(r.cfg.Dir, "ner"), r.cfg.seqLen())
		if err != nil {
			r.nerErr = fmt.Errorf("%w: ner model: %v", detectors.ErrUnavailable, err)
			return
		}
		r.ner = m
	})
	return r.ner, r.nerErr
}

// Embedding returns the shared sentence-embedding model.
func (r *Runtime) Embedding() (*EmbeddingModel, error) {
	r.embedOnce.Do(func() {
		if err := r.ensureEnvironment(); err != nil {
			r.embedErr = err
			return
		}
		m, err := loadEmbedding(filepath.Join(r.cfg.Dir, "embedding"), r.cfg.seqLen())
		if err != nil {
			r.embedErr = fmt.Errorf("%w: embedding model: %v", detectors.ErrUnavailable, err)
			return
		}
		r.embed = m
	})
	return r.embed, r.embedErr
}

// Ensemble returns the shared six-classifier ensemble.
func (r *Runtime) Ensemble() (*EnsembleModel, error) {
	r.ensembleOnce.Do(func() {
		if err := r.ensureEnvironment(); err != nil {
			r.ensembleErr = err
			return
		}
		m, err := loadEnsemble(filepath.Join(r.cfg.Dir, "ensemble"))
		if err != nil {
			if _, fatal := err.(*detectors.ConfigurationError); fatal {
				r.ensembleErr = err
				return
			}
			r.ensembleErr = fmt.Errorf("%w: ensemble models: %v", detectors.ErrUnavailable, err)
			return
		}
		r.ensemble = m
	})
	return r.ensemble, r.ensembleErr
}

// Close releases every loaded session. The runtime must not be used
// afterwards.
func (r *Runtime) Close() {
	if r.ner != nil {
		r.ner.destroy()
	}
	if r.embed != nil {
		r.embed.destroy()
	}
	if r.ensemble != nil {
		r.ensemble.destroy()
	}
}

// resolveSharedLibraryPath locates the onnxruntime shared library. An
// explicit path wins, then the environment variable, then common
// install locations.
func resolveSharedLibraryPath(explicit, bundleDir string) string {
	if explicit != "" {
		return explicit
	}
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
