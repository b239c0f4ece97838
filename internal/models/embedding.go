// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	ort "github.com/yalue/onnxruntime_go"
)

// EmbeddingModel wraps a sentence-transformer ONNX session. Embed
// returns a mean-pooled vector over the attended tokens.
type EmbeddingModel struct {
	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	seqLen    int
	hidden    int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	hiddenStates  *ort.Tensor[float32]

	mu sync.Mutex
}

func loadEmbedding(dir string, seqLen int) (*EmbeddingModel, error) {
	modelPath := filepath.Join(dir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	hidden, err := loadHiddenSize(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(dir, "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	states, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(hidden)))
	if err != nil {
		return nil, fmt.Errorf("allocate hidden-state tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{states},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &EmbeddingModel{
		session:       session,
		tokenizer:     tokenizer,
		seqLen:        seqLen,
		hidden:        hidden,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		hiddenStates:  states,
	}, nil
}

// Embed returns the mean-pooled embedding of text.
func (m *EmbeddingModel) Embed(text string) ([]float64, error) {
	ids, attn, _ := m.tokenizer.EncodeWithOffsets(text, m.seqLen)

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputIDs.GetData(), ids)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	raw := m.hiddenStates.GetData()
	vec := make([]float64, m.hidden)
	var count float64
	for i := 0; i < m.seqLen; i++ {
		if attn[i] == 0 {
			continue
		}
		base := i * m.hidden
		for j := 0; j < m.hidden; j++ {
			vec[j] += float64(raw[base+j])
		}
		count++
	}
	if count > 0 {
		for j := range vec {
			vec[j] /= count
		}
	}
	return vec, nil
}

func (m *EmbeddingModel) destroy() {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.inputIDs != nil {
		m.inputIDs.Destroy()
	}
	if m.attentionMask != nil {
		m.attentionMask.Destroy()
	}
	if m.hiddenStates != nil {
		m.hiddenStates.Destroy()
	}
}

func loadHiddenSize(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var cfg struct {
		HiddenSize int `json:"hidden_size"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return 0, err
	}
	if cfg.HiddenSize <= 0 {
		return 0, fmt.Errorf("config missing hidden_size")
	}
	return cfg.HiddenSize, nil
}
