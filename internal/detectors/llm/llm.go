// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package llm implements the optional LLM detection method: a local
// model endpoint is prompted per text chunk for a strict JSON entity
// list, whose entries are located back in the original text. Any
// failure makes this method unavailable, never wrong.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"autoredact/internal/detectors"
	"autoredact/internal/entity"
)

// maxChunkChars bounds the text sent per request; chunks break on word
// boundaries so no entity is cut mid-token more often than necessary.
const maxChunkChars = 1024

const promptHeader = `You are a privacy auditor. Find every sensitive entity in the text below.
Respond with ONLY a JSON object of this exact shape, no prose:
{"entities":[{"entity_type":"...","entity_text":"...","confidence":0.0,"reason":"..."}]}
entity_type must be one of: PERSON, EMAIL, PHONE, SSN, CREDIT_CARD, BANK_ACCOUNT,
IP_ADDRESS, URL, DATE, ZIP_CODE, CURRENCY, API_KEY, PASSWORD, SECRET,
INSURANCE_ID, POLICY_NUMBER.
entity_text must be copied verbatim from the text. confidence is between 0 and 1.
If there are no entities respond {"entities":[]}.

Text:
`

// Detector adapts the local LLM endpoint to the detection contract.
type Detector struct {
	client *Client
}

// New builds the LLM detector around a client.
func New(client *Client) *Detector {
	return &Detector{client: client}
}

// Method implements detectors.Detector.
func (d *Detector) Method() entity.SourceMethod {
	return entity.SourceLLM
}

// Detect chunks the text, prompts the endpoint per chunk, and maps the
// reported entities back onto absolute character offsets.
//
// When the time budget expires mid-run the candidates from the chunks
// already processed are returned alongside the deadline error, so the
// caller can keep the partial work; cancellation discards it.
func (d *Detector) Detect(ctx context.Context, text string) ([]entity.Candidate, error) {
	if !d.client.Available(ctx) {
		return nil, fmt.Errorf("%w: llm endpoint not reachable", detectors.ErrUnavailable)
	}

	var out []entity.Candidate
	for _, chunk := range chunkText(text, maxChunkChars) {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return out, err
			}
			return nil, err
		}
		raw, err := d.client.Generate(ctx, promptHeader+chunk.text+"\n###")
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			if detectors.IsTimeout(err) {
				return out, fmt.Errorf("generate: %w", err)
			}
			return nil, fmt.Errorf("%w: generate: %v", detectors.ErrUnavailable, err)
		}
		entities, err := parseResponse(raw)
		if err != nil {
			// One malformed response degrades the whole method: partial
			// trust in an unparseable model is worse than none.
			return nil, fmt.Errorf("%w: parse response: %v", detectors.ErrUnavailable, err)
		}
		out = append(out, locate(chunk, entities)...)
	}
	return out, nil
}

type chunkSpan struct {
	text  string
	start int
}

// chunkText splits text into word-boundary chunks of at most maxChars
// characters, keeping absolute start offsets.
func chunkText(text string, maxChars int) []chunkSpan {
	if len(text) <= maxChars {
		if text == "" {
			return nil
		}
		return []chunkSpan{{text: text, start: 0}}
	}

	var chunks []chunkSpan
	start := 0
	for start < len(text) {
		end := start + maxChars
		if end >= len(text) {
			chunks = append(chunks, chunkSpan{text: text[start:], start: start})
			break
		}
		// Back up to the last space inside the window.
		cut := end
		for cut > start && !unicode.IsSpace(rune(text[cut-1])) {
			cut--
		}
		if cut == start {
			cut = end // single huge token, hard cut
		}
		chunks = append(chunks, chunkSpan{text: text[start:cut], start: start})
		start = cut
	}
	return chunks
}

type reportedEntity struct {
	EntityType string  `json:"entity_type"`
	EntityText string  `json:"entity_text"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type response struct {
	Entities []reportedEntity `json:"entities"`
}

// parseResponse extracts the JSON object from the model output, which
// may be wrapped in prose or code fences despite instructions.
func parseResponse(raw string) ([]reportedEntity, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var resp response
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// locate maps reported entities onto the chunk by searching for their
// verbatim text. A moving cursor keeps repeated values distinct; an
// entity whose text cannot be found is dropped.
func locate(chunk chunkSpan, entities []reportedEntity) []entity.Candidate {
	var out []entity.Candidate
	cursor := 0
	for _, e := range entities {
		typ, known := entity.ParseType(e.EntityType)
		if !known || e.EntityText == "" {
			continue
		}
		idx := strings.Index(chunk.text[cursor:], e.EntityText)
		searchedFrom := cursor
		if idx < 0 && cursor > 0 {
			// The model may report entities out of order.
			idx = strings.Index(chunk.text, e.EntityText)
			searchedFrom = 0
		}
		if idx < 0 {
			continue
		}
		start := searchedFrom + idx
		end := start + len(e.EntityText)
		if end > cursor {
			cursor = end
		}
		out = append(out, entity.Candidate{
			Type:       typ,
			Text:       e.EntityText,
			StartChar:  chunk.start + start,
			EndChar:    chunk.start + end,
			Confidence: clampConfidence(e.Confidence),
			Source:     entity.SourceLLM,
		})
	}
	return out
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
