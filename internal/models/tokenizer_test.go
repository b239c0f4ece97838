// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"os"
	"path/filepath"
	"testing"
)

func writeVocab(t *testing.T, tokens []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	content := ""
	for _, tok := range tokens {
		content += tok + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testTokenizer(t *testing.T) *WordPieceTokenizer {
	t.Helper()
	path := writeVocab(t, []string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]",
		"hello", "world", "play", "##ing", "##ground",
	})
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatalf("LoadWordPieceTokenizer: %v", err)
	}
	return tok
}

func TestEncodeWithOffsets_KnownWords(t *testing.T) {
	tok := testTokenizer(t)
	ids, attn, offsets := tok.EncodeWithOffsets("hello world", 8)

	if len(ids) != 8 || len(attn) != 8 || len(offsets) != 8 {
		t.Fatalf("lengths %d/%d/%d, want 8", len(ids), len(attn), len(offsets))
	}
	// [CLS] hello world [SEP] pad pad pad pad
	want := []int64{2, 4, 5, 3, 0, 0, 0, 0}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], id)
		}
	}
	wantAttn := []int64{1, 1, 1, 1, 0, 0, 0, 0}
	for i, a := range wantAttn {
		if attn[i] != a {
			t.Errorf("attn[%d] = %d, want %d", i, attn[i], a)
		}
	}
	if offsets[1] != (TokenOffset{Start: 0, End: 5}) {
		t.Errorf("hello offset %+v", offsets[1])
	}
	if offsets[2] != (TokenOffset{Start: 6, End: 11}) {
		t.Errorf("world offset %+v", offsets[2])
	}
	if offsets[0].Start != -1 || offsets[3].Start != -1 {
		t.Error("special tokens should carry -1 offsets")
	}
}

func TestEncodeWithOffsets_WordPieces(t *testing.T) {
	tok := testTokenizer(t)
	ids, _, offsets := tok.EncodeWithOffsets("playing", 8)

	// [CLS] play ##ing [SEP]
	if ids[1] != 6 || ids[2] != 7 {
		t.Fatalf("ids = %v, want play ##ing split", ids[:4])
	}
	if offsets[1] != (TokenOffset{Start: 0, End: 4}) {
		t.Errorf("play offset %+v", offsets[1])
	}
	if offsets[2] != (TokenOffset{Start: 4, End: 7}) {
		t.Errorf("##ing offset %+v", offsets[2])
	}
}

func TestEncodeWithOffsets_UnknownWord(t *testing.T) {
	tok := testTokenizer(t)
	ids, _, offsets := tok.EncodeWithOffsets("zqzqzq", 8)
	if ids[1] != 1 {
		t.Errorf("unknown word id %d, want [UNK]=1", ids[1])
	}
	if offsets[1] != (TokenOffset{Start: 0, End: 6}) {
		t.Errorf("unk offset %+v, want whole word", offsets[1])
	}
}

func TestEncodeWithOffsets_Lowercases(t *testing.T) {
	tok := testTokenizer(t)
	ids, _, _ := tok.EncodeWithOffsets("HELLO", 8)
	if ids[1] != 4 {
		t.Errorf("uppercase input id %d, want hello=4", ids[1])
	}
}

func TestEncodeWithOffsets_Truncation(t *testing.T) {
	tok := testTokenizer(t)
	ids, attn, offsets := tok.EncodeWithOffsets("hello world hello world hello world", 4)
	if len(ids) != 4 || len(offsets) != 4 {
		t.Fatalf("lengths %d/%d, want 4", len(ids), len(offsets))
	}
	if attn[3] != 1 {
		t.Error("truncated sequence should be fully attended")
	}
}

func TestSplitWordsWithOffsets(t *testing.T) {
	spans := splitWordsWithOffsets("  one\ttwo  ")
	if len(spans) != 2 {
		t.Fatalf("got %d spans", len(spans))
	}
	if spans[0].text != "one" || spans[0].start != 2 || spans[0].end != 5 {
		t.Errorf("first span %+v", spans[0])
	}
	if spans[1].text != "two" || spans[1].start != 6 || spans[1].end != 9 {
		t.Errorf("second span %+v", spans[1])
	}
	if got := splitWordsWithOffsets(""); got != nil {
		t.Errorf("empty text gave %v", got)
	}
}
