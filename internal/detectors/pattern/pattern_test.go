// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"context"
	"testing"

	"autoredact/internal/entity"
)

func mustDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func detect(t *testing.T, text string) []entity.Candidate {
	t.Helper()
	cands, err := mustDetector(t).Detect(context.Background(), text)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return cands
}

func findType(cands []entity.Candidate, typ entity.Type) []entity.Candidate {
	var out []entity.Candidate
	for _, c := range cands {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

func TestDetect_Email(t *testing.T) {
	text := "Reach me at john.smith@company.com today."
	emails := findType(detect(t, text), entity.TypeEmail)
	if len(emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emails))
	}
	c := emails[0]
	if c.Text != "john.smith@company.com" {
		t.Errorf("matched %q", c.Text)
	}
	if text[c.StartChar:c.EndChar] != c.Text {
		t.Errorf("span [%d,%d) does not cover match", c.StartChar, c.EndChar)
	}
	if c.Confidence < 0.9 {
		t.Errorf("email confidence %g, want >= 0.9", c.Confidence)
	}
	if c.Source != entity.SourcePattern {
		t.Errorf("source = %s", c.Source)
	}
}

func TestDetect_SSNConfidenceBands(t *testing.T) {
	cands := detect(t, "first 536-90-4399 then 666-12-3456")
	ssns := findType(cands, entity.TypeSSN)
	if len(ssns) != 2 {
		t.Fatalf("expected 2 SSN candidates, got %d", len(ssns))
	}
	if ssns[0].Confidence < 0.9 {
		t.Errorf("valid SSN confidence %g, want >= 0.9", ssns[0].Confidence)
	}
	if ssns[1].Confidence > 0.3 {
		t.Errorf("invalid-area SSN confidence %g, want <= 0.3", ssns[1].Confidence)
	}
}

func TestDetect_CreditCardLuhn(t *testing.T) {
	valid := findType(detect(t, "card 4111-1111-1111-1111"), entity.TypeCreditCard)
	if len(valid) != 1 || valid[0].Confidence < 0.97 {
		t.Fatalf("valid card: got %+v", valid)
	}
	invalid := findType(detect(t, "card 4111-1111-1111-1112"), entity.TypeCreditCard)
	if len(invalid) != 1 || invalid[0].Confidence > 0.3 {
		t.Fatalf("luhn-failing card: got %+v", invalid)
	}
}

func TestDetect_NoFalseHitsInsideSSN(t *testing.T) {
	cands := detect(t, "SSN 123-45-6789")
	for _, c := range cands {
		switch c.Type {
		case entity.TypePhone, entity.TypeDate, entity.TypeZipCode:
			t.Errorf("%s falsely matched %q inside SSN text", c.Type, c.Text)
		}
	}
	ssns := findType(cands, entity.TypeSSN)
	if len(ssns) != 1 {
		t.Fatalf("expected 1 SSN, got %d", len(ssns))
	}
	if ssns[0].Confidence < 0.9 {
		t.Errorf("SSN confidence %g, want >= 0.9", ssns[0].Confidence)
	}
}

func TestDetect_PhoneShapes(t *testing.T) {
	cases := []string{
		"(555) 123-4567",
		"555-123-4567",
		"555.123.4567",
	}
	for _, text := range cases {
		phones := findType(detect(t, text), entity.TypePhone)
		if len(phones) != 1 {
			t.Errorf("%q: expected 1 phone, got %d", text, len(phones))
		}
	}
}

func TestDetect_MalformedIPDropped(t *testing.T) {
	// Dotted quad that fails octet validation scores zero and is dropped.
	ips := findType(detect(t, "host at 999.300.1.1 and 10.0.0.1"), entity.TypeIPAddress)
	if len(ips) != 1 {
		t.Fatalf("expected 1 valid IP, got %d", len(ips))
	}
	if ips[0].Text != "10.0.0.1" {
		t.Errorf("kept %q", ips[0].Text)
	}
}

func TestDetect_SecretsAndKeys(t *testing.T) {
	text := "password: hunter2 and api key sk-x9Qf2LmR7vT0bZ4hKpW8"
	cands := detect(t, text)
	if got := findType(cands, entity.TypePassword); len(got) != 1 {
		t.Errorf("expected 1 password candidate, got %d", len(got))
	}
	keys := findType(cands, entity.TypeAPIKey)
	if len(keys) != 1 {
		t.Fatalf("expected 1 api key candidate, got %d", len(keys))
	}
	if keys[0].Confidence != 0.90 {
		t.Errorf("high-entropy key confidence %g", keys[0].Confidence)
	}
}

func TestDetect_StructuredIDs(t *testing.T) {
	text := "member MED-123-4567, policy POL-12345678, paid $1,299.99 on 03/15/2024, zip 98101-1234"
	cands := detect(t, text)
	for _, typ := range []entity.Type{
		entity.TypeInsuranceID, entity.TypePolicyNumber, entity.TypeCurrency, entity.TypeDate, entity.TypeZipCode,
	} {
		if got := findType(cands, typ); len(got) != 1 {
			t.Errorf("%s: expected 1 candidate, got %d", typ, len(got))
		}
	}
}

func TestDetect_EmptyAndCleanText(t *testing.T) {
	if got := detect(t, ""); len(got) != 0 {
		t.Errorf("empty text produced %d candidates", len(got))
	}
	if got := detect(t, "The quick brown fox jumps over the lazy dog."); len(got) != 0 {
		t.Errorf("clean text produced %d candidates", len(got))
	}
}

func TestDetect_Deterministic(t *testing.T) {
	text := "a@b.co 536-90-4399 10.0.0.1 $5.00"
	first := detect(t, text)
	for i := 0; i < 5; i++ {
		again := detect(t, text)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d candidates, want %d", i, len(again), len(first))
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, first[j], again[j])
			}
		}
	}
}

func TestDetect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mustDetector(t).Detect(ctx, "a@b.co"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
