// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package contextlabel

import (
	"context"
	"testing"

	"autoredact/internal/entity"
)

func detect(t *testing.T, text string) []entity.Candidate {
	t.Helper()
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cands, err := d.Detect(context.Background(), text)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return cands
}

func single(t *testing.T, cands []entity.Candidate, typ entity.Type) entity.Candidate {
	t.Helper()
	var hits []entity.Candidate
	for _, c := range cands {
		if c.Type == typ {
			hits = append(hits, c)
		}
	}
	if len(hits) != 1 {
		t.Fatalf("%s: expected 1 candidate, got %d (%+v)", typ, len(hits), hits)
	}
	return hits[0]
}

func TestDetect_LabeledPerson(t *testing.T) {
	text := "Contact: John Smith, extension 412"
	c := single(t, detect(t, text), entity.TypePerson)
	if c.Text != "John Smith" {
		t.Errorf("captured %q, want John Smith", c.Text)
	}
	if c.Confidence < 0.9 {
		t.Errorf("confidence %g, want >= 0.9", c.Confidence)
	}
	if text[c.StartChar:c.EndChar] != c.Text {
		t.Errorf("span mismatch: [%d,%d)", c.StartChar, c.EndChar)
	}
}

func TestDetect_PersonLabelIsCaseSensitive(t *testing.T) {
	for _, c := range detect(t, "contact: john smith") {
		if c.Type == entity.TypePerson {
			t.Errorf("lowercase label should not yield a person: %+v", c)
		}
	}
}

func TestDetect_SSNWithoutColon(t *testing.T) {
	c := single(t, detect(t, "Her SSN 123-45-6789 is on file"), entity.TypeSSN)
	if c.Text != "123-45-6789" {
		t.Errorf("captured %q", c.Text)
	}
	if c.Confidence != 0.95 {
		t.Errorf("labeled SSN confidence %g, want 0.95", c.Confidence)
	}
}

func TestDetect_LabelCannotRescueBadChecksum(t *testing.T) {
	c := single(t, detect(t, "Card number: 4111-1111-1111-1112"), entity.TypeCreditCard)
	if c.Confidence > 0.3 {
		t.Errorf("luhn-failing labeled card scored %g, want <= 0.3", c.Confidence)
	}

	valid := single(t, detect(t, "Card number: 4111-1111-1111-1111"), entity.TypeCreditCard)
	if valid.Confidence != 0.95 {
		t.Errorf("valid labeled card scored %g, want baseline 0.95", valid.Confidence)
	}
}

func TestDetect_InvalidSSNAreaScoresLow(t *testing.T) {
	c := single(t, detect(t, "SSN: 666-12-3456"), entity.TypeSSN)
	if c.Confidence > 0.3 {
		t.Errorf("invalid-area labeled SSN scored %g", c.Confidence)
	}
}

func TestDetect_BankAccountAndPolicy(t *testing.T) {
	cands := detect(t, "Account number: 0012 3456 7890, Policy number: HSX-449210")
	acct := single(t, cands, entity.TypeBankAccount)
	if acct.Confidence != 0.93 {
		t.Errorf("bank account confidence %g", acct.Confidence)
	}
	pol := single(t, cands, entity.TypePolicyNumber)
	if pol.Text != "HSX-449210" {
		t.Errorf("policy captured %q", pol.Text)
	}
}

func TestDetect_UnlabeledValuesIgnored(t *testing.T) {
	if cands := detect(t, "the numbers 123-45-6789 and 4111-1111-1111-1111 stand alone"); len(cands) != 0 {
		t.Errorf("unlabeled values produced %d context candidates: %+v", len(cands), cands)
	}
}

func TestDetect_ContextCancelled(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Detect(ctx, "SSN: 123-45-6789"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
