// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package entity

import "testing"

func TestParseType(t *testing.T) {
	cases := []struct {
		input string
		ok    bool
	}{
		{"SSN", true},
		{"EMAIL", true},
		{"POLICY_NUMBER", true},
		{"ssn", false},
		{"PASSPORT", false},
		{"", false},
	}
	for _, tc := range cases {
		if _, ok := ParseType(tc.input); ok != tc.ok {
			t.Errorf("ParseType(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
	}
}

func TestAllTypes_CountAndOrder(t *testing.T) {
	types := AllTypes()
	if len(types) != 16 {
		t.Fatalf("expected 16 entity types, got %d", len(types))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Errorf("AllTypes not strictly ordered at %d: %s >= %s", i, types[i-1], types[i])
		}
	}
}

func TestMethodPriority_Ordering(t *testing.T) {
	order := []SourceMethod{SourcePattern, SourceNLP, SourceContext, SourceMLEnsemble, SourceLLM}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() >= order[i].Priority() {
			t.Errorf("expected %s to outrank %s", order[i], order[i-1])
		}
	}
	if SourceMethod("bogus").Priority() != 0 {
		t.Error("unknown method should rank lowest")
	}
}

func TestCandidateValidate(t *testing.T) {
	valid := Candidate{
		Type:       TypeEmail,
		Text:       "a@b.co",
		StartChar:  0,
		EndChar:    6,
		Confidence: 0.9,
		Source:     SourcePattern,
	}
	if err := valid.Validate(100); err != nil {
		t.Fatalf("valid candidate rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Candidate)
	}{
		{"unknown type", func(c *Candidate) { c.Type = "DRIVER_LICENSE" }},
		{"unknown source", func(c *Candidate) { c.Source = "regex" }},
		{"negative start", func(c *Candidate) { c.StartChar = -1 }},
		{"empty span", func(c *Candidate) { c.EndChar = c.StartChar }},
		{"inverted span", func(c *Candidate) { c.StartChar = 6; c.EndChar = 2 }},
		{"end past text", func(c *Candidate) { c.EndChar = 101 }},
		{"confidence above one", func(c *Candidate) { c.Confidence = 1.5 }},
		{"negative confidence", func(c *Candidate) { c.Confidence = -0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			if err := c.Validate(100); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestCandidateOverlaps(t *testing.T) {
	a := Candidate{StartChar: 10, EndChar: 20}
	cases := []struct {
		name  string
		b     Candidate
		wants bool
	}{
		{"identical", Candidate{StartChar: 10, EndChar: 20}, true},
		{"contained", Candidate{StartChar: 12, EndChar: 15}, true},
		{"partial left", Candidate{StartChar: 5, EndChar: 11}, true},
		{"partial right", Candidate{StartChar: 19, EndChar: 30}, true},
		{"adjacent left", Candidate{StartChar: 0, EndChar: 10}, false},
		{"adjacent right", Candidate{StartChar: 20, EndChar: 25}, false},
		{"disjoint", Candidate{StartChar: 30, EndChar: 40}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Overlaps(tc.b); got != tc.wants {
				t.Errorf("Overlaps = %v, want %v", got, tc.wants)
			}
			if got := tc.b.Overlaps(a); got != tc.wants {
				t.Errorf("Overlaps not symmetric: %v, want %v", got, tc.wants)
			}
		})
	}
}

func TestLocator(t *testing.T) {
	marks := []OffsetMark{
		{CharIndex: 40, Page: 1, Line: 3},
		{CharIndex: 0, Page: 1, Line: 1},
		{CharIndex: 20, Page: 1, Line: 2},
		{CharIndex: 60, Page: 2, Line: 1},
	}
	loc := NewLocator(marks)

	cases := []struct {
		idx  int
		page int
		line int
	}{
		{0, 1, 1},
		{19, 1, 1},
		{20, 1, 2},
		{45, 1, 3},
		{60, 2, 1},
		{999, 2, 1},
	}
	for _, tc := range cases {
		page, line := loc.Locate(tc.idx)
		if page == nil || line == nil {
			t.Fatalf("Locate(%d) returned nil", tc.idx)
		}
		if *page != tc.page || *line != tc.line {
			t.Errorf("Locate(%d) = %d/%d, want %d/%d", tc.idx, *page, *line, tc.page, tc.line)
		}
	}

	if page, line := NewLocator(nil).Locate(5); page != nil || line != nil {
		t.Error("empty locator should return nils")
	}
	if page, _ := loc.Locate(-1); page != nil {
		t.Error("index before first mark should return nils")
	}
}
