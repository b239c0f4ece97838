// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package entity defines the core records shared by every detection method:
// the closed entity-type enum, detection candidates, and finalized redactions.
package entity

import (
	"fmt"
	"sort"
)

// Type identifies the kind of sensitive entity a candidate refers to.
// The set is closed; detectors must never emit a type outside it.
type Type string

const (
	TypePerson       Type = "PERSON"
	TypeEmail        Type = "EMAIL"
	TypePhone        Type = "PHONE"
	TypeSSN          Type = "SSN"
	TypeCreditCard   Type = "CREDIT_CARD"
	TypeBankAccount  Type = "BANK_ACCOUNT"
	TypeIPAddress    Type = "IP_ADDRESS"
	TypeURL          Type = "URL"
	TypeDate         Type = "DATE"
	TypeZipCode      Type = "ZIP_CODE"
	TypeCurrency     Type = "CURRENCY"
	TypeAPIKey       Type = "API_KEY"
	TypePassword     Type = "PASSWORD"
	TypeSecret       Type = "SECRET"
	TypeInsuranceID  Type = "INSURANCE_ID"
	TypePolicyNumber Type = "POLICY_NUMBER"
)

var knownTypes = map[Type]bool{
	TypePerson:       true,
	TypeEmail:        true,
	TypePhone:        true,
	TypeSSN:          true,
	TypeCreditCard:   true,
	TypeBankAccount:  true,
	TypeIPAddress:    true,
	TypeURL:          true,
	TypeDate:         true,
	TypeZipCode:      true,
	TypeCurrency:     true,
	TypeAPIKey:       true,
	TypePassword:     true,
	TypeSecret:       true,
	TypeInsuranceID:  true,
	TypePolicyNumber: true,
}

// KnownType reports whether t is a member of the closed entity-type set.
func KnownType(t Type) bool {
	return knownTypes[t]
}

// ParseType resolves a string to a known entity type.
func ParseType(s string) (Type, bool) {
	t := Type(s)
	return t, knownTypes[t]
}

// AllTypes returns the closed type set in a stable order.
func AllTypes() []Type {
	out := make([]Type, 0, len(knownTypes))
	for t := range knownTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SourceMethod names the detection method that produced a candidate.
type SourceMethod string

const (
	SourcePattern    SourceMethod = "pattern"
	SourceContext    SourceMethod = "context"
	SourceNLP        SourceMethod = "nlp"
	SourceMLEnsemble SourceMethod = "ml_ensemble"
	SourceLLM        SourceMethod = "llm"
)

// methodPriority ranks sources for tie-breaking during consolidation.
// Higher wins.
var methodPriority = map[SourceMethod]int{
	SourceLLM:        5,
	SourceMLEnsemble: 4,
	SourceContext:    3,
	SourceNLP:        2,
	SourcePattern:    1,
}

// Priority returns the consolidation rank of m; unknown methods rank lowest.
func (m SourceMethod) Priority() int {
	return methodPriority[m]
}

// KnownMethod reports whether m is one of the five detection methods.
func KnownMethod(m SourceMethod) bool {
	_, ok := methodPriority[m]
	return ok
}

// ParseMethod resolves a string to a known source method.
func ParseMethod(s string) (SourceMethod, bool) {
	m := SourceMethod(s)
	return m, KnownMethod(m)
}

// Candidate is a single detection produced by one method. Spans are
// half-open [StartChar, EndChar) character offsets into the scanned text.
type Candidate struct {
	Type          Type         `json:"entity_type"`
	Text          string       `json:"entity_text"`
	StartChar     int          `json:"start_char"`
	EndChar       int          `json:"end_char"`
	PageNumber    *int         `json:"page_number,omitempty"`
	LineNumber    *int         `json:"line_number,omitempty"`
	Confidence    float64      `json:"confidence"`
	Source        SourceMethod `json:"source_method"`
	ContextBefore string       `json:"context_before,omitempty"`
	ContextAfter  string       `json:"context_after,omitempty"`
}

// Validate checks the structural invariants every candidate must satisfy
// before it may enter consolidation. textLen is the length of the scanned
// text in characters.
func (c Candidate) Validate(textLen int) error {
	if !knownTypes[c.Type] {
		return fmt.Errorf("unknown entity type %q", c.Type)
	}
	if !KnownMethod(c.Source) {
		return fmt.Errorf("unknown source method %q", c.Source)
	}
	if c.StartChar < 0 || c.EndChar <= c.StartChar || c.EndChar > textLen {
		return fmt.Errorf("span [%d,%d) out of bounds for text of length %d",
			c.StartChar, c.EndChar, textLen)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %g outside [0,1]", c.Confidence)
	}
	return nil
}

// Overlaps reports whether the half-open spans of c and o intersect.
func (c Candidate) Overlaps(o Candidate) bool {
	return c.StartChar < o.EndChar && o.StartChar < c.EndChar
}

// RedactionMethod selects how a finalized redaction is applied to text.
type RedactionMethod string

const (
	RedactBlackBox RedactionMethod = "black_box"
	RedactCustom   RedactionMethod = "custom_replacement"
)

// Redaction is one entry of the finalized redaction plan.
type Redaction struct {
	ID                int             `json:"id"`
	Type              Type            `json:"entity_type"`
	Text              string          `json:"entity_text"`
	StartChar         int             `json:"start_char"`
	EndChar           int             `json:"end_char"`
	PageNumber        *int            `json:"page_number,omitempty"`
	LineNumber        *int            `json:"line_number,omitempty"`
	Confidence        float64         `json:"confidence"`
	Source            SourceMethod    `json:"source_method"`
	IsRedacted        bool            `json:"is_redacted"`
	Method            RedactionMethod `json:"redaction_method"`
	CustomReplacement string          `json:"custom_replacement,omitempty"`
	ContextBefore     string          `json:"context_before,omitempty"`
	ContextAfter      string          `json:"context_after,omitempty"`
}
