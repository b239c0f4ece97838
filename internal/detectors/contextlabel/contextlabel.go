// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package contextlabel implements the context detection method: entities
// announced by a label prefix ("SSN:", "Contact:", "Card number:"). The
// label is strong evidence, so candidates start at a high baseline and
// only checksum-style validators can pull them down.
package contextlabel

import (
	"context"
	"regexp"

	"autoredact/internal/detectors"
	"autoredact/internal/entity"
	"autoredact/internal/validators"
)

// labelRule pairs a labeled expression with the baseline confidence its
// matches carry. Group 1 of every expression captures the entity value.
type labelRule struct {
	typ      entity.Type
	source   string
	baseline float64
}

var labelRules = []labelRule{
	{entity.TypePerson, `(?:Name|Contact|Manager|Employee|Attendee|Director|CEO):\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`, 0.95},
	{entity.TypeEmail, `(?i)\b(?:work\s+|contact\s+)?e-?mail:?\s*([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`, 0.95},
	{entity.TypePhone, `(?i)\b(?:phone|mobile|cell|tel|telephone|fax):?\s*(\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`, 0.95},
	{entity.TypeSSN, `(?i)\b(?:ssn|social\s+security(?:\s+number)?|tax\s+id):?\s*(\d{3}[-\s]?\d{2}[-\s]?\d{4})`, 0.95},
	{entity.TypeCreditCard, `(?i)(?:credit\s+card|card\s+number|payment\s+card):?\s*(\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4})`, 0.95},
	{entity.TypeBankAccount, `(?i)(?:bank\s+account|account\s+number|account\s+no\.?|routing\s+number|iban):?\s*([A-Z]{0,2}\d[\d\s-]{5,28}\d)`, 0.93},
	{entity.TypeAPIKey, `(?i)(?:api\s+key|access\s+key|secret\s+key):?\s*([A-Za-z0-9_-]{16,})`, 0.93},
	{entity.TypePassword, `(?i)(?:password|passphrase):?\s+(\S{4,})`, 0.92},
	{entity.TypeInsuranceID, `(?i)(?:member\s+id|patient\s+id|insurance\s+id|subscriber\s+id):?\s*([A-Z0-9][A-Z0-9-]{4,19})`, 0.93},
	{entity.TypePolicyNumber, `(?i)policy\s+(?:number|no\.?|#):?\s*([A-Z0-9-]{5,20})`, 0.93},
}

// Detector is the label-prefix context analyzer.
type Detector struct {
	rules []compiledRule
}

type compiledRule struct {
	typ      entity.Type
	re       *regexp.Regexp
	baseline float64
}

// New compiles the label rules; a malformed rule is a fatal
// configuration error.
func New() (*Detector, error) {
	rules := make([]compiledRule, 0, len(labelRules))
	for _, r := range labelRules {
		re, err := regexp.Compile(r.source)
		if err != nil {
			return nil, detectors.NewConfigurationError("context", "label rule for %s: %v", r.typ, err)
		}
		rules = append(rules, compiledRule{typ: r.typ, re: re, baseline: r.baseline})
	}
	return &Detector{rules: rules}, nil
}

// Method implements detectors.Detector.
func (d *Detector) Method() entity.SourceMethod {
	return entity.SourceContext
}

// Detect finds labeled values. Confidence is the rule baseline unless a
// checksum validator structurally rejects the value, in which case the
// validator's low score wins: a label cannot rescue a number that fails
// its checksum.
func (d *Detector) Detect(ctx context.Context, text string) ([]entity.Candidate, error) {
	var out []entity.Candidate
	for _, rule := range d.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, m := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			// Group 1 is the value span.
			start, end := m[2], m[3]
			if start < 0 || end <= start {
				continue
			}
			value := text[start:end]
			confidence := rule.baseline
			switch rule.typ {
			case entity.TypeCreditCard, entity.TypeSSN, entity.TypeEmail, entity.TypeIPAddress:
				if v := validators.Score(rule.typ, value); v < 0.5 {
					confidence = v
				}
			}
			if confidence == 0 {
				continue
			}
			out = append(out, entity.Candidate{
				Type:       rule.typ,
				Text:       value,
				StartChar:  start,
				EndChar:    end,
				Confidence: confidence,
				Source:     entity.SourceContext,
			})
		}
	}
	return out, nil
}
