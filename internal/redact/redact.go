// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package redact applies a finalized redaction plan to text.
package redact

import (
	"fmt"
	"sort"
	"strings"

	"autoredact/internal/entity"
)

// Apply substitutes every redaction span in text. Spans are replaced
// back to front so earlier offsets stay valid; the plan's no-overlap
// guarantee makes the result independent of plan order.
func Apply(text string, plan []entity.Redaction) string {
	ordered := make([]entity.Redaction, len(plan))
	copy(ordered, plan)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartChar > ordered[j].StartChar })

	var b strings.Builder
	out := text
	for _, r := range ordered {
		if r.StartChar < 0 || r.EndChar > len(out) || r.StartChar >= r.EndChar {
			continue
		}
		b.Reset()
		b.WriteString(out[:r.StartChar])
		b.WriteString(Placeholder(r))
		b.WriteString(out[r.EndChar:])
		out = b.String()
	}
	return out
}

// Placeholder returns the replacement text for one redaction.
func Placeholder(r entity.Redaction) string {
	if r.Method == entity.RedactCustom && r.CustomReplacement != "" {
		return r.CustomReplacement
	}
	return fmt.Sprintf("[REDACTED %s]", r.Type)
}
