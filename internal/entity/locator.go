// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package entity

import "sort"

// OffsetMark records that the character at CharIndex begins the given
// page and line of the source document. Marks come from the text
// extraction layer; the engine only reads them.
type OffsetMark struct {
	CharIndex int
	Page      int
	Line      int
}

// Locator translates character offsets back to page and line numbers
// using a sorted set of offset marks.
type Locator struct {
	marks []OffsetMark
}

// NewLocator builds a locator from extraction marks. The input need not be
// sorted and may be empty, in which case Locate always returns nils.
func NewLocator(marks []OffsetMark) *Locator {
	sorted := make([]OffsetMark, len(marks))
	copy(sorted, marks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CharIndex < sorted[j].CharIndex })
	return &Locator{marks: sorted}
}

// Locate returns the page and line containing the character at charIndex,
// or nils when no mark covers it.
func (l *Locator) Locate(charIndex int) (page, line *int) {
	if l == nil || len(l.marks) == 0 || charIndex < l.marks[0].CharIndex {
		return nil, nil
	}
	// Last mark at or before charIndex.
	i := sort.Search(len(l.marks), func(i int) bool { return l.marks[i].CharIndex > charIndex }) - 1
	p, ln := l.marks[i].Page, l.marks[i].Line
	return &p, &ln
}
