// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mlensemble

import (
	"hash/fnv"
	"strings"
	"unicode"

	"autoredact/internal/detectors/pattern"
	"autoredact/internal/entity"
	"autoredact/internal/models"
	"autoredact/internal/validators"
)

// Feature vector layout, fixed at models.FeatureDim entries:
//
//	0      text length (capped at 1000, scaled)
//	1      word count (capped at 100, scaled)
//	2      unique-word ratio
//	3      mean word length (capped at 10, scaled)
//	4-8    digit / letter / punctuation / uppercase / whitespace ratios
//	9      shannon entropy (scaled by 8 bits)
//	10-23  per-type pattern hit counts (capped at 5, scaled)
//	24-25  lexicon sentiment polarity and subjectivity
//	26-35  hashed term-frequency buckets
//	36-49  reserved, zero
const (
	featTextLen     = 0
	featWordCount   = 1
	featUniqueRatio = 2
	featMeanWordLen = 3
	featDigitRatio  = 4
	featLetterRatio = 5
	featPunctRatio  = 6
	featUpperRatio  = 7
	featSpaceRatio  = 8
	featEntropy     = 9
	featPatternBase = 10
	featPolarity    = 24
	featSubjective  = 25
	featHashBase    = 26
	hashBuckets     = 10
)

// patternFeatureOrder fixes which feature slot each type's hit count
// occupies. Order must stay stable across training and inference.
var patternFeatureOrder = []entity.Type{
	entity.TypeEmail, entity.TypePhone, entity.TypeSSN, entity.TypeCreditCard,
	entity.TypeIPAddress, entity.TypeURL, entity.TypeDate, entity.TypeZipCode,
	entity.TypeCurrency, entity.TypeAPIKey, entity.TypePassword, entity.TypeSecret,
	entity.TypeInsuranceID, entity.TypePolicyNumber,
}

var positiveWords = map[string]bool{
	"good": true, "great": true, "happy": true, "excellent": true,
	"thanks": true, "thank": true, "please": true, "best": true,
}

var negativeWords = map[string]bool{
	"bad": true, "urgent": true, "problem": true, "angry": true,
	"terrible": true, "wrong": true, "fail": true, "failed": true,
}

var subjectiveWords = map[string]bool{
	"think": true, "feel": true, "believe": true, "maybe": true,
	"probably": true, "seems": true, "should": true, "could": true,
}

// Features maps a text window onto the fixed-length vector the
// ensemble classifiers were trained on. It is deterministic and total.
func Features(text string) []float32 {
	f := make([]float32, models.FeatureDim)
	if text == "" {
		return f
	}

	runes := []rune(text)
	total := float32(len(runes))

	f[featTextLen] = capScale(float32(len(text)), 1000)
	words := strings.Fields(strings.ToLower(text))
	f[featWordCount] = capScale(float32(len(words)), 100)

	if len(words) > 0 {
		unique := make(map[string]bool, len(words))
		var lenSum int
		for _, w := range words {
			unique[w] = true
			lenSum += len(w)
		}
		f[featUniqueRatio] = float32(len(unique)) / float32(len(words))
		f[featMeanWordLen] = capScale(float32(lenSum)/float32(len(words)), 10)
	}

	var digits, letters, punct, upper, space float32
	for _, r := range runes {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		case unicode.IsSpace(r):
			space++
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			punct++
		}
	}
	f[featDigitRatio] = digits / total
	f[featLetterRatio] = letters / total
	f[featPunctRatio] = punct / total
	if letters > 0 {
		f[featUpperRatio] = upper / letters
	}
	f[featSpaceRatio] = space / total
	f[featEntropy] = float32(validators.ShannonEntropy(text)) / 8

	if table, err := pattern.CompiledTable(); err == nil {
		for i, typ := range patternFeatureOrder {
			hits := table[typ].FindAllStringIndex(text, -1)
			f[featPatternBase+i] = capScale(float32(len(hits)), 5)
		}
	}

	var pos, neg, subj float32
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'")
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
		if subjectiveWords[w] {
			subj++
		}
	}
	if pos+neg > 0 {
		f[featPolarity] = (pos - neg) / (pos + neg)
	}
	if len(words) > 0 {
		f[featSubjective] = subj / float32(len(words))
	}

	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		f[featHashBase+int(h.Sum32()%hashBuckets)]++
	}
	if len(words) > 0 {
		for i := 0; i < hashBuckets; i++ {
			f[featHashBase+i] /= float32(len(words))
		}
	}

	return f
}

func capScale(v, max float32) float32 {
	if v > max {
		return 1
	}
	return v / max
}
