// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package validators holds the pure, total validation scorers used by the
// pattern and context detection methods. Each scorer maps a matched text
// to a confidence in [0,1] and never returns an error: implausible input
// scores low instead of failing.
package validators

import (
	"math"
	"net"
	"regexp"
	"strings"
	"unicode"

	"autoredact/internal/entity"
)

// Score returns the validation confidence for text claimed to be of the
// given entity type. Types without a dedicated scorer get the generic
// pattern-match confidence.
func Score(t entity.Type, text string) float64 {
	switch t {
	case entity.TypeCreditCard:
		return ScoreCreditCard(text)
	case entity.TypeSSN:
		return ScoreSSN(text)
	case entity.TypeEmail:
		return ScoreEmail(text)
	case entity.TypePhone:
		return ScorePhone(text)
	case entity.TypeIPAddress:
		return ScoreIPAddress(text)
	case entity.TypeAPIKey:
		return ScoreAPIKey(text)
	case entity.TypePassword, entity.TypeSecret:
		return 0.75
	default:
		return 0.85
	}
}

// ScoreCreditCard validates a candidate card number with the Luhn
// checksum. Valid numbers score 0.97, invalid ones 0.30.
func ScoreCreditCard(text string) float64 {
	digits := digitsOnly(text)
	if len(digits) < 13 || len(digits) > 19 {
		return 0.30
	}
	if !LuhnValid(digits) {
		return 0.30
	}
	return 0.97
}

// LuhnValid reports whether digits (numeric characters only) pass the
// Luhn checksum.
func LuhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ScoreSSN validates the structure of a social security number. Numbers
// with a zero group, zero serial, or an unissued area (000, 666,
// 900-999) score 0.20; structurally valid numbers score in [0.90, 0.99]
// by plausibility.
func ScoreSSN(text string) float64 {
	digits := digitsOnly(text)
	if len(digits) != 9 {
		return 0.20
	}
	area, group, serial := digits[0:3], digits[3:5], digits[5:9]
	if area == "000" || area == "666" || area[0] == '9' {
		return 0.20
	}
	if group == "00" || serial == "0000" {
		return 0.20
	}
	score := 0.99
	if allSameDigit(digits) {
		score = 0.90
	} else if isSequentialDigits(digits) {
		score = 0.90
	}
	return score
}

// ScoreEmail checks address shape beyond the generating regex: exactly
// one @, non-empty local part, dotted domain with a 2+ letter TLD.
func ScoreEmail(text string) float64 {
	at := strings.Count(text, "@")
	if at != 1 {
		return 0
	}
	parts := strings.SplitN(text, "@", 2)
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" {
		return 0
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return 0.40
	}
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return 0
	}
	tld := domain[dot+1:]
	if len(tld) < 2 || !allLetters(tld) {
		return 0.40
	}
	return 0.95
}

// ScorePhone validates digit count for NANP-style numbers: 10 digits
// (or 11 with a leading 1) score 0.90, other plausible lengths 0.85,
// anything shorter or longer 0.20.
func ScorePhone(text string) float64 {
	digits := digitsOnly(text)
	switch {
	case len(digits) == 10:
		return 0.90
	case len(digits) == 11 && digits[0] == '1':
		return 0.90
	case len(digits) >= 7 && len(digits) <= 15:
		return 0.85
	default:
		return 0.20
	}
}

// ScoreIPAddress relies on net.ParseIP for dotted-quad validation.
func ScoreIPAddress(text string) float64 {
	if net.ParseIP(text) == nil {
		return 0
	}
	return 0.90
}

// ScoreAPIKey gates key-shaped strings on Shannon entropy: real keys
// are high-entropy, dictionary-word lookalikes are not.
func ScoreAPIKey(text string) float64 {
	body := text
	if i := strings.IndexAny(text, ":="); i >= 0 {
		body = strings.TrimSpace(text[i+1:])
	}
	if ShannonEntropy(body) >= 3.2 {
		return 0.90
	}
	return 0.50
}

// ShannonEntropy returns the per-character entropy of s in bits.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}
	entropy := 0.0
	for _, n := range freq {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

var digitRe = regexp.MustCompile(`\d`)

func digitsOnly(s string) string {
	return strings.Join(digitRe.FindAllString(s, -1), "")
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// isSequentialDigits reports whether every digit is exactly one more
// (mod 10) than the previous, e.g. 123456789.
func isSequentialDigits(s string) bool {
	if len(s) < 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		prev := int(s[i-1] - '0')
		cur := int(s[i] - '0')
		if cur != (prev+1)%10 {
			return false
		}
	}
	return true
}

func allLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
