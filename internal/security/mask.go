// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package security holds the display-side protection for detected
// values. Findings leave the pipeline with their raw text attached;
// everything that prints them goes through these helpers unless the
// caller explicitly asked to see matches.
package security

import (
	"strings"
	"unicode"
)

// maskAllWidth caps the fully-masked rendering so long addresses do not
// betray their length.
const maskAllWidth = 12

// MaskValue hides a detected value, keeping its last four characters so
// a reader can still tell two findings apart ("card ending 1111").
// Separators survive, so the shape of a card number or an email stays
// recognizable. Values of four characters or fewer are starred out
// entirely.
func MaskValue(value string) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}

	keep := len(runes) - 4
	masked := make([]rune, len(runes))
	for i, r := range runes {
		switch {
		case i >= keep:
			masked[i] = r
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			masked[i] = '*'
		default:
			masked[i] = r
		}
	}
	return string(masked)
}

// MaskAll blanks a value completely. Free-text categories such as names
// and addresses get this treatment: even a four-character suffix can
// identify a person.
func MaskAll(value string) string {
	n := len([]rune(value))
	if n > maskAllWidth {
		n = maskAllWidth
	}
	return strings.Repeat("*", n)
}
