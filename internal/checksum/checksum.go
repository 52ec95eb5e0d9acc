// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package checksum implements the pure digit-sequence algorithms behind
// the structured identifier detectors. Everything here is a function of
// its input alone: no I/O, no state, no side effects.
package checksum

import "strings"

// Verhoeff dihedral-group multiplication table.
var verhoeffD = [10][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
	{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
	{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
	{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
	{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
	{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
	{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
	{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
	{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
}

// Verhoeff permutation table, indexed by position mod 8.
var verhoeffP = [8][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
	{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
	{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
	{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
	{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
	{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
	{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
}

// CleanNumber strips the separators OCR output carries inside grouped
// identifiers (spaces and dashes).
func CleanNumber(number string) string {
	return strings.ReplaceAll(strings.ReplaceAll(number, " ", ""), "-", "")
}

// Verhoeff reports whether the digit string passes the Verhoeff check.
// The check digit is the last digit; digits are processed least-significant
// first with the position-mod-8 permutation row, and the number is valid
// iff the accumulator returns to 0. Any non-digit input fails.
func Verhoeff(number string) bool {
	if number == "" {
		return false
	}

	c := 0
	pos := 0
	for i := len(number) - 1; i >= 0; i-- {
		ch := number[i]
		if ch < '0' || ch > '9' {
			return false
		}
		c = verhoeffD[c][verhoeffP[pos%8][ch-'0']]
		pos++
	}
	return c == 0
}

// Luhn reports whether the digit string passes the Luhn check: double
// every second digit from the right, subtract 9 when the double exceeds 9,
// and require the sum to be divisible by 10. Any non-digit input fails.
func Luhn(number string) bool {
	if number == "" {
		return false
	}

	sum := 0
	isDouble := false
	for i := len(number) - 1; i >= 0; i-- {
		ch := number[i]
		if ch < '0' || ch > '9' {
			return false
		}
		digit := int(ch - '0')
		if isDouble {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		isDouble = !isDouble
	}
	return sum%10 == 0
}

// panHolderClasses maps the fourth PAN character to the holder category
// the issuing authority encodes there.
var panHolderClasses = map[byte]string{
	'P': "individual",
	'C': "company",
	'H': "hindu_undivided_family",
	'A': "association_of_persons",
	'B': "body_of_individuals",
	'G': "government",
	'J': "artificial_juridical_person",
	'L': "local_authority",
	'F': "firm",
	'T': "trust",
}

// PANHolderClass returns the holder category encoded in the fourth
// character of a PAN. ok is false for characters outside the issued set.
func PANHolderClass(c byte) (string, bool) {
	class, ok := panHolderClasses[c]
	return class, ok
}

// ValidPAN reports whether the value is a structurally valid PAN: five
// uppercase letters, four digits, one uppercase letter, with the fourth
// character drawn from the issued holder-type set.
func ValidPAN(value string) bool {
	if len(value) != 10 {
		return false
	}
	for i := 0; i < 5; i++ {
		if value[i] < 'A' || value[i] > 'Z' {
			return false
		}
	}
	for i := 5; i < 9; i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	if value[9] < 'A' || value[9] > 'Z' {
		return false
	}
	_, ok := PANHolderClass(value[3])
	return ok
}
