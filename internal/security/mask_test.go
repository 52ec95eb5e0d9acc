// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

import (
	"strings"
	"testing"
)

func TestMaskValue_KeepsLastFour(t *testing.T) {
	if got := MaskValue("ABCPE1234F"); got != "******234F" {
		t.Errorf("expected ******234F, got %q", got)
	}
}

func TestMaskValue_PreservesSeparators(t *testing.T) {
	if got := MaskValue("4111 1111 1111 1111"); got != "**** **** **** 1111" {
		t.Errorf("expected **** **** **** 1111, got %q", got)
	}
	if got := MaskValue("2345 6789 0124"); got != "**** **** 0124" {
		t.Errorf("expected **** **** 0124, got %q", got)
	}
}

func TestMaskValue_ShortValues(t *testing.T) {
	if got := MaskValue("abc"); got != "***" {
		t.Errorf("expected ***, got %q", got)
	}
	if got := MaskValue("1234"); got != "****" {
		t.Errorf("expected ****, got %q", got)
	}
	if got := MaskValue(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestMaskValue_CountsRunesNotBytes(t *testing.T) {
	// Devanagari text must not be split mid-rune.
	got := MaskValue("राहुल")
	if strings.ContainsRune(got, '�') {
		t.Errorf("mask broke a multi-byte rune: %q", got)
	}
	if len([]rune(got)) != len([]rune("राहुल")) {
		t.Errorf("mask changed the rune count: %q", got)
	}
}

func TestMaskAll_HidesEverything(t *testing.T) {
	if got := MaskAll("Rahul Sharma"); got != "************" {
		t.Errorf("expected twelve stars, got %q", got)
	}
	if got := MaskAll(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestMaskAll_CapsLength(t *testing.T) {
	long := "41 Nehru Street, Koramangala, Bengaluru 560034"
	got := MaskAll(long)
	if len(got) != maskAllWidth {
		t.Errorf("expected %d stars for a long value, got %d", maskAllWidth, len(got))
	}
}
