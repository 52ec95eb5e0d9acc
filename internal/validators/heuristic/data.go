// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package heuristic

import (
	_ "embed"
	"strings"
	"sync"
)

// Embedded dictionary files. Lines starting with # are comments.
//
//go:embed data/first_names.txt
var firstNamesData string

//go:embed data/last_names.txt
var lastNamesData string

//go:embed data/medical_terms.txt
var medicalTermsData string

//go:embed data/address_keywords.txt
var addressKeywordsData string

//go:embed data/regions.txt
var regionsData string

// dictionaries holds the parsed word lists for O(1) lookups. Keys are
// lowercase; multi-word phrases are stored space-joined.
type dictionaries struct {
	firstNames   map[string]bool
	lastNames    map[string]bool
	medicalTerms map[string]bool
	addressWords map[string]bool
	regions      map[string]bool
}

var (
	loadedDicts *dictionaries
	loadOnce    sync.Once
)

// loadDictionaries parses the embedded lists exactly once. The maps are
// never mutated after load, so concurrent readers need no locking.
func loadDictionaries() *dictionaries {
	loadOnce.Do(func() {
		loadedDicts = &dictionaries{
			firstNames:   parseList(firstNamesData),
			lastNames:    parseList(lastNamesData),
			medicalTerms: parseList(medicalTermsData),
			addressWords: parseList(addressKeywordsData),
			regions:      parseList(regionsData),
		}
	})
	return loadedDicts
}

// parseList loads one entry per line into a lookup map, lowercased,
// skipping blanks and comments.
func parseList(data string) map[string]bool {
	entries := make(map[string]bool)
	for _, line := range strings.Split(data, "\n") {
		entry := strings.ToLower(strings.TrimSpace(line))
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		entries[entry] = true
	}
	return entries
}

// DictionaryStats reports the loaded entry counts, for diagnostics.
func DictionaryStats() map[string]interface{} {
	d := loadDictionaries()
	return map[string]interface{}{
		"first_names":      len(d.firstNames),
		"last_names":       len(d.lastNames),
		"medical_terms":    len(d.medicalTerms),
		"address_keywords": len(d.addressWords),
		"regions":          len(d.regions),
	}
}
