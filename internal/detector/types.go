// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "strings"

// PIIType is the closed set of entity categories the pipeline emits.
type PIIType string

const (
	TypeName           PIIType = "NAME"
	TypePhone          PIIType = "PHONE"
	TypeEmail          PIIType = "EMAIL"
	TypeAddress        PIIType = "ADDRESS"
	TypeAadhaar        PIIType = "AADHAAR"
	TypePAN            PIIType = "PAN"
	TypePassport       PIIType = "PASSPORT"
	TypeVoterID        PIIType = "VOTER_ID"
	TypeDrivingLicence PIIType = "DRIVING_LICENCE"
	TypeAccountNumber  PIIType = "ACCOUNT_NUMBER"
	TypeCardNumber     PIIType = "CARD_NUMBER"
	TypeIFSC           PIIType = "IFSC"
	TypeGSTIN          PIIType = "GSTIN"
	TypeDOB            PIIType = "DOB"
	TypeMedical        PIIType = "MEDICAL"

	// TypeSensitive is the generic category for spans an external model
	// flags without a mappable class.
	TypeSensitive PIIType = "SENSITIVE"
)

// AllTypes lists every category in declaration order, for CLI help and
// config validation.
func AllTypes() []PIIType {
	return []PIIType{
		TypeName, TypePhone, TypeEmail, TypeAddress, TypeAadhaar, TypePAN,
		TypePassport, TypeVoterID, TypeDrivingLicence, TypeAccountNumber,
		TypeCardNumber, TypeIFSC, TypeGSTIN, TypeDOB, TypeMedical,
		TypeSensitive,
	}
}

// ParsePIIType resolves a case-insensitive category name. ok is false for
// anything outside the closed set.
func ParsePIIType(s string) (PIIType, bool) {
	candidate := PIIType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range AllTypes() {
		if t == candidate {
			return t, true
		}
	}
	return "", false
}

// Layer identifies which detection stage produced an entity. The numeric
// order is the trust order: higher layers win deduplication ties.
type Layer int

const (
	// LayerDeterministic is pattern plus checksum validation.
	LayerDeterministic Layer = 0
	// LayerEnhanced is pattern plus mandatory context keywords.
	LayerEnhanced Layer = 1
	// LayerHeuristic is dictionary and shape heuristics.
	LayerHeuristic Layer = 2
	// LayerSpatial is key-value extraction from page layout.
	LayerSpatial Layer = 3
	// LayerAI is the external model contribution.
	LayerAI Layer = 4
)

var layerNames = map[Layer]string{
	LayerDeterministic: "deterministic",
	LayerEnhanced:      "enhanced",
	LayerHeuristic:     "heuristic",
	LayerSpatial:       "spatial",
	LayerAI:            "ai",
}

func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON emits the layer name instead of the bare number so output
// stays readable without a decoder table.
func (l Layer) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}
