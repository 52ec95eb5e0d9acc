// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ai

import (
	"strings"

	"redact-scan/internal/detector"
)

// categoryTable maps the category spellings models actually produce onto
// the closed type set. Exact PIIType names resolve without an entry here.
var categoryTable = map[string]detector.PIIType{
	"PERSON":        detector.TypeName,
	"PERSON_NAME":   detector.TypeName,
	"FULL_NAME":     detector.TypeName,
	"CUSTOMER_NAME": detector.TypeName,

	"PHONE_NUMBER":   detector.TypePhone,
	"MOBILE":         detector.TypePhone,
	"MOBILE_NUMBER":  detector.TypePhone,
	"CONTACT_NUMBER": detector.TypePhone,
	"TELEPHONE":      detector.TypePhone,

	"EMAIL_ADDRESS": detector.TypeEmail,
	"EMAIL_ID":      detector.TypeEmail,

	"LOCATION":       detector.TypeAddress,
	"HOME_ADDRESS":   detector.TypeAddress,
	"POSTAL_ADDRESS": detector.TypeAddress,
	"PIN_CODE":       detector.TypeAddress,
	"PINCODE":        detector.TypeAddress,

	"AADHAAR_NUMBER": detector.TypeAadhaar,
	"AADHAR":         detector.TypeAadhaar,
	"AADHAR_NUMBER":  detector.TypeAadhaar,
	"UID":            detector.TypeAadhaar,

	"PAN_NUMBER":               detector.TypePAN,
	"PERMANENT_ACCOUNT_NUMBER": detector.TypePAN,

	"PASSPORT_NUMBER": detector.TypePassport,

	"VOTER":       detector.TypeVoterID,
	"VOTER_CARD":  detector.TypeVoterID,
	"EPIC":        detector.TypeVoterID,
	"EPIC_NUMBER": detector.TypeVoterID,

	"DRIVING_LICENSE": detector.TypeDrivingLicence,
	"DRIVER_LICENSE":  detector.TypeDrivingLicence,
	"DRIVERS_LICENSE": detector.TypeDrivingLicence,
	"DL_NUMBER":       detector.TypeDrivingLicence,
	"LICENCE_NUMBER":  detector.TypeDrivingLicence,

	"BANK_ACCOUNT":        detector.TypeAccountNumber,
	"BANK_ACCOUNT_NUMBER": detector.TypeAccountNumber,
	"ACCOUNT":             detector.TypeAccountNumber,

	"CREDIT_CARD":        detector.TypeCardNumber,
	"DEBIT_CARD":         detector.TypeCardNumber,
	"CREDIT_CARD_NUMBER": detector.TypeCardNumber,
	"CARD":               detector.TypeCardNumber,

	"IFSC_CODE": detector.TypeIFSC,

	"GST":          detector.TypeGSTIN,
	"GST_NUMBER":   detector.TypeGSTIN,
	"GSTIN_NUMBER": detector.TypeGSTIN,

	"DATE_OF_BIRTH": detector.TypeDOB,
	"BIRTH_DATE":    detector.TypeDOB,
	"BIRTHDATE":     detector.TypeDOB,

	"MEDICAL_CONDITION": detector.TypeMedical,
	"MEDICAL_RECORD":    detector.TypeMedical,
	"HEALTH":            detector.TypeMedical,
	"DIAGNOSIS":         detector.TypeMedical,
}

// MapCategory resolves a model-reported category onto the closed PIIType
// set. Unknown categories collapse to SENSITIVE rather than being dropped:
// the model saw something worth flagging even when we cannot name it.
func MapCategory(category string) detector.PIIType {
	key := strings.ToUpper(strings.TrimSpace(category))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	if t, ok := categoryTable[key]; ok {
		return t
	}
	if t, ok := detector.ParsePIIType(key); ok {
		return t
	}
	return detector.TypeSensitive
}
