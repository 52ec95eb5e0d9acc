// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ai

import (
	"testing"

	"redact-scan/internal/detector"
)

func TestMapCategory(t *testing.T) {
	tests := []struct {
		in   string
		want detector.PIIType
	}{
		{"NAME", detector.TypeName},
		{"person", detector.TypeName},
		{"Full Name", detector.TypeName},
		{"PHONE_NUMBER", detector.TypePhone},
		{"mobile number", detector.TypePhone},
		{"Email Address", detector.TypeEmail},
		{"aadhaar", detector.TypeAadhaar},
		{"Aadhar Number", detector.TypeAadhaar},
		{"uid", detector.TypeAadhaar},
		{"PAN", detector.TypePAN},
		{"permanent account number", detector.TypePAN},
		{"passport_number", detector.TypePassport},
		{"EPIC", detector.TypeVoterID},
		{"driving license", detector.TypeDrivingLicence},
		{"DRIVING_LICENCE", detector.TypeDrivingLicence},
		{"bank account number", detector.TypeAccountNumber},
		{"Credit Card", detector.TypeCardNumber},
		{"ifsc code", detector.TypeIFSC},
		{"GST", detector.TypeGSTIN},
		{"date-of-birth", detector.TypeDOB},
		{"diagnosis", detector.TypeMedical},
		{" gstin ", detector.TypeGSTIN},
	}
	for _, tt := range tests {
		if got := MapCategory(tt.in); got != tt.want {
			t.Errorf("MapCategory(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMapCategory_UnknownIsSensitive(t *testing.T) {
	for _, in := range []string{"RELIGION", "CASTE", "random words", ""} {
		if got := MapCategory(in); got != detector.TypeSensitive {
			t.Errorf("MapCategory(%q) = %s, want SENSITIVE", in, got)
		}
	}
}
