// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fusion

import "redact-scan/internal/detector"

// Stats is a pure side artifact of a fusion run. It never feeds back
// into the algorithm.
type Stats struct {
	Input          int `json:"input"`
	Output         int `json:"output"`
	Suppressed     int `json:"suppressed"`
	BelowThreshold int `json:"below_threshold"`

	// ByLayer and ByBand count the final output. Bands: high >= 0.9,
	// medium >= 0.7, low below.
	ByLayer map[string]int `json:"by_layer"`
	ByBand  map[string]int `json:"by_band"`
}

func (s *Stats) countLayersAndBands(entities []detector.Entity) {
	s.ByLayer = make(map[string]int)
	s.ByBand = make(map[string]int)
	for _, e := range entities {
		s.ByLayer[e.Layer.String()]++
		s.ByBand[bandOf(e.Confidence)]++
	}
}

// Band names the confidence band a score falls in: high, medium, or
// low. Display code uses it so reports and stats agree on the cutoffs.
func Band(confidence float64) string {
	return bandOf(confidence)
}

func bandOf(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "high"
	case confidence >= 0.7:
		return "medium"
	default:
		return "low"
	}
}
