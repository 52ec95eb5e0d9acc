// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package metadata scans the source image's EXIF block for embedded PII:
// author names, GPS coordinates, capture timestamps. These never map to
// pixels, so every entity carries a degenerate box.
package metadata

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"redact-scan/internal/detector"
	"redact-scan/internal/geometry"
	"redact-scan/internal/observability"
	"redact-scan/internal/ocr"
)

// Validator reads EXIF metadata from the image a document was scanned
// from. A missing file or an image without EXIF degrades to zero
// entities, never an error.
type Validator struct {
	imagePath string
	observer  *observability.StandardObserver
}

// NewValidator creates a metadata validator for the given source image.
// An empty path disables the validator.
func NewValidator(imagePath string) *Validator {
	return &Validator{imagePath: imagePath}
}

// SetObserver sets the observability component.
func (v *Validator) SetObserver(observer *observability.StandardObserver) {
	v.observer = observer
}

// Name implements detector.Source.
func (v *Validator) Name() string {
	return "metadata"
}

// Detect implements detector.Source. The document itself is unused; the
// signal comes from the image file named at construction.
func (v *Validator) Detect(ctx context.Context, doc *ocr.Document) ([]detector.Entity, error) {
	if v.imagePath == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var finishTiming func(bool, map[string]interface{})
	if v.observer != nil {
		finishTiming = v.observer.StartTiming("metadata_validator", "detect", v.imagePath)
	}

	fields, err := readExifFields(v.imagePath)
	if err != nil {
		// No file or no EXIF block: nothing to report.
		if v.observer != nil && v.observer.DebugObserver != nil {
			v.observer.DebugObserver.LogDetail("metadata_validator",
				fmt.Sprintf("no EXIF data from %s: %v", v.imagePath, err))
		}
		if finishTiming != nil {
			finishTiming(true, map[string]interface{}{"match_count": 0})
		}
		return nil, nil
	}

	entities := v.buildEntities(fields)
	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{"match_count": len(entities)})
	}
	return entities, nil
}

// exifFields is the subset of EXIF content the validator cares about.
type exifFields struct {
	artist    string
	copyright string
	taken     string
	hasGPS    bool
	latitude  float64
	longitude float64
}

func readExifFields(path string) (exifFields, error) {
	f, err := os.Open(path)
	if err != nil {
		return exifFields{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return exifFields{}, err
	}

	var fields exifFields
	if tag, err := x.Get(exif.Artist); err == nil {
		fields.artist, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Copyright); err == nil {
		fields.copyright, _ = tag.StringVal()
	}
	if t, err := x.DateTime(); err == nil {
		fields.taken = t.Format("2006-01-02 15:04:05")
	}
	if lat, long, err := x.LatLong(); err == nil {
		fields.hasGPS = true
		fields.latitude = lat
		fields.longitude = long
	}
	return fields, nil
}

// buildEntities converts the extracted fields into layer-2 entities with
// degenerate boxes.
func (v *Validator) buildEntities(fields exifFields) []detector.Entity {
	var entities []detector.Entity

	emit := func(t detector.PIIType, value string, confidence float64, field string) {
		entity := detector.NewEntity(t, value, confidence, geometry.Box{}, detector.LayerHeuristic, v.Name())
		entity.Metadata = map[string]any{
			"origin":     "exif",
			"exif_field": field,
		}
		entities = append(entities, entity)
	}

	if artist := strings.TrimSpace(fields.artist); artist != "" {
		emit(detector.TypeName, artist, 0.70, "artist")
	}
	if owner := strings.TrimSpace(fields.copyright); owner != "" {
		emit(detector.TypeSensitive, owner, 0.60, "copyright")
	}
	if fields.hasGPS {
		value := fmt.Sprintf("%.6f,%.6f", fields.latitude, fields.longitude)
		emit(detector.TypeAddress, value, 0.90, "gps")
	}
	if fields.taken != "" {
		emit(detector.TypeSensitive, fields.taken, 0.60, "datetime")
	}

	return entities
}
