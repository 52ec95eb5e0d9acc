// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"redact-scan/internal/detector"
	"redact-scan/internal/formatters"
	"redact-scan/internal/formatters/shared"
	"redact-scan/internal/fusion"
	"redact-scan/internal/pipeline"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"yellow":  color.New(color.FgYellow),
			"red":     color.New(color.FgRed),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"blue":    color.New(color.FgBlue),
			"white":   color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(result *pipeline.Result, options formatters.Options) (string, error) {
	// Disable colors if requested
	if options.NoColor {
		color.NoColor = true
	}

	var builder strings.Builder
	f.appendDocumentLine(&builder, result, options)

	if len(result.Entities) == 0 && len(result.Suppressed) == 0 {
		builder.WriteString("No findings.\n")
		return builder.String(), nil
	}

	// Sort a copy so the caller's reading order survives.
	findings := append([]detector.Entity(nil), result.Entities...)
	f.sortFindings(findings)

	if !options.Verbose {
		f.appendHeaders(&builder, findings, options)
	}

	for _, e := range findings {
		band := f.bandLabel(e.Confidence)
		if !options.Verbose {
			f.appendSummaryLine(&builder, e, band, findings, false, options)
			continue
		}
		f.appendDetailedFinding(&builder, e, band, options)
	}

	for _, s := range result.Suppressed {
		if !options.Verbose {
			f.appendSummaryLine(&builder, s.Entity, f.bandLabel(s.Entity.Confidence), findings, true, options)
			continue
		}
		f.appendDetailedSuppressed(&builder, s, options)
	}

	f.appendRunSummary(&builder, result, options)

	return builder.String(), nil
}

// appendDocumentLine writes the classification header.
func (f *Formatter) appendDocumentLine(builder *strings.Builder, result *pipeline.Result, options formatters.Options) {
	label := "Document"
	name := result.Source
	if name == "" {
		name = "(stream)"
	}
	line := fmt.Sprintf("%s: %s (%s, %.2f%%)\n", label, name,
		result.Classification.Type, result.Classification.Confidence*100)
	if !options.NoColor {
		line = f.colors["white"].Sprintf("%s: ", label) +
			fmt.Sprintf("%s ", name) +
			f.colors["cyan"].Sprintf("(%s, %.2f%%)\n",
				result.Classification.Type, result.Classification.Confidence*100)
	}
	builder.WriteString(line)
}

// appendHeaders adds column headers to the string builder
func (f *Formatter) appendHeaders(builder *strings.Builder, findings []detector.Entity, options formatters.Options) {
	valueWidth := f.calculateValueColumnWidth(findings, options)
	headerStr := fmt.Sprintf("%-8s %-12s %-20s %-8s %-16s %s\n",
		"LEVEL", "SOURCE", "TYPE", "CONF%", "POSITION", "VALUE")
	if !options.NoColor {
		headerStr = f.colors["white"].Sprintf("%-8s %-12s %-20s %-8s %-16s %s\n",
			"LEVEL", "SOURCE", "TYPE", "CONF%", "POSITION", "VALUE")
	}
	builder.WriteString(headerStr)

	totalWidth := 8 + 1 + 12 + 1 + 20 + 1 + 8 + 1 + 16 + 1 + valueWidth
	separator := strings.Repeat("-", totalWidth) + "\n"
	if !options.NoColor {
		separator = f.colors["white"].Sprint(strings.Repeat("-", totalWidth) + "\n")
	}
	builder.WriteString(separator)
}

// calculateValueColumnWidth calculates the optimal width for the value column
func (f *Formatter) calculateValueColumnWidth(findings []detector.Entity, options formatters.Options) int {
	maxWidth := 10
	for _, e := range findings {
		value := shared.DisplayValue(e, options.ShowValue)
		value = strings.ReplaceAll(value, "\n", " ")
		runeCount := len([]rune(value))
		if runeCount > maxWidth {
			maxWidth = runeCount
		}
	}
	// Cap at 30 characters for readability
	if maxWidth > 30 {
		maxWidth = 30
	}
	return maxWidth
}

// appendSummaryLine adds a single line summary to the string builder
func (f *Formatter) appendSummaryLine(builder *strings.Builder, e detector.Entity, band string, allFindings []detector.Entity, suppressed bool, options formatters.Options) {
	var levelColor *color.Color
	switch band {
	case "HIGH":
		levelColor = f.colors["red"]
	case "MEDIUM":
		levelColor = f.colors["yellow"]
	default:
		levelColor = f.colors["green"]
	}

	var levelStr string
	if suppressed {
		levelStr = fmt.Sprintf("[%-6s]", "SUPP")
		if !options.NoColor {
			levelStr = f.colors["white"].Sprintf("[%-6s]", "SUPP")
		}
	} else {
		levelStr = fmt.Sprintf("[%-6s]", band)
		if !options.NoColor {
			levelStr = levelColor.Sprintf("[%-6s]", band)
		}
	}

	sourceStr := fmt.Sprintf("%-12s", e.Source)
	if !options.NoColor {
		sourceStr = f.colors["green"].Sprintf("%-12s", e.Source)
	}

	typeDisplay := string(e.Type)
	if len(typeDisplay) > 20 {
		typeDisplay = typeDisplay[:17] + "..."
	}
	typeStr := fmt.Sprintf("%-20s", typeDisplay)
	if !options.NoColor {
		typeStr = f.colors["cyan"].Sprintf("%-20s", typeDisplay)
	}

	confidenceStr := fmt.Sprintf("%6.2f%%", e.Confidence*100)
	if !options.NoColor {
		confidenceStr = f.colors["blue"].Sprintf("%6.2f%%", e.Confidence*100)
	}

	positionStr := fmt.Sprintf("%-16s", f.positionLabel(e))
	if !options.NoColor {
		positionStr = f.colors["magenta"].Sprintf("%-16s", f.positionLabel(e))
	}

	value := shared.DisplayValue(e, options.ShowValue)
	value = strings.ReplaceAll(value, "\n", " ")
	targetWidth := f.calculateValueColumnWidth(allFindings, options)
	runes := []rune(value)
	if len(runes) > targetWidth {
		value = string(runes[:targetWidth-3]) + "..."
	}

	fmt.Fprintf(builder, "%s %s %s %s %s %s\n",
		levelStr,
		sourceStr,
		typeStr,
		confidenceStr,
		positionStr,
		value)
}

// appendDetailedFinding adds detailed finding information to the string builder
func (f *Formatter) appendDetailedFinding(builder *strings.Builder, e detector.Entity, band string, options formatters.Options) {
	if !options.NoColor {
		f.colors["white"].Fprintf(builder, "=== Finding Details ===\n")
	} else {
		fmt.Fprintf(builder, "=== Finding Details ===\n")
	}

	value := shared.DisplayValue(e, options.ShowValue)
	if !options.NoColor {
		f.colors["cyan"].Fprintf(builder, "%s", e.Type)
		f.colors["cyan"].Fprintf(builder, " found at ")
		f.colors["magenta"].Fprintf(builder, "%s", f.positionLabel(e))
		f.colors["cyan"].Fprintf(builder, ": %s\n", value)
	} else {
		fmt.Fprintf(builder, "%s found at %s: %s\n", e.Type, f.positionLabel(e), value)
	}

	if !options.NoColor {
		f.colors["cyan"].Fprintf(builder, "Layer: ")
		f.colors["white"].Fprintf(builder, "%s (%s)\n", e.Layer, e.Source)
	} else {
		fmt.Fprintf(builder, "Layer: %s (%s)\n", e.Layer, e.Source)
	}

	var levelColor *color.Color
	switch band {
	case "HIGH":
		levelColor = f.colors["red"]
	case "MEDIUM":
		levelColor = f.colors["yellow"]
	default:
		levelColor = f.colors["green"]
	}
	if !options.NoColor {
		f.colors["cyan"].Fprintf(builder, "Confidence: ")
		f.colors["white"].Fprintf(builder, "%.2f%% ", e.Confidence*100)
		levelColor.Fprintf(builder, "(%s)\n", band)
	} else {
		fmt.Fprintf(builder, "Confidence: %.2f%% (%s)\n", e.Confidence*100, band)
	}

	if !e.Box.IsZero() {
		if !options.NoColor {
			f.colors["cyan"].Fprintf(builder, "Box: ")
			f.colors["white"].Fprintf(builder, "x=%.0f y=%.0f w=%.0f h=%.0f page=%d\n",
				e.Box.X, e.Box.Y, e.Box.W, e.Box.H, e.Box.Page)
		} else {
			fmt.Fprintf(builder, "Box: x=%.0f y=%.0f w=%.0f h=%.0f page=%d\n",
				e.Box.X, e.Box.Y, e.Box.W, e.Box.H, e.Box.Page)
		}
	}

	if e.Masked && !options.ShowValue {
		note := "Value masked. Use --show-match to reveal.\n"
		if !options.NoColor {
			note = f.colors["yellow"].Sprint(note)
		}
		builder.WriteString(note)
	}

	if len(e.Metadata) > 0 {
		if !options.NoColor {
			f.colors["cyan"].Fprintf(builder, "Metadata:\n")
		} else {
			fmt.Fprintf(builder, "Metadata:\n")
		}
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(builder, "- %s: %v\n", k, e.Metadata[k])
		}
	}

	fmt.Fprintln(builder)
}

// appendDetailedSuppressed adds detailed suppressed finding information
func (f *Formatter) appendDetailedSuppressed(builder *strings.Builder, s detector.SuppressedEntity, options formatters.Options) {
	if !options.NoColor {
		f.colors["white"].Fprintf(builder, "=== Suppressed Finding ===\n")
	} else {
		fmt.Fprintf(builder, "=== Suppressed Finding ===\n")
	}

	if !options.NoColor {
		f.colors["cyan"].Fprintf(builder, "Suppressed by: ")
		f.colors["white"].Fprintf(builder, "%s\n", s.SuppressedBy)
		f.colors["cyan"].Fprintf(builder, "Reason: ")
		f.colors["white"].Fprintf(builder, "%s\n", s.RuleReason)
	} else {
		fmt.Fprintf(builder, "Suppressed by: %s\n", s.SuppressedBy)
		fmt.Fprintf(builder, "Reason: %s\n", s.RuleReason)
	}

	if s.ExpiresAt != nil {
		expirationStatus := f.formatExpirationStatus(s.ExpiresAt, s.Expired)
		if !options.NoColor {
			f.colors["cyan"].Fprintf(builder, "Expiration: ")
			if s.Expired {
				f.colors["red"].Fprintf(builder, "%s\n", expirationStatus)
			} else {
				f.colors["white"].Fprintf(builder, "%s\n", expirationStatus)
			}
		} else {
			fmt.Fprintf(builder, "Expiration: %s\n", expirationStatus)
		}
	}

	f.appendDetailedFinding(builder, s.Entity, f.bandLabel(s.Entity.Confidence), options)
}

// appendRunSummary writes the closing stats line.
func (f *Formatter) appendRunSummary(builder *strings.Builder, result *pipeline.Result, options formatters.Options) {
	stats := result.Stats

	var bandParts []string
	for _, band := range []string{"high", "medium", "low"} {
		if n := stats.ByBand[band]; n > 0 {
			bandParts = append(bandParts, fmt.Sprintf("%d %s", n, band))
		}
	}
	bands := ""
	if len(bandParts) > 0 {
		bands = " (" + strings.Join(bandParts, ", ") + ")"
	}

	line := fmt.Sprintf("\n%d findings%s from %d raw detections; %d duplicates, %d below threshold",
		stats.Output, bands, stats.Input, stats.Suppressed, stats.BelowThreshold)
	if n := len(result.Suppressed); n > 0 {
		line += fmt.Sprintf("; %d allow-listed", n)
	}
	line += "\n"

	if !options.NoColor {
		line = f.colors["white"].Sprint(line)
	}
	builder.WriteString(line)
}

// positionLabel renders where a finding sits on the page.
func (f *Formatter) positionLabel(e detector.Entity) string {
	if e.Box.IsZero() {
		return "-"
	}
	return fmt.Sprintf("p%d (%.0f,%.0f)", e.Box.Page, e.Box.X, e.Box.Y)
}

// bandLabel returns the display form of the confidence band.
func (f *Formatter) bandLabel(confidence float64) string {
	return strings.ToUpper(fusion.Band(confidence))
}

// sortFindings orders findings by band (HIGH, MEDIUM, LOW) and then by
// confidence score within each band.
func (f *Formatter) sortFindings(findings []detector.Entity) {
	priority := map[string]int{"high": 0, "medium": 1, "low": 2}
	sort.SliceStable(findings, func(i, j int) bool {
		pi := priority[fusion.Band(findings[i].Confidence)]
		pj := priority[fusion.Band(findings[j].Confidence)]
		if pi != pj {
			return pi < pj
		}
		return findings[i].Confidence > findings[j].Confidence
	})
}

// formatExpirationStatus returns a human-readable expiration status
func (f *Formatter) formatExpirationStatus(expiresAt *time.Time, expired bool) string {
	if expiresAt == nil {
		return "never expires"
	}

	if expired {
		daysAgo := int(time.Since(*expiresAt).Hours() / 24)
		if daysAgo == 0 {
			return "expired today"
		} else if daysAgo == 1 {
			return "expired 1 day ago"
		}
		return fmt.Sprintf("expired %d days ago", daysAgo)
	}

	daysUntil := int(time.Until(*expiresAt).Hours() / 24)
	if daysUntil == 0 {
		return "expires today"
	} else if daysUntil == 1 {
		return "expires in 1 day"
	}
	return fmt.Sprintf("expires in %d days", daysUntil)
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
