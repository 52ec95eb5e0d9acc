// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package help renders the CLI help screens: general usage, the
// detection source catalog, and the PII type list.
package help

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"redact-scan/internal/detector"
)

// SourceInfo describes one detection source for the help catalog.
type SourceInfo struct {
	Name                string            // Source name as used by --disable (e.g., "aadhaar")
	Layer               detector.Layer    // Layer the source emits on
	ShortDescription    string            // Short description for the sources list
	DetailedDescription string            // Detailed description of what the source does
	Detects             []detector.PIIType // Types the source can emit
	Notes               []string          // Confidence and behavior notes
}

// System manages help content for the application
type System struct {
	noColor bool
	colors  map[string]*color.Color
}

// NewSystem creates a new help system
func NewSystem(noColor bool) *System {
	// Disable colors if requested
	if noColor {
		color.NoColor = true
	}

	return &System{
		noColor: noColor,
		colors: map[string]*color.Color{
			"title":    color.New(color.FgWhite, color.Bold),
			"subtitle": color.New(color.FgCyan, color.Bold),
			"header":   color.New(color.FgBlue, color.Bold),
			"item":     color.New(color.FgCyan),
			"emphasis": color.New(color.FgWhite, color.Bold),
			"positive": color.New(color.FgGreen),
			"negative": color.New(color.FgRed),
			"warning":  color.New(color.FgYellow),
			"example":  color.New(color.FgMagenta),
		},
	}
}

// catalog lists every detection source the pipeline can run.
func catalog() []SourceInfo {
	return []SourceInfo{
		{
			Name:             "aadhaar",
			Layer:            detector.LayerDeterministic,
			ShortDescription: "Aadhaar numbers validated with the Verhoeff checksum",
			DetailedDescription: "Finds 12-digit Aadhaar numbers, with or without the usual " +
				"4-4-4 grouping, and verifies the trailing Verhoeff check digit. A number " +
				"that passes the checksum is reported at full confidence; a 12-digit shape " +
				"that fails it is still reported, demoted to the heuristic layer, so a " +
				"single OCR misread does not hide a real number.",
			Detects: []detector.PIIType{detector.TypeAadhaar},
			Notes: []string{
				"Checksum pass: confidence 1.0 on the deterministic layer",
				"Checksum fail: demoted to the heuristic layer",
			},
		},
		{
			Name:             "pan",
			Layer:            detector.LayerDeterministic,
			ShortDescription: "Permanent Account Numbers with structural validation",
			DetailedDescription: "Finds PAN identifiers (five letters, four digits, one " +
				"letter) and checks the embedded structure: the fourth character encodes " +
				"the holder type and only a fixed set of values is legal.",
			Detects: []detector.PIIType{detector.TypePAN},
			Notes: []string{
				"Valid structure: confidence 1.0",
				"Right shape with an illegal holder-type letter is rejected",
			},
		},
		{
			Name:             "creditcard",
			Layer:            detector.LayerDeterministic,
			ShortDescription: "Payment card numbers validated with Luhn",
			DetailedDescription: "Finds 13 to 19 digit card numbers, tolerating spaces and " +
				"dashes, and verifies the Luhn check digit. Well-known test numbers " +
				"(4111 1111 1111 1111 and friends) pass Luhn but are demoted so specimen " +
				"cards in documentation do not dominate a report.",
			Detects: []detector.PIIType{detector.TypeCardNumber},
			Notes: []string{
				"Luhn pass: confidence 1.0",
				"Known test numbers are demoted to the heuristic layer",
			},
		},
		{
			Name:             "phone",
			Layer:            detector.LayerDeterministic,
			ShortDescription: "Indian mobile numbers",
			DetailedDescription: "Finds 10-digit Indian mobile numbers starting 6 through 9, " +
				"with optional +91 or 0 prefixes and common separator styles.",
			Detects: []detector.PIIType{detector.TypePhone},
		},
		{
			Name:             "contextual",
			Layer:            detector.LayerEnhanced,
			ShortDescription: "Labeled identifiers: accounts, IFSC, GSTIN, passports, voter IDs, licences",
			DetailedDescription: "Finds identifier shapes that are only trustworthy next to " +
				"their labels: bank account numbers, IFSC codes, GSTINs, passport numbers, " +
				"voter IDs, and driving licences. Distinctive shapes (IFSC, GSTIN) may " +
				"match without a label unless strict patterns are on; everything else " +
				"always needs a nearby keyword.",
			Detects: []detector.PIIType{
				detector.TypeAccountNumber, detector.TypeIFSC, detector.TypeGSTIN,
				detector.TypePassport, detector.TypeVoterID, detector.TypeDrivingLicence,
			},
			Notes: []string{
				"--strict requires label context for every class",
				"GSTIN matches must embed a structurally valid PAN",
			},
		},
		{
			Name:             "heuristic",
			Layer:            detector.LayerHeuristic,
			ShortDescription: "Dictionary names, birth dates, emails, addresses, medical terms",
			DetailedDescription: "Scores title-case word runs against Indian given-name and " +
				"surname dictionaries, finds dates and raises them near birth-context " +
				"words, finds email addresses, address lines, and medical vocabulary. " +
				"This is the broad, low-certainty layer; fusion lets more precise layers " +
				"override it wherever they overlap.",
			Detects: []detector.PIIType{
				detector.TypeName, detector.TypeDOB, detector.TypeEmail,
				detector.TypeAddress, detector.TypeMedical,
			},
			Notes: []string{
				"Name confidence climbs with dictionary membership and honorifics, capped at 0.95",
				"Dates outside plausible birth years are ignored",
			},
		},
		{
			Name:             "spatial",
			Layer:            detector.LayerSpatial,
			ShortDescription: "Key-value pairs read from the page layout",
			DetailedDescription: "Reconstructs lines from word geometry and maps label words " +
				"(Name, DOB, Address and the rest of the key table) to the value run that " +
				"follows them on the same line. The reported box covers both the label and " +
				"the value, so redacting it removes the whole pair.",
			Detects: []detector.PIIType{
				detector.TypeName, detector.TypeDOB, detector.TypeAadhaar, detector.TypePAN,
				detector.TypePhone, detector.TypeEmail, detector.TypeAccountNumber,
				detector.TypeIFSC, detector.TypeAddress, detector.TypeVoterID,
				detector.TypeDrivingLicence, detector.TypeGSTIN, detector.TypeMedical,
			},
			Notes: []string{
				"Identity documents activate the full key table; other types keep only its high-confidence rows",
				"Value capture stops at the next label, a standalone punctuation word, or a large gap",
			},
		},
		{
			Name:             "metadata",
			Layer:            detector.LayerHeuristic,
			ShortDescription: "EXIF metadata from the scanned source image",
			DetailedDescription: "Reads the EXIF block of the image named by --image: " +
				"artist and copyright holders, GPS coordinates, capture timestamps. These " +
				"findings have no position on the page and carry an empty box.",
			Detects: []detector.PIIType{
				detector.TypeName, detector.TypeAddress, detector.TypeSensitive,
			},
			Notes: []string{
				"Runs only when --image names a file",
				"A missing file or an image without EXIF yields nothing, never an error",
			},
		},
		{
			Name:             "ai",
			Layer:            detector.LayerAI,
			ShortDescription: "External model annotations over the word stream",
			DetailedDescription: "Sends the numbered word stream to the configured model " +
				"and maps returned word IDs back to page positions. When the tagged " +
				"protocol fails, a plain-text fallback asks for phrases and locates them " +
				"fuzzily. The document classification steers the model's attention toward " +
				"the types that matter for that document.",
			Detects: detector.AllTypes(),
			Notes: []string{
				"Requires ai.enabled plus a project and region in the configuration",
				"A failing model never fails the run; the other layers stand alone",
			},
		},
	}
}

// ShowGeneralHelp displays general help information
func (h *System) ShowGeneralHelp() {
	h.colors["title"].Println("Redact Scan - PII Detection for Scanned Documents")
	fmt.Println("=================================================")
	fmt.Println()
	h.colors["header"].Println("USAGE:")
	fmt.Println("  redact-scan --file <path> [options]")
	fmt.Println("  redact-scan --web [--port <port>]  # Web server mode")
	fmt.Println()

	h.colors["header"].Println("OPTIONS:")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  --file\t<path>\tOCR word dump (.json) or PDF to scan (required)")
	fmt.Fprintln(w, "  --image\t<path>\tScanned source image, checked for EXIF metadata")
	fmt.Fprintln(w, "  --config\t<path>\tPath to configuration file (YAML)")
	fmt.Fprintln(w, "  --format\t<format>\tOutput format: text, json (default: text)")
	fmt.Fprintln(w, "  --fields\t<types>\tPII types left visible in the output, comma-separated (default: mask everything)")
	fmt.Fprintln(w, "  --threshold\t<0..1>\tMinimum fused confidence to report (default: 0.5)")
	fmt.Fprintln(w, "  --strict\t\tRequire label context for every identifier class")
	fmt.Fprintln(w, "  --disable\t<sources>\tDetection sources to skip, comma-separated")
	fmt.Fprintln(w, "  --suppression-file\t<path>\tPath to the suppression rule file")
	fmt.Fprintln(w, "  --show-match\t\tDisplay raw values for masked findings")
	fmt.Fprintln(w, "  --verbose\t\tDisplay detailed information for each finding")
	fmt.Fprintln(w, "  --debug\t\tEnable debug logging of classification, detection, and fusion")
	fmt.Fprintln(w, "  --output\t<path>\tPath to output file (if not specified, output to stdout)")
	fmt.Fprintln(w, "  --no-color\t\tDisable colored output")
	fmt.Fprintln(w, "  --quiet\t\tSuppress progress output (useful for scripts and CI)")
	fmt.Fprintln(w, "  --web\t\tStart web server mode instead of CLI scanning")
	fmt.Fprintln(w, "  --port\t<port>\tPort for web server (default: 8080, only used with --web)")
	fmt.Fprintln(w, "  --version\t\tShow version information")
	fmt.Fprintln(w, "  --help\t\tShow this help message")
	fmt.Fprintln(w, "  --help sources\t\tList all detection sources")
	fmt.Fprintln(w, "  --help types\t\tList all PII types")
	fmt.Fprintln(w, "  --help <source>\t\tShow detailed help for a specific source")
	w.Flush()

	fmt.Println()
	h.colors["header"].Println("EXAMPLES:")
	fmt.Println("  Basic Usage:")
	h.colors["example"].Println("    redact-scan --file scan.json")
	h.colors["example"].Println("    redact-scan --file scan.json --format json --output findings.json")
	fmt.Println("  Tuning:")
	h.colors["example"].Println("    redact-scan --file statement.pdf --strict --threshold 0.7")
	h.colors["example"].Println("    redact-scan --file scan.json --fields NAME,DOB --show-match")
	h.colors["example"].Println("    redact-scan --file scan.json --disable heuristic,ai")
	fmt.Println("  With the source image:")
	h.colors["example"].Println("    redact-scan --file scan.json --image scan.jpg")

	fmt.Println()
	h.colors["header"].Println("Web Server Examples:")
	h.colors["example"].Println("  redact-scan --web  # Start web server on default port")
	h.colors["example"].Println("  redact-scan --web --port 9000  # Start web server on custom port")

	fmt.Println()
	h.colors["header"].Println("CONFIGURATION:")
	fmt.Println("  Default config: ~/.config/redact-scan/config.yaml")
	fmt.Println("  Project config: redact-scan.yaml or .redact-scan.yaml (in current directory)")
	fmt.Println("  Environment: REDACT_DEBUG, REDACT_SUPPRESSIONS, GOOGLE_CLOUD_PROJECT")
}

// ShowSourcesHelp displays information about all detection sources
func (h *System) ShowSourcesHelp() {
	h.colors["title"].Println("Detection Sources")
	fmt.Println("=================")
	fmt.Println()
	fmt.Println("Findings from every source are fused into one deduplicated set;")
	fmt.Println("higher layers win where boxes overlap.")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	h.colors["header"].Fprintln(w, "  SOURCE\tLAYER\tDESCRIPTION")
	h.colors["header"].Fprintln(w, "  ------\t-----\t-----------")

	sources := catalog()
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Layer != sources[j].Layer {
			return sources[i].Layer < sources[j].Layer
		}
		return sources[i].Name < sources[j].Name
	})

	for _, info := range sources {
		fmt.Fprintf(w, "  ")
		h.colors["emphasis"].Fprintf(w, "%s", info.Name)
		fmt.Fprintf(w, "\t%d (%s)\t%s\n", info.Layer, info.Layer, info.ShortDescription)
	}
	w.Flush()

	fmt.Println()
	fmt.Println("For detailed information about a specific source, use:")
	h.colors["example"].Println("  redact-scan --help <source>")
}

// ShowTypesHelp lists every PII type the pipeline can emit.
func (h *System) ShowTypesHelp() {
	h.colors["title"].Println("PII Types")
	fmt.Println("=========")
	fmt.Println()
	fmt.Println("Types accepted by --fields and by suppression rules:")
	fmt.Println()
	for _, t := range detector.AllTypes() {
		fmt.Print("  - ")
		h.colors["item"].Println(string(t))
	}
	fmt.Println()
	fmt.Println("Findings are masked by default; --fields lists the types that stay visible.")
}

// ShowSourceHelp displays detailed help for a specific detection source
func (h *System) ShowSourceHelp(name string) bool {
	var info SourceInfo
	found := false
	for _, candidate := range catalog() {
		if candidate.Name == strings.ToLower(strings.TrimSpace(name)) {
			info = candidate
			found = true
			break
		}
	}
	if !found {
		h.colors["negative"].Printf("Error: Source '%s' not found.\n", name)
		fmt.Println("Use 'redact-scan --help sources' to see a list of available sources.")
		return false
	}

	h.colors["title"].Printf("%s Source\n", info.Name)
	fmt.Println(strings.Repeat("=", len(info.Name)+7))
	fmt.Println()
	fmt.Println(info.DetailedDescription)
	fmt.Println()

	h.colors["header"].Println("LAYER:")
	fmt.Printf("  %d (%s)\n", info.Layer, info.Layer)
	fmt.Println()

	if len(info.Detects) > 0 {
		h.colors["header"].Println("DETECTS:")
		for _, t := range info.Detects {
			fmt.Print("  - ")
			h.colors["item"].Println(string(t))
		}
		fmt.Println()
	}

	if len(info.Notes) > 0 {
		h.colors["header"].Println("NOTES:")
		for _, note := range info.Notes {
			fmt.Print("  - ")
			h.colors["item"].Println(note)
		}
		fmt.Println()
	}

	h.colors["header"].Println("Confidence Bands:")
	fmt.Print("- ")
	h.colors["negative"].Print("HIGH")
	fmt.Println(" (90-100%): Very likely PII")
	fmt.Print("- ")
	h.colors["warning"].Print("MEDIUM")
	fmt.Println(" (70-89%): Probable PII")
	fmt.Print("- ")
	h.colors["positive"].Print("LOW")
	fmt.Println(" (below 70%): Weak signal, review before acting")

	return true
}
