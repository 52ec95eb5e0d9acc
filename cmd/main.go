// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"redact-scan/internal/ai"
	"redact-scan/internal/config"
	"redact-scan/internal/formatters"
	"redact-scan/internal/help"
	"redact-scan/internal/observability"
	"redact-scan/internal/pipeline"
	"redact-scan/internal/suppressions"
	"redact-scan/internal/version"
	"redact-scan/internal/web"
	"redact-scan/internal/wordsource"

	// Register the output formatters.
	_ "redact-scan/internal/formatters/json"
	_ "redact-scan/internal/formatters/text"
)

// defaultSuppressionFile is used when neither the flag, the environment,
// nor the config file names one.
const defaultSuppressionFile = ".redact-scan-suppressions.yaml"

// cliFlags holds command line flag values.
type cliFlags struct {
	inputFile       string
	imagePath       string
	configFile      string
	format          string
	fields          string
	threshold       float64
	strict          bool
	disable         string
	suppressionFile string
	showMatch       bool
	verbose         bool
	debug           bool
	outputFile      string
	noColor         bool
	quiet           bool
	webMode         bool
	webPort         int
	showVersion     bool
	showHelp        bool
}

// finalConfiguration holds resolved values: config file first, then
// explicitly set flags on top.
type finalConfiguration struct {
	format          string
	fields          string
	threshold       float64
	strict          bool
	disabledSources []string
	suppressionFile string
	verbose         bool
	debug           bool
	noColor         bool
}

func parseFlags() *cliFlags {
	inputFile := flag.String("file", "", "Path to the input file: OCR word dump (.json) or PDF")
	imagePath := flag.String("image", "", "Path to the scanned source image, checked for EXIF metadata")
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	format := flag.String("format", "", "Output format: text, json (default: text)")
	fields := flag.String("fields", "", "PII types left visible in the output, comma-separated (default: mask everything)")
	threshold := flag.Float64("threshold", 0, "Minimum fused confidence to report, 0.0-1.0 (default: 0.5)")
	strict := flag.Bool("strict", false, "Require label context for every identifier class")
	disable := flag.String("disable", "", "Detection sources to skip, comma-separated (see --help sources)")
	suppressionFile := flag.String("suppression-file", "", "Path to suppression rule file (default: "+defaultSuppressionFile+")")
	showMatch := flag.Bool("show-match", false, "Display raw values for masked findings")
	verbose := flag.Bool("verbose", false, "Display detailed information for each finding")
	debug := flag.Bool("debug", false, "Enable debug logging of classification, detection, and fusion")
	outputFile := flag.String("output", "", "Path to output file (if not specified, output to stdout)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	quiet := flag.Bool("quiet", false, "Suppress progress output (useful for scripts and CI/CD)")
	webMode := flag.Bool("web", false, "Start web server mode instead of CLI scanning")
	webPort := flag.Int("port", 0, "Port for web server (default: 8080, only used with --web)")
	showVersion := flag.Bool("version", false, "Show version information")
	showHelp := flag.Bool("help", false, "Show help information (--help sources, --help types, --help <source>)")

	flag.Parse()

	return &cliFlags{
		inputFile:       *inputFile,
		imagePath:       *imagePath,
		configFile:      *configFile,
		format:          *format,
		fields:          *fields,
		threshold:       *threshold,
		strict:          *strict,
		disable:         *disable,
		suppressionFile: *suppressionFile,
		showMatch:       *showMatch,
		verbose:         *verbose,
		debug:           *debug,
		outputFile:      *outputFile,
		noColor:         *noColor,
		quiet:           *quiet,
		webMode:         *webMode,
		webPort:         *webPort,
		showVersion:     *showVersion,
		showHelp:        *showHelp,
	}
}

// isFlagSet checks whether a flag was explicitly set on the command line.
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// loadConfiguration loads the configuration file or returns defaults.
func loadConfiguration(configFile string) *config.Config {
	configPath := configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg, _ = config.LoadConfig("")
	}
	return cfg
}

// resolveConfiguration layers explicitly set flags over the config file.
func resolveConfiguration(cfg *config.Config, flags *cliFlags) *finalConfiguration {
	final := &finalConfiguration{
		format:          "text",
		threshold:       pipeline.DefaultThreshold,
		suppressionFile: defaultSuppressionFile,
	}

	if cfg.Defaults.Format != "" {
		final.format = cfg.Defaults.Format
	}
	if isFlagSet("format") && flags.format != "" {
		final.format = flags.format
	}

	if cfg.Defaults.Threshold > 0 {
		final.threshold = cfg.Defaults.Threshold
	}
	if isFlagSet("threshold") {
		final.threshold = flags.threshold
	}

	final.fields = cfg.Defaults.Fields
	if isFlagSet("fields") {
		final.fields = flags.fields
	}

	final.strict = cfg.Detection.StrictPatterns || flags.strict

	final.disabledSources = append([]string(nil), cfg.Detection.DisabledSources...)
	if flags.disable != "" {
		final.disabledSources = append(final.disabledSources, strings.Split(flags.disable, ",")...)
	}

	if cfg.Suppressions.File != "" {
		final.suppressionFile = cfg.Suppressions.File
	}
	if isFlagSet("suppression-file") && flags.suppressionFile != "" {
		final.suppressionFile = flags.suppressionFile
	}

	final.verbose = cfg.Defaults.Verbose
	if isFlagSet("verbose") {
		final.verbose = flags.verbose
	}

	final.debug = cfg.Defaults.Debug
	if isFlagSet("debug") {
		final.debug = flags.debug
	}

	final.noColor = cfg.Defaults.NoColor
	if isFlagSet("no-color") {
		final.noColor = flags.noColor
	}

	return final
}

// buildObserver picks the observability level: debug wins over quiet,
// quiet turns metrics off.
func buildObserver(debug, quiet bool) *observability.StandardObserver {
	if debug {
		debugObs := observability.NewDebugObserver(os.Stderr)
		observer := debugObs.StandardObserver
		observer.DebugObserver = debugObs
		return observer
	}
	if quiet {
		return observability.NewStandardObserver(observability.ObservabilityOff, os.Stderr)
	}
	return observability.NewStandardObserver(observability.ObservabilityMetrics, os.Stderr)
}

// buildAIClient connects to Vertex AI when the config enables it. A
// client that cannot be built disables the AI layer with a warning
// instead of failing the run.
func buildAIClient(ctx context.Context, cfg *config.Config, observer *observability.StandardObserver) ai.Client {
	if !cfg.AI.Enabled {
		return nil
	}

	client, err := ai.NewVertexClient(ctx, ai.VertexConfig{
		ProjectID:         cfg.AI.Project,
		Region:            cfg.AI.Region,
		Model:             cfg.AI.Model,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: AI layer disabled: %v\n", err)
		return nil
	}
	client.SetObserver(observer)
	return client
}

// fatal reports the error, pushes it to Sentry when configured, and
// exits nonzero.
func fatal(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
	os.Exit(1)
}

// writeOutput writes the formatted result to the output file, or stdout
// when no file is named. Output files get owner-only permissions since
// they may carry unmasked values.
func writeOutput(result, outputFile string) {
	if outputFile == "" {
		fmt.Println(result)
		return
	}

	if strings.Contains(outputFile, "..") {
		fatal("path traversal not allowed in output path: %s", outputFile)
	}
	cleanPath, err := filepath.Abs(filepath.Clean(outputFile))
	if err != nil {
		fatal("invalid output file path %s: %v", outputFile, err)
	}
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0700); err != nil {
		fatal("error creating output directory: %v", err)
	}
	if err := os.WriteFile(cleanPath, []byte(result), 0600); err != nil {
		fatal("error writing to output file: %v", err)
	}
}

// handleHelp renders the requested help screen and exits.
func handleHelp(noColor bool) {
	h := help.NewSystem(noColor)
	args := flag.Args()
	if len(args) == 0 {
		h.ShowGeneralHelp()
		os.Exit(0)
	}

	switch args[0] {
	case "sources":
		h.ShowSourcesHelp()
	case "types":
		h.ShowTypesHelp()
	default:
		if !h.ShowSourceHelp(args[0]) {
			fmt.Fprintf(os.Stderr, "Unknown source %q\n\n", args[0])
			h.ShowSourcesHelp()
			os.Exit(1)
		}
	}
	os.Exit(0)
}

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	flags := parseFlags()

	if flags.showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Auto-detect non-interactive environments.
	isInteractive := term.IsTerminal(int(os.Stderr.Fd()))
	if !isInteractive || flags.quiet || os.Getenv("CI") != "" {
		flags.noColor = true
	}

	if flags.showHelp {
		handleHelp(flags.noColor)
	}

	cfg := loadConfiguration(flags.configFile)
	final := resolveConfiguration(cfg, flags)
	if flags.noColor {
		final.noColor = true
	}
	if final.noColor {
		color.NoColor = true
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:     cfg.SentryDSN,
			Release: "redact-scan@" + version.Version,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error reporting disabled: %v\n", err)
		}
	}

	if final.threshold < 0 || final.threshold > 1 {
		fatal("invalid threshold %v (want 0.0-1.0)", final.threshold)
	}
	if _, ok := formatters.Get(final.format); !ok {
		fatal("unsupported format %q. Available formats: %s", final.format, strings.Join(formatters.List(), ", "))
	}

	observer := buildObserver(final.debug, flags.quiet)
	ctx := context.Background()

	manager, err := suppressions.NewManager(final.suppressionFile)
	if err != nil {
		fatal("%v", err)
	}
	manager.SetEnabled(cfg.Suppressions.Enabled)

	if flags.webMode {
		if isFlagSet("port") {
			cfg.Web.Port = flags.webPort
		}
		aiClient := buildAIClient(ctx, cfg, observer)
		server := web.NewServer(cfg, manager, aiClient, observer)
		fmt.Printf("redact-scan web API on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
		fmt.Printf("  POST /api/v1/detect   run detection on an OCR dump or uploaded file\n")
		fmt.Printf("  GET  /health          service health\n")
		fmt.Printf("  GET  /version         build information\n")
		if err := server.Start(); err != nil {
			fatal("%v", err)
		}
		return
	}

	if flags.inputFile == "" {
		if flag.NFlag() == 0 && len(flag.Args()) == 0 {
			help.NewSystem(final.noColor).ShowGeneralHelp()
			os.Exit(0)
		}
		fatal("no input file specified (--file). Run redact-scan --help for usage")
	}

	required, err := pipeline.ParseFields(final.fields)
	if err != nil {
		fatal("%v", err)
	}

	router := wordsource.NewRouter()
	router.SetObserver(observer)
	doc, err := router.Load(ctx, flags.inputFile)
	if err != nil {
		fatal("%v", err)
	}

	showProgress := isInteractive && !flags.quiet && !final.debug
	var progress pipeline.ProgressFunc
	if showProgress {
		progress = func(stage string, fraction float64) {
			fmt.Fprintf(os.Stderr, "\r%-16s %3.0f%%", stage, fraction*100)
		}
	}

	aiClient := buildAIClient(ctx, cfg, observer)
	p := pipeline.New(pipeline.Options{
		Threshold:       final.threshold,
		DedupIoU:        cfg.Detection.DedupIoU,
		StrictPatterns:  final.strict,
		DisabledSources: final.disabledSources,
		RequiredFields:  required,
		ImagePath:       flags.imagePath,
		AI:              aiClient,
		Suppressions:    manager,
		Progress:        progress,
		Observer:        observer,
	})

	result, err := p.Run(ctx, doc)
	if showProgress {
		fmt.Fprintf(os.Stderr, "\r%24s\r", "")
	}
	if err != nil {
		fatal("detection failed: %v", err)
	}

	output, err := formatters.Export(final.format, result, formatters.Options{
		Verbose:   final.verbose,
		NoColor:   final.noColor,
		ShowValue: flags.showMatch,
	})
	if err != nil {
		fatal("error formatting results: %v", err)
	}

	writeOutput(output, flags.outputFile)

	if aiClient != nil {
		if closer, ok := aiClient.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	sentry.Flush(2 * time.Second)
}
