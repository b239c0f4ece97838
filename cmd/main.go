// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"autoredact/internal/config"
	"autoredact/internal/engine"
	"autoredact/internal/entity"
	"autoredact/internal/extract"
	"autoredact/internal/help"
	"autoredact/internal/observability"
	"autoredact/internal/parallel"
	"autoredact/internal/redact"
	"autoredact/internal/version"
)

// configFlags holds command line flag values
type configFlags struct {
	format            string
	threshold         float64
	methods           string
	redactionMethod   string
	customReplacement string
	budgetMs          int
	verbose           bool
	debug             bool
	noColor           bool
}

// finalConfiguration holds resolved configuration values
type finalConfiguration struct {
	format            string
	threshold         float64
	methods           string
	redactionMethod   string
	customReplacement string
	budgetMs          int
	verbose           bool
	debug             bool
	noColor           bool
}

// loadConfiguration loads the configuration file or returns default config
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

// resolveConfiguration resolves final values from config file and command line flags
func resolveConfiguration(cfg *config.Config, flags *configFlags) *finalConfiguration {
	final := &finalConfiguration{
		format:            cfg.Defaults.Format,
		threshold:         cfg.Defaults.ConfidenceThreshold,
		methods:           cfg.Defaults.Methods,
		redactionMethod:   cfg.Defaults.RedactionMethod,
		customReplacement: cfg.Defaults.CustomReplacement,
		budgetMs:          cfg.Defaults.DetectorBudgetMs,
		verbose:           cfg.Defaults.Verbose,
		debug:             cfg.Defaults.Debug,
		noColor:           cfg.Defaults.NoColor,
	}

	if isFlagSet("format") {
		final.format = flags.format
	}
	if isFlagSet("threshold") {
		final.threshold = flags.threshold
	}
	if isFlagSet("methods") {
		final.methods = flags.methods
	}
	if isFlagSet("redaction-method") {
		final.redactionMethod = flags.redactionMethod
	}
	if isFlagSet("replacement") {
		final.customReplacement = flags.customReplacement
		if !isFlagSet("redaction-method") {
			final.redactionMethod = string(entity.RedactCustom)
		}
	}
	if isFlagSet("budget-ms") {
		final.budgetMs = flags.budgetMs
	}
	if isFlagSet("verbose") {
		final.verbose = flags.verbose
	}
	if isFlagSet("debug") {
		final.debug = flags.debug
	}
	if isFlagSet("no-color") {
		final.noColor = flags.noColor
	}
	return final
}

// isFlagSet checks if a flag was explicitly set on the command line
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func main() {
	inputFile := flag.String("file", "", "Path to the input file, directory, or glob pattern (.txt, .md, .pdf)")
	inputText := flag.String("text", "", "Scan a literal text string instead of a file")
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	profileName := flag.String("profile", "", "Profile name to use from config file")
	listProfiles := flag.Bool("list-profiles", false, "List available profiles in config file")
	recursive := flag.Bool("recursive", false, "Recursively scan directories")
	showVersion := flag.Bool("version", false, "Show version information")
	showHelp := flag.Bool("help", false, "Show help (use '--help methods' or '--help <method>' for detail)")

	flags := &configFlags{}
	flag.StringVar(&flags.format, "format", "", "Output format: text, json (default: text)")
	flag.Float64Var(&flags.threshold, "threshold", 0, "Confidence threshold in [0,1] (default: 0.7)")
	flag.StringVar(&flags.methods, "methods", "", "Comma-separated detection methods: pattern, context, nlp, ml_ensemble, llm, or all")
	flag.StringVar(&flags.redactionMethod, "redaction-method", "", "How to redact: black_box or custom_replacement")
	flag.StringVar(&flags.customReplacement, "replacement", "", "Replacement text for custom_replacement redaction")
	flag.IntVar(&flags.budgetMs, "budget-ms", 0, "Per-detector time budget in milliseconds")
	flag.BoolVar(&flags.verbose, "verbose", false, "Show context snippets and run metadata")
	flag.BoolVar(&flags.debug, "debug", false, "Enable debug logging to stderr")
	flag.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	applyRedactions := flag.Bool("redact", false, "Print the redacted text instead of the findings report")
	outputFile := flag.String("output", "", "Write output to a file instead of stdout")
	modelsDir := flag.String("models-dir", "", "Path to the model bundle for nlp and ml_ensemble methods")
	llmURL := flag.String("llm-url", "", "Base URL of the local LLM endpoint")
	llmModel := flag.String("llm-model", "", "Model name for the local LLM endpoint")

	helpSystem := help.NewSystem(!isTerminal(os.Stdout))
	flag.Usage = func() { helpSystem.ShowGeneralHelp() }
	flag.Parse()

	if *showHelp {
		switch {
		case flag.NArg() == 0:
			helpSystem.ShowGeneralHelp()
		case flag.Arg(0) == "methods":
			helpSystem.ShowMethodsList()
		default:
			if !helpSystem.ShowMethodHelp(flag.Arg(0)) {
				fmt.Fprintf(os.Stderr, "Unknown help topic %q\n\n", flag.Arg(0))
				helpSystem.ShowMethodsList()
			}
		}
		return
	}

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	cfg := loadConfiguration(*configFile)

	if *listProfiles {
		printProfiles(cfg)
		return
	}
	if *profileName != "" {
		if err := cfg.ApplyProfile(*profileName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}

	final := resolveConfiguration(cfg, flags)

	// Flags that bypass the defaults block
	if *modelsDir != "" {
		cfg.Models.Dir = *modelsDir
	}
	if *llmURL != "" {
		cfg.LLM.BaseURL = *llmURL
	}
	if *llmModel != "" {
		cfg.LLM.Model = *llmModel
	}
	cfg.Defaults.Methods = final.methods

	if final.noColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}

	if *inputFile == "" && *inputText == "" {
		fmt.Fprintln(os.Stderr, "Error: either -file or -text is required")
		flag.Usage()
		os.Exit(2)
	}

	level := observability.ObservabilityOff
	if final.verbose {
		level = observability.ObservabilityMetrics
	}
	if final.debug {
		level = observability.ObservabilityDebug
	}
	observer := observability.NewStandardObserver(level, os.Stderr)

	dets, modelRuntime, err := engine.BuildDetectors(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if modelRuntime != nil {
		defer modelRuntime.Close()
	}

	eng, err := engine.New(engine.Config{
		ConfidenceThreshold: final.threshold,
		RedactionMethod:     entity.RedactionMethod(final.redactionMethod),
		CustomReplacement:   final.customReplacement,
		DetectorBudget:      time.Duration(final.budgetMs) * time.Millisecond,
	}, dets, observer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	var output string
	if *inputText != "" {
		output, err = scanDocument(eng, extract.Text(*inputText), *applyRedactions, final)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		files, err := collectFiles(*inputFile, *recursive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 1 {
			doc, err := extract.File(files[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			output, err = scanDocument(eng, doc, *applyRedactions, final)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		} else {
			if *applyRedactions {
				fmt.Fprintln(os.Stderr, "Error: -redact requires a single input file")
				os.Exit(2)
			}
			output, err = scanBatch(eng, files, final)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(output)
}

// scanDocument runs one document through the engine and renders it.
func scanDocument(eng *engine.Engine, doc *extract.Document, applyRedactions bool, final *finalConfiguration) (string, error) {
	result, err := eng.Detect(context.Background(), doc.Text, doc.Locator())
	if err != nil {
		return "", err
	}
	switch {
	case applyRedactions:
		return redact.Apply(doc.Text, result.Redactions), nil
	case final.format == "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return formatText(result, final.verbose), nil
	}
}

// fileReport pairs a scan result with its source file for batch output.
type fileReport struct {
	File   string         `json:"file"`
	Error  string         `json:"error,omitempty"`
	Result *engine.Result `json:"result,omitempty"`
}

// scanBatch fans the files across a worker pool and renders a combined
// report ordered by file path.
func scanBatch(eng *engine.Engine, files []string, final *finalConfiguration) (string, error) {
	ctx := context.Background()
	pool := parallel.NewWorkerPool(runtime.NumCPU(), eng)
	pool.Start(ctx)
	pool.Submit(ctx, files)

	var reports []fileReport
	for res := range pool.Results() {
		report := fileReport{File: res.FilePath, Result: res.Scan}
		if res.Error != nil {
			report.Error = res.Error.Error()
			report.Result = nil
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].File < reports[j].File })

	if final.format == "json" {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	header := color.New(color.FgWhite, color.Bold)
	var b strings.Builder
	for i, report := range reports {
		if i > 0 {
			b.WriteString("\n\n")
		}
		header.Fprintf(&b, "== %s ==\n", report.File)
		if report.Error != "" {
			fmt.Fprintf(&b, "error: %s", report.Error)
			continue
		}
		b.WriteString(formatText(report.Result, final.verbose))
	}
	return b.String(), nil
}

// collectFiles expands path into the list of scannable files: a single
// file, a glob pattern, or a directory (top-level unless recursive).
func collectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Not a plain path; try it as a glob pattern.
		matches, globErr := filepath.Glob(path)
		if globErr != nil || len(matches) == 0 {
			return nil, fmt.Errorf("no input files match %q", path)
		}
		return filterSupported(matches), nil
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && supportedFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			p := filepath.Join(path, entry.Name())
			if !entry.IsDir() && supportedFile(p) {
				files = append(files, p)
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scannable files under %s", path)
	}
	return files, nil
}

func filterSupported(paths []string) []string {
	var out []string
	for _, p := range paths {
		if supportedFile(p) {
			out = append(out, p)
		}
	}
	return out
}

func supportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text", ".pdf":
		return true
	default:
		return false
	}
}

func printProfiles(cfg *config.Config) {
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available profiles:")
	for _, name := range names {
		profile := cfg.Profiles[name]
		if profile.Description != "" {
			fmt.Printf("  %-12s %s\n", name, profile.Description)
		} else {
			fmt.Printf("  %s\n", name)
		}
	}
}

// formatText renders the findings report for terminals.
func formatText(result *engine.Result, verbose bool) string {
	header := color.New(color.FgWhite, color.Bold)
	high := color.New(color.FgGreen)
	medium := color.New(color.FgYellow)
	dim := color.New(color.FgCyan)

	var b strings.Builder

	if len(result.Redactions) == 0 {
		b.WriteString("No entities found at the configured threshold.\n")
	} else {
		header.Fprintf(&b, "%-4s %-14s %-28s %-11s %-12s %s\n",
			"ID", "TYPE", "TEXT", "SPAN", "SOURCE", "CONFIDENCE")
		for _, r := range result.Redactions {
			conf := medium
			if r.Confidence >= 0.9 {
				conf = high
			}
			text := r.Text
			if len(text) > 26 {
				text = text[:23] + "..."
			}
			fmt.Fprintf(&b, "%-4d %-14s %-28s %-11s %-12s ",
				r.ID, r.Type, text, fmt.Sprintf("%d-%d", r.StartChar, r.EndChar), r.Source)
			conf.Fprintf(&b, "%.2f", r.Confidence)
			if r.PageNumber != nil && r.LineNumber != nil {
				dim.Fprintf(&b, "  (page %d, line %d)", *r.PageNumber, *r.LineNumber)
			}
			b.WriteString("\n")
			if verbose && (r.ContextBefore != "" || r.ContextAfter != "") {
				dim.Fprintf(&b, "     ...%s[%s]%s...\n", r.ContextBefore, r.Text, r.ContextAfter)
			}
		}
	}

	fmt.Fprintf(&b, "\n%d entities redacted from %d candidates",
		result.Metadata.TotalRedactions, result.Metadata.CandidatesConsidered)
	if len(result.Metadata.MethodsDegraded) > 0 {
		medium.Fprintf(&b, " (degraded: %s)", strings.Join(result.Metadata.MethodsDegraded, ", "))
	}
	if verbose {
		dim.Fprintf(&b, "\nrun %s: methods %s, %dms",
			result.Metadata.RunID,
			strings.Join(result.Metadata.MethodsUsed, ","),
			result.Metadata.DurationMs)
	}
	return b.String()
}
