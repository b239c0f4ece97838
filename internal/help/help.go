// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"autoredact/internal/entity"
)

// MethodInfo describes one detection method for the help output.
type MethodInfo struct {
	Name             string
	ShortDescription string
	Detail           string
	Requires         string
	EntityTypes      []string
	Examples         []string
}

// System renders help content for the application.
type System struct {
	methods map[string]MethodInfo
	colors  map[string]*color.Color
}

// NewSystem creates a new help system.
func NewSystem(noColor bool) *System {
	if noColor {
		color.NoColor = true
	}

	s := &System{
		methods: make(map[string]MethodInfo),
		colors: map[string]*color.Color{
			"title":   color.New(color.FgWhite, color.Bold),
			"header":  color.New(color.FgBlue, color.Bold),
			"item":    color.New(color.FgCyan),
			"example": color.New(color.FgMagenta),
			"warning": color.New(color.FgYellow),
		},
	}
	for _, info := range builtinMethods() {
		s.methods[strings.ToLower(info.Name)] = info
	}
	return s
}

// ShowGeneralHelp displays general help information.
func (h *System) ShowGeneralHelp() {
	h.colors["title"].Println("autoredact - Sensitive Entity Detection and Redaction")
	fmt.Println("=====================================================")
	fmt.Println()
	h.colors["header"].Println("USAGE:")
	fmt.Println("  autoredact --file <path> [options]")
	fmt.Println("  autoredact --text <string> [options]")
	fmt.Println()

	h.colors["header"].Println("OPTIONS:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  --file\t<path>\tPath to the input file, directory, or glob pattern (.txt, .md, .pdf)")
	fmt.Fprintln(w, "  --text\t<string>\tScan a literal text string instead of a file")
	fmt.Fprintln(w, "  --config\t<path>\tPath to configuration file (YAML)")
	fmt.Fprintln(w, "  --profile\t<name>\tProfile name to use from config file")
	fmt.Fprintln(w, "  --list-profiles\t\tList available profiles in config file")
	fmt.Fprintln(w, "  --recursive\t\tRecursively scan directories")
	fmt.Fprintln(w, "  --format\t<format>\tOutput format: text, json (default: text)")
	fmt.Fprintln(w, "  --threshold\t<value>\tConfidence threshold in [0,1] (default: 0.7)")
	fmt.Fprintln(w, "  --methods\t<methods>\tDetection methods: pattern,context,nlp,ml_ensemble,llm,all")
	fmt.Fprintln(w, "  --redact\t\tPrint the redacted text instead of the findings report")
	fmt.Fprintln(w, "  --redaction-method\t<method>\tHow to redact: black_box or custom_replacement")
	fmt.Fprintln(w, "  --replacement\t<text>\tReplacement text for custom_replacement redaction")
	fmt.Fprintln(w, "  --models-dir\t<path>\tModel bundle for the nlp and ml_ensemble methods")
	fmt.Fprintln(w, "  --llm-url\t<url>\tBase URL of the local LLM endpoint")
	fmt.Fprintln(w, "  --budget-ms\t<ms>\tPer-detector time budget in milliseconds")
	fmt.Fprintln(w, "  --output\t<path>\tWrite output to a file instead of stdout")
	fmt.Fprintln(w, "  --verbose\t\tShow context snippets and run metadata")
	fmt.Fprintln(w, "  --debug\t\tEnable debug logging to stderr")
	fmt.Fprintln(w, "  --no-color\t\tDisable colored output")
	fmt.Fprintln(w, "  --version\t\tShow version information")
	fmt.Fprintln(w, "  --help\t\tShow this help message")
	fmt.Fprintln(w, "  --help methods\t\tList all detection methods")
	fmt.Fprintln(w, "  --help <method>\t\tShow detailed help for a detection method")
	w.Flush()

	fmt.Println()
	h.colors["header"].Println("EXAMPLES:")
	h.colors["example"].Println("  autoredact --file report.pdf")
	h.colors["example"].Println("  autoredact --file notes.txt --methods pattern,context --threshold 0.9")
	h.colors["example"].Println("  autoredact --file notes.txt --redact --replacement '***' --output clean.txt")
	h.colors["example"].Println("  autoredact --text 'call 555-123-4567' --format json")
}

// ShowMethodsList lists every detection method with a one-line summary.
func (h *System) ShowMethodsList() {
	h.colors["title"].Println("Detection Methods")
	fmt.Println()

	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		info := h.methods[name]
		fmt.Fprintf(w, "  %s\t%s\n", info.Name, info.ShortDescription)
	}
	w.Flush()
	fmt.Println()
	fmt.Println("Use --help <method> for details.")
}

// ShowMethodHelp displays detailed help for one detection method.
// It returns false when the name is not a known method.
func (h *System) ShowMethodHelp(name string) bool {
	info, ok := h.methods[strings.ToLower(name)]
	if !ok {
		return false
	}

	h.colors["title"].Println(info.Name)
	fmt.Println(strings.Repeat("=", len(info.Name)))
	fmt.Println()
	fmt.Println(info.Detail)
	if info.Requires != "" {
		fmt.Println()
		h.colors["warning"].Printf("Requires: %s\n", info.Requires)
	}
	if len(info.EntityTypes) > 0 {
		fmt.Println()
		h.colors["header"].Println("ENTITY TYPES:")
		for _, t := range info.EntityTypes {
			h.colors["item"].Printf("  %s\n", t)
		}
	}
	if len(info.Examples) > 0 {
		fmt.Println()
		h.colors["header"].Println("EXAMPLES:")
		for _, e := range info.Examples {
			h.colors["example"].Printf("  %s\n", e)
		}
	}
	return true
}

func builtinMethods() []MethodInfo {
	all := make([]string, 0, 16)
	for _, t := range entity.AllTypes() {
		all = append(all, string(t))
	}

	return []MethodInfo{
		{
			Name:             string(entity.SourcePattern),
			ShortDescription: "Regular expressions with checksum and structure validation",
			Detail: "Matches structured identifiers with compiled regular expressions,\n" +
				"then scores each match with a type-specific validator: Luhn for card\n" +
				"numbers, area/group/serial rules for SSNs, entropy for API keys.\n" +
				"Always available and fully deterministic.",
			EntityTypes: []string{"EMAIL", "PHONE", "SSN", "CREDIT_CARD", "IP_ADDRESS", "URL",
				"DATE", "ZIP_CODE", "CURRENCY", "API_KEY", "PASSWORD", "SECRET",
				"INSURANCE_ID", "POLICY_NUMBER"},
			Examples: []string{"autoredact --text 'card 4111-1111-1111-1111' --methods pattern"},
		},
		{
			Name:             string(entity.SourceContext),
			ShortDescription: "Labeled-value detection using surrounding words",
			Detail: "Finds values introduced by a label such as \"SSN:\", \"Contact:\" or\n" +
				"\"Password:\". A label is strong evidence, so matches score high, but a\n" +
				"failing checksum still overrides the label. The only method that\n" +
				"detects person names without model files.",
			EntityTypes: []string{"PERSON", "EMAIL", "PHONE", "SSN", "CREDIT_CARD",
				"BANK_ACCOUNT", "API_KEY", "PASSWORD", "INSURANCE_ID", "POLICY_NUMBER"},
			Examples: []string{"autoredact --text 'Contact: John Smith' --methods context"},
		},
		{
			Name:             string(entity.SourceNLP),
			ShortDescription: "Named-entity recognition and semantic similarity",
			Detail: "Runs a token-classification model for person names and compares\n" +
				"sentence embeddings against per-type exemplars to catch entities the\n" +
				"other methods describe only loosely.",
			Requires:    "model bundle (--models-dir) with ner/ and embedding/ models",
			EntityTypes: []string{"PERSON", "EMAIL", "PHONE", "SSN", "CREDIT_CARD", "API_KEY", "PASSWORD", "INSURANCE_ID", "POLICY_NUMBER"},
		},
		{
			Name:             string(entity.SourceMLEnsemble),
			ShortDescription: "Six-classifier weighted ensemble over text features",
			Detail: "Extracts a fixed feature vector around each candidate window and\n" +
				"scores it with six classifiers combined by fixed weights. A candidate\n" +
				"is emitted only when the weighted entity score clears the internal\n" +
				"threshold and a majority of classifiers agree on the type.",
			Requires:    "model bundle (--models-dir) with ensemble/ models",
			EntityTypes: all,
		},
		{
			Name:             string(entity.SourceLLM),
			ShortDescription: "Local large-language-model extraction",
			Detail: "Sends text chunks to a local LLM endpoint with a strict JSON\n" +
				"extraction prompt and relocates the reported entities in the original\n" +
				"text. Highest priority in consolidation, and the first method dropped\n" +
				"when the endpoint is unreachable.",
			Requires:    "local LLM endpoint (--llm-url, default http://localhost:11434)",
			EntityTypes: all,
			Examples:    []string{"autoredact --file notes.txt --methods all --llm-model llama3.2"},
		},
	}
}
