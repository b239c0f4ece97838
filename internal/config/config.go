// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"autoredact/internal/detectors"
	"autoredact/internal/entity"
)

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults Settings `yaml:"defaults"`

	// Model bundle location for the NLP and ensemble methods
	Models struct {
		Dir            string `yaml:"dir"`
		SequenceLength int    `yaml:"sequence_length"`
		LibraryPath    string `yaml:"library_path"`
	} `yaml:"models"`

	// Local LLM endpoint for the llm method
	LLM struct {
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"llm"`

	// Profiles for different scanning scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// Settings holds the tunable engine knobs shared by defaults and
// profiles.
type Settings struct {
	Format              string  `yaml:"format"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	RedactionMethod     string  `yaml:"redaction_method"`
	CustomReplacement   string  `yaml:"custom_replacement"`
	Methods             string  `yaml:"methods"`
	DetectorBudgetMs    int     `yaml:"detector_budget_ms"`
	Verbose             bool    `yaml:"verbose"`
	Debug               bool    `yaml:"debug"`
	NoColor             bool    `yaml:"no_color"`
}

// Profile represents a named scanning profile
type Profile struct {
	Settings    `yaml:",inline"`
	Description string `yaml:"description"`
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	// Set default values
	config.Defaults.Format = "text"
	config.Defaults.ConfidenceThreshold = 0.7
	config.Defaults.RedactionMethod = string(entity.RedactBlackBox)
	config.Defaults.Methods = "pattern,context,nlp,ml_ensemble"
	config.Defaults.DetectorBudgetMs = 10000
	config.Models.SequenceLength = 256
	config.LLM.TimeoutMs = 60000

	// Add a conservative default profile: the always-available methods
	// with a high bar, suited to automated pipelines.
	config.Profiles["strict"] = Profile{
		Settings: Settings{
			Format:              "json",
			ConfidenceThreshold: 0.9,
			RedactionMethod:     string(entity.RedactBlackBox),
			Methods:             "pattern,context",
			DetectorBudgetMs:    5000,
			NoColor:             true,
		},
		Description: "High-precision pattern and context detection only",
	}

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FindConfigFile looks for a config file in standard locations
func FindConfigFile() string {
	candidates := []string{".autoredact.yaml", ".autoredact.yml"}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".autoredact.yaml"),
			filepath.Join(home, ".config", "autoredact", "config.yaml"),
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ApplyProfile overlays a named profile onto the defaults
func (c *Config) ApplyProfile(name string) error {
	profile, ok := c.Profiles[name]
	if !ok {
		available := make([]string, 0, len(c.Profiles))
		for k := range c.Profiles {
			available = append(available, k)
		}
		return detectors.NewConfigurationError("config",
			"unknown profile %q (available: %s)", name, strings.Join(available, ", "))
	}

	if profile.Format != "" {
		c.Defaults.Format = profile.Format
	}
	if profile.ConfidenceThreshold != 0 {
		c.Defaults.ConfidenceThreshold = profile.ConfidenceThreshold
	}
	if profile.RedactionMethod != "" {
		c.Defaults.RedactionMethod = profile.RedactionMethod
	}
	if profile.CustomReplacement != "" {
		c.Defaults.CustomReplacement = profile.CustomReplacement
	}
	if profile.Methods != "" {
		c.Defaults.Methods = profile.Methods
	}
	if profile.DetectorBudgetMs != 0 {
		c.Defaults.DetectorBudgetMs = profile.DetectorBudgetMs
	}
	c.Defaults.Verbose = c.Defaults.Verbose || profile.Verbose
	c.Defaults.Debug = c.Defaults.Debug || profile.Debug
	c.Defaults.NoColor = c.Defaults.NoColor || profile.NoColor

	return c.Validate()
}

// Validate checks the configuration for fatal errors
func (c *Config) Validate() error {
	if c.Defaults.ConfidenceThreshold < 0 || c.Defaults.ConfidenceThreshold > 1 {
		return detectors.NewConfigurationError("config",
			"confidence_threshold %g outside [0,1]", c.Defaults.ConfidenceThreshold)
	}
	switch entity.RedactionMethod(c.Defaults.RedactionMethod) {
	case entity.RedactBlackBox, entity.RedactCustom:
	default:
		return detectors.NewConfigurationError("config",
			"unknown redaction_method %q", c.Defaults.RedactionMethod)
	}
	if entity.RedactionMethod(c.Defaults.RedactionMethod) == entity.RedactCustom &&
		c.Defaults.CustomReplacement == "" {
		return detectors.NewConfigurationError("config",
			"custom_replacement required when redaction_method is custom_replacement")
	}
	if _, err := c.EnabledMethods(); err != nil {
		return err
	}
	if c.Defaults.Format != "text" && c.Defaults.Format != "json" {
		return detectors.NewConfigurationError("config", "unknown format %q", c.Defaults.Format)
	}
	return nil
}

// EnabledMethods parses the methods list into source methods
func (c *Config) EnabledMethods() ([]entity.SourceMethod, error) {
	raw := strings.Split(c.Defaults.Methods, ",")
	seen := make(map[entity.SourceMethod]bool)
	var out []entity.SourceMethod
	for _, item := range raw {
		item = strings.TrimSpace(strings.ToLower(item))
		if item == "" {
			continue
		}
		if item == "all" {
			return []entity.SourceMethod{
				entity.SourcePattern, entity.SourceContext, entity.SourceNLP,
				entity.SourceMLEnsemble, entity.SourceLLM,
			}, nil
		}
		method, ok := entity.ParseMethod(item)
		if !ok {
			return nil, detectors.NewConfigurationError("config", "unknown detection method %q", item)
		}
		if !seen[method] {
			seen[method] = true
			out = append(out, method)
		}
	}
	if len(out) == 0 {
		return nil, detectors.NewConfigurationError("config", "no detection methods enabled")
	}
	return out, nil
}
