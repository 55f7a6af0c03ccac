package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of hook calls.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Format selects the report encoding, "text" (default) or "json".
	Format string `yaml:"format,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Expect is checked after all steps have run. Optional.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Step is exactly one hook call.
type Step struct {
	Pre  *PreStep  `yaml:"pre,omitempty"`
	Post *PostStep `yaml:"post,omitempty"`
}

// PreStep calls the pre hook.
type PreStep struct {
	// Unit is a scenario-local label used by later post steps.
	Unit string `yaml:"unit"`

	// Identity is passed to the hook; empty means the placeholder.
	Identity string `yaml:"identity,omitempty"`

	Source string `yaml:"source"`
}

// PostStep calls the post hook.
type PostStep struct {
	// Unit pairs this post with the pre step of the same label.
	Unit string `yaml:"unit,omitempty"`

	// Identity is used when Unit is empty: the post pairs with the most
	// recent unmatched pre for this identity.
	Identity string `yaml:"identity,omitempty"`

	Output string `yaml:"output"`
}

// Expectation describes the expected outcome of a run.
type Expectation struct {
	// Reports is the number of reports the hooks should write.
	Reports int `yaml:"reports"`

	// Errors lists hook error codes in the order they occur.
	Errors []string `yaml:"errors,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch s.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", s.Format)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Pre != nil && step.Post != nil:
			return fmt.Errorf("steps[%d]: only one of pre or post allowed", i)
		case step.Pre != nil:
			if step.Pre.Unit == "" {
				return fmt.Errorf("steps[%d].pre: unit is required", i)
			}
		case step.Post != nil:
		default:
			return fmt.Errorf("steps[%d]: pre or post is required", i)
		}
	}

	if s.Expect != nil && s.Expect.Reports < 0 {
		return fmt.Errorf("expect.reports must be non-negative")
	}
	return nil
}
