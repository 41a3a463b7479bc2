package sizing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	apierrors "sizingcli/internal/errors"
)

// ScenarioSpec is the YAML form of a Scenario
type ScenarioSpec struct {
	Name     string    `yaml:"name"`
	Weights  []float64 `yaml:"weights"`
	Outcomes []float64 `yaml:"outcomes"`
	Gamma    float64   `yaml:"gamma"`
	Impact   struct {
		Model    string  `yaml:"model"`
		Strength float64 `yaml:"strength"`
	} `yaml:"impact"`
}

// ScenarioFile is the document read by LoadScenarios:
//
//	grid:
//	  step: 0.02
//	  upper: 1
//	scenarios:
//	  - name: base
//	    weights: [0.25, 0.5, 0.25]
//	    outcomes: [-0.2, 0.1, 0.4]
//	    gamma: 2
//	    impact: {model: linear, strength: 0.05}
type ScenarioFile struct {
	Grid      *Grid          `yaml:"grid"`
	Scenarios []ScenarioSpec `yaml:"scenarios"`
}

// Scenario builds and validates the problem described by s
func (s ScenarioSpec) Scenario() (Scenario, error) {
	tau, err := NewImpact(s.Impact.Model, s.Impact.Strength)
	if err != nil {
		return Scenario{}, err
	}
	sc := Scenario{
		Name: s.Name,
		Problem: Problem{
			Weights:  s.Weights,
			Outcomes: s.Outcomes,
			Gamma:    s.Gamma,
			Impact:   tau,
		},
	}
	if err := sc.Problem.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// ParseScenarios decodes a scenario document. A missing grid section yields nil.
func ParseScenarios(data []byte) ([]Scenario, *Grid, error) {
	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, apierrors.Wrap(apierrors.CodeConfig, "parse scenario file", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, nil, apierrors.New(apierrors.CodeConfig, "scenario file defines no scenarios")
	}

	scenarios := make([]Scenario, 0, len(file.Scenarios))
	seen := make(map[string]bool, len(file.Scenarios))
	for i, spec := range file.Scenarios {
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("scenario_%d", i+1)
		}
		if seen[spec.Name] {
			return nil, nil, apierrors.New(apierrors.CodeConfig, fmt.Sprintf("duplicate scenario name %q", spec.Name))
		}
		seen[spec.Name] = true

		sc, err := spec.Scenario()
		if err != nil {
			return nil, nil, fmt.Errorf("scenario %q: %w", spec.Name, err)
		}
		scenarios = append(scenarios, sc)
	}

	if file.Grid != nil {
		if err := file.Grid.Validate(); err != nil {
			return nil, nil, fmt.Errorf("scenario grid: %w", err)
		}
	}
	return scenarios, file.Grid, nil
}

// LoadScenarios reads and decodes a scenario file
func LoadScenarios(path string) ([]Scenario, *Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, apierrors.Wrap(apierrors.CodeIO, fmt.Sprintf("read scenario file %s", path), err)
	}
	return ParseScenarios(data)
}
