package agent

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var defaultDefinitions []byte

type Definition struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
}

// Definitions are the read-only agent configurations shared by every request.
type Definitions struct {
	Classifier           Definition `yaml:"classifier"`
	DepartmentClassifier Definition `yaml:"department_classifier"`
	HealthAssistant      Definition `yaml:"health_assistant"`
}

func DefaultDefinitions() (Definitions, error) {
	return ParseDefinitions(defaultDefinitions)
}

func ParseDefinitions(data []byte) (Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return Definitions{}, fmt.Errorf("agent: parse definitions: %w", err)
	}
	if err := defs.validate(); err != nil {
		return Definitions{}, err
	}
	return defs, nil
}

func (d Definitions) validate() error {
	var errs []error
	for key, def := range map[string]Definition{
		"classifier":            d.Classifier,
		"department_classifier": d.DepartmentClassifier,
		"health_assistant":      d.HealthAssistant,
	} {
		if def.Name == "" {
			errs = append(errs, fmt.Errorf("agent: %s: name is required", key))
		}
		if def.SystemPrompt == "" {
			errs = append(errs, fmt.Errorf("agent: %s: system_prompt is required", key))
		}
	}
	return errors.Join(errs...)
}
