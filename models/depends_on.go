package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Condition is the readiness requirement a dependency edge places on its
// target before the dependent may start.
type Condition string

const (
	// ConditionStarted gates only on a successful engine start.
	ConditionStarted Condition = "service_started"
	// ConditionHealthy gates on the target's health probe reporting healthy.
	ConditionHealthy Condition = "service_healthy"
	// ConditionCompleted gates on the target exiting with a zero status,
	// for one-shot dependencies such as migration steps.
	ConditionCompleted Condition = "service_completed_successfully"
)

// Valid reports whether c is a member of the condition enum.
func (c Condition) Valid() bool {
	switch c {
	case ConditionStarted, ConditionHealthy, ConditionCompleted:
		return true
	}
	return false
}

// DependsOnSpec is one dependency edge.
type DependsOnSpec struct {
	Condition Condition `yaml:"condition,omitempty"`
}

// DependsOn maps dependency service names to their required condition.
// The shorthand list form ("depends_on: [db]") means service_started.
type DependsOn map[string]DependsOnSpec

func (d *DependsOn) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		out := make(DependsOn, len(names))
		for _, name := range names {
			out[name] = DependsOnSpec{Condition: ConditionStarted}
		}
		*d = out
		return nil
	case yaml.MappingNode:
		// Mapping keys are service names; each edge body only knows
		// "condition".
		for i := 1; i < len(value.Content); i += 2 {
			if err := knownFields(value.Content[i], "condition"); err != nil {
				return err
			}
		}
		raw := map[string]DependsOnSpec{}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		out := make(DependsOn, len(raw))
		for name, spec := range raw {
			if spec.Condition == "" {
				spec.Condition = ConditionStarted
			}
			out[name] = spec
		}
		*d = out
		return nil
	default:
		return fmt.Errorf("line %d: depends_on must be a list or a mapping", value.Line)
	}
}
