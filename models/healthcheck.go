package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine defaults, applied when the descriptor leaves a probe field unset.
const (
	DefaultProbeInterval = 30 * time.Second
	DefaultProbeTimeout  = 30 * time.Second
	DefaultProbeRetries  = 3
)

// HealthcheckSpec is the health probe attached to a service: a command whose
// exit status decides whether the service is ready to accept dependents.
// Probe execution belongs to the engine; this tool only hands the numbers
// over and polls the resulting status.
type HealthcheckSpec struct {
	Test        HealthcheckTest `yaml:"test,omitempty"`
	Interval    Duration        `yaml:"interval,omitempty"`
	Timeout     Duration        `yaml:"timeout,omitempty"`
	Retries     int             `yaml:"retries,omitempty"`
	StartPeriod Duration        `yaml:"start_period,omitempty"`
	Disable     bool            `yaml:"disable,omitempty"`
}

// Disabled reports whether the probe is explicitly turned off.
func (h *HealthcheckSpec) Disabled() bool {
	if h == nil {
		return true
	}
	if h.Disable {
		return true
	}
	return len(h.Test) == 1 && h.Test[0] == "NONE"
}

// EffectiveInterval returns the probe interval with the engine default applied.
func (h *HealthcheckSpec) EffectiveInterval() time.Duration {
	if h == nil || h.Interval <= 0 {
		return DefaultProbeInterval
	}
	return time.Duration(h.Interval)
}

// EffectiveTimeout returns the probe timeout with the engine default applied.
func (h *HealthcheckSpec) EffectiveTimeout() time.Duration {
	if h == nil || h.Timeout <= 0 {
		return DefaultProbeTimeout
	}
	return time.Duration(h.Timeout)
}

// EffectiveRetries returns the retry count with the engine default applied.
func (h *HealthcheckSpec) EffectiveRetries() int {
	if h == nil || h.Retries <= 0 {
		return DefaultProbeRetries
	}
	return h.Retries
}

// WaitBudget bounds how long a dependent waits for this probe to settle:
// the start period plus one full interval+timeout window per allowed attempt.
// A probe that never leaves "starting" within the budget is treated as failed.
func (h *HealthcheckSpec) WaitBudget() time.Duration {
	start := time.Duration(0)
	if h != nil {
		start = time.Duration(h.StartPeriod)
	}
	attempts := time.Duration(h.EffectiveRetries() + 1)
	return start + attempts*(h.EffectiveInterval()+h.EffectiveTimeout())
}

// HealthcheckTest is the probe command. The list form keeps its directive
// (CMD, CMD-SHELL or NONE); the string form is shorthand for CMD-SHELL.
type HealthcheckTest []string

func (t *HealthcheckTest) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*t = HealthcheckTest{"CMD-SHELL", s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*t = HealthcheckTest(list)
		return nil
	default:
		return fmt.Errorf("line %d: healthcheck test must be a string or a list", value.Line)
	}
}

// Duration is a time.Duration that unmarshals from strings like "5s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"30s\"", value.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: duration %q must not be negative", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
