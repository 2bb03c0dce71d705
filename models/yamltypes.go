package models

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Command is a container command written either as an argv list or as a
// single string. The string form runs through a shell, matching the
// behavior of the external runtime this descriptor format comes from.
type Command []string

func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*c = nil
			return nil
		}
		*c = Command{"/bin/sh", "-c", s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*c = Command(list)
		return nil
	default:
		return fmt.Errorf("line %d: command must be a string or a list of strings", value.Line)
	}
}

// StringList accepts both a bare string and a list of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = StringList(list)
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// Environment accepts either the mapping form (KEY: value) or the list form
// (KEY=value). A list entry without '=' keeps an empty value; the loader may
// fill it from the host environment.
type Environment map[string]string

func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		raw := map[string]any{}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		out := make(Environment, len(raw))
		for k, v := range raw {
			if v == nil {
				out[k] = ""
				continue
			}
			out[k] = fmt.Sprint(v)
		}
		*e = out
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		out := make(Environment, len(list))
		for _, entry := range list {
			k, v := splitEnvEntry(entry)
			if k == "" {
				return fmt.Errorf("line %d: invalid environment entry %q", value.Line, entry)
			}
			out[k] = v
		}
		*e = out
		return nil
	default:
		return fmt.Errorf("line %d: environment must be a mapping or a list", value.Line)
	}
}

// Sorted renders the environment as deterministic KEY=value pairs.
func (e Environment) Sorted() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// knownFields rejects mapping keys outside the given set. Custom
// unmarshalers decode their nodes outside the loader's strict decoder, so
// field strictness must be re-applied on the node itself.
func knownFields(value *yaml.Node, known ...string) error {
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		ok := false
		for _, k := range known {
			if key.Value == k {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("line %d: unknown field %q", key.Line, key.Value)
		}
	}
	return nil
}

func splitEnvEntry(entry string) (key, value string) {
	for i := 0; i < len(entry); i++ {
		if entry[i] == '=' {
			return entry[:i], entry[i+1:]
		}
	}
	return entry, ""
}
