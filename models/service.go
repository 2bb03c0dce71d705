package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RestartPolicy is the declarative rule governing whether a stopped or
// crashed container is relaunched by the engine.
type RestartPolicy string

const (
	RestartNo            RestartPolicy = "no"
	RestartAlways        RestartPolicy = "always"
	RestartOnFailure     RestartPolicy = "on-failure"
	RestartUnlessStopped RestartPolicy = "unless-stopped"
)

// Valid reports whether p is a member of the policy enum. The empty value is
// valid and means "no".
func (p RestartPolicy) Valid() bool {
	switch p {
	case "", RestartNo, RestartAlways, RestartOnFailure, RestartUnlessStopped:
		return true
	}
	return false
}

// BuildSpec points at a local build context. The runner does not build
// images itself; a build service must carry an image tag produced ahead of
// time, and the context is kept so validation can say so precisely.
type BuildSpec struct {
	Context    string `yaml:"context,omitempty"`
	Dockerfile string `yaml:"dockerfile,omitempty"`
}

func (b *BuildSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*b = BuildSpec{Context: s}
		return nil
	}
	if err := knownFields(value, "context", "dockerfile"); err != nil {
		return err
	}
	type plain BuildSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*b = BuildSpec(p)
	return nil
}

// VolumeMount attaches either a named volume or a host path to a container
// path, parsed from the usual "source:target[:ro]" string form. A source
// starting with '/', './' or '../' is a bind mount; anything else names a
// volume declared in the top-level volumes map.
type VolumeMount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// Bind reports whether the mount is a host-path bind rather than a named volume.
func (m VolumeMount) Bind() bool {
	return strings.HasPrefix(m.Source, "/") ||
		strings.HasPrefix(m.Source, "./") ||
		strings.HasPrefix(m.Source, "../")
}

func (m VolumeMount) String() string {
	s := m.Source + ":" + m.Target
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

func (m VolumeMount) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *VolumeMount) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: volume mount must be a string", value.Line)
	}
	parsed, err := ParseVolumeMount(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = parsed
	return nil
}

// ParseVolumeMount parses "source:target[:mode]" into a VolumeMount.
func ParseVolumeMount(s string) (VolumeMount, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return VolumeMount{}, fmt.Errorf("invalid volume mount %q, want source:target[:ro]", s)
	}
	m := VolumeMount{Source: strings.TrimSpace(parts[0]), Target: strings.TrimSpace(parts[1])}
	if m.Source == "" {
		return VolumeMount{}, fmt.Errorf("volume mount %q has an empty source", s)
	}
	if !strings.HasPrefix(m.Target, "/") {
		return VolumeMount{}, fmt.Errorf("volume mount %q target must be an absolute path", s)
	}
	if len(parts) == 3 {
		switch parts[2] {
		case "ro":
			m.ReadOnly = true
		case "rw", "":
		default:
			return VolumeMount{}, fmt.Errorf("volume mount %q has unknown mode %q", s, parts[2])
		}
	}
	return m, nil
}

// ServiceSpec is one node of the stack: an image (or pre-built build
// context), the process to run, its wiring (ports, env, mounts, networks)
// and the conditions under which it may start.
type ServiceSpec struct {
	Image         string           `yaml:"image,omitempty"`
	Build         *BuildSpec       `yaml:"build,omitempty"`
	ContainerName string           `yaml:"container_name,omitempty"`
	Command       Command          `yaml:"command,omitempty"`
	Entrypoint    Command          `yaml:"entrypoint,omitempty"`
	Ports         []string         `yaml:"ports,omitempty"`
	EnvFile       StringList       `yaml:"env_file,omitempty"`
	Environment   Environment      `yaml:"environment,omitempty"`
	Volumes       []VolumeMount    `yaml:"volumes,omitempty"`
	Networks      StringList       `yaml:"networks,omitempty"`
	DependsOn     DependsOn        `yaml:"depends_on,omitempty"`
	Restart       RestartPolicy    `yaml:"restart,omitempty"`
	Healthcheck   *HealthcheckSpec `yaml:"healthcheck,omitempty"`

	// ResolvedEnv is the merged env_file + environment result in KEY=value
	// form, filled in by the loader. Inline environment wins over files.
	ResolvedEnv []string `yaml:"-"`
}
