package models

// Stack is a parsed deployment descriptor: a set of services plus the named
// volumes and networks they may reference. It is read once per command and
// never mutated afterwards.
type Stack struct {
	Services map[string]*ServiceSpec `yaml:"services"`
	Volumes  map[string]VolumeSpec   `yaml:"volumes,omitempty"`
	Networks map[string]NetworkSpec  `yaml:"networks,omitempty"`

	// Project scopes every object created for this stack. Set by the loader
	// (flag value or descriptor directory name), not part of the file.
	Project string `yaml:"-"`

	// Dir is the descriptor's directory, the base for relative bind mounts
	// and env file paths. Set by the loader.
	Dir string `yaml:"-"`
}

// VolumeSpec declares a named volume backed by the engine's volume driver.
// External volumes are expected to exist already and are never created or
// removed by this tool.
type VolumeSpec struct {
	Name     string `yaml:"name,omitempty"`
	Driver   string `yaml:"driver,omitempty"`
	External bool   `yaml:"external,omitempty"`
}

// NetworkSpec declares a network services can join. The zero value means a
// project-scoped bridge network created on demand.
type NetworkSpec struct {
	Name     string `yaml:"name,omitempty"`
	Driver   string `yaml:"driver,omitempty"`
	External bool   `yaml:"external,omitempty"`
}
