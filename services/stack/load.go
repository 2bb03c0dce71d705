package stack

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/stackrun-dev/stackrun/models"
)

// Load reads the descriptor at path, interpolates ${VAR} references from the
// process environment, decodes it strictly, resolves env files relative to
// the descriptor directory and validates the result. project overrides the
// default project name (the descriptor's directory name).
func Load(path, project string) (*models.Stack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor %q: %w", path, err)
	}

	expanded, err := Interpolate(raw, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("interpolate descriptor %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)

	var st models.Stack
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("parse descriptor %q: %w", path, err)
	}
	if len(st.Services) == 0 {
		return nil, fmt.Errorf("descriptor %q declares no services", path)
	}

	if project == "" {
		project = DefaultProject(path)
	}
	st.Project = project

	baseDir := filepath.Dir(path)
	if abs, absErr := filepath.Abs(baseDir); absErr == nil {
		baseDir = abs
	}
	st.Dir = baseDir
	for name, svc := range st.Services {
		if svc == nil {
			return nil, fmt.Errorf("service %q is empty", name)
		}
		env, err := resolveEnv(baseDir, svc)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", name, err)
		}
		svc.ResolvedEnv = env
	}

	if err := Validate(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// DefaultProject derives a project name from the directory holding the
// descriptor, reduced to engine-friendly characters.
func DefaultProject(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	name := filepath.Base(filepath.Dir(abs))

	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	cleaned := strings.Trim(b.String(), "-_")
	if cleaned == "" {
		return "stack"
	}
	return cleaned
}

// resolveEnv merges the service's env files (in declaration order, later
// files overriding earlier ones) with its inline environment, which always
// wins. A blank inline value falls back to the host environment.
func resolveEnv(baseDir string, svc *models.ServiceSpec) ([]string, error) {
	merged := map[string]string{}

	for _, file := range svc.EnvFile {
		p := file
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		vars, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("read env file %q: %w", file, err)
		}
		for k, v := range vars {
			merged[k] = v
		}
	}

	for k, v := range svc.Environment {
		if v == "" {
			if host, ok := os.LookupEnv(k); ok {
				merged[k] = host
				continue
			}
		}
		merged[k] = v
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out, nil
}
