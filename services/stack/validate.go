package stack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docker/go-connections/nat"

	"github.com/stackrun-dev/stackrun/models"
)

// Validate checks the structural properties of a loaded stack: dependency
// edges reference declared services and form no cycle, port specs parse,
// health probes are well-formed, and every named volume or network a service
// uses is declared at the top level. It reports the first problem found.
func Validate(st *models.Stack) error {
	if err := checkServices(st); err != nil {
		return err
	}
	if err := checkDependencies(st.Services); err != nil {
		return err
	}
	if err := checkCycles(st.Services); err != nil {
		return err
	}
	if err := checkPorts(st.Services); err != nil {
		return err
	}
	if err := checkVolumes(st); err != nil {
		return err
	}
	return checkNetworks(st)
}

// sortedServiceNames gives a stable iteration order for error messages.
func sortedServiceNames(services map[string]*models.ServiceSpec) []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkServices(st *models.Stack) error {
	for _, name := range sortedServiceNames(st.Services) {
		svc := st.Services[name]
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("stack contains a service with an empty name")
		}
		if svc.Image == "" {
			if svc.Build != nil {
				return fmt.Errorf("service %q has a build context but no image tag; build the image first and set image:", name)
			}
			return fmt.Errorf("service %q declares neither image nor build", name)
		}
		if !svc.Restart.Valid() {
			return fmt.Errorf("service %q has invalid restart policy %q", name, svc.Restart)
		}
		if err := checkHealthcheck(name, svc.Healthcheck); err != nil {
			return err
		}
	}
	return nil
}

func checkHealthcheck(service string, hc *models.HealthcheckSpec) error {
	if hc == nil || hc.Disabled() {
		return nil
	}
	if len(hc.Test) == 0 {
		return fmt.Errorf("service %q healthcheck has no test command", service)
	}
	switch hc.Test[0] {
	case "CMD", "CMD-SHELL":
		if len(hc.Test) < 2 {
			return fmt.Errorf("service %q healthcheck test %q is missing its command", service, hc.Test[0])
		}
	default:
		return fmt.Errorf("service %q healthcheck test must start with CMD, CMD-SHELL or NONE, got %q", service, hc.Test[0])
	}
	if hc.Retries < 0 {
		return fmt.Errorf("service %q healthcheck retries must not be negative", service)
	}
	return nil
}

func checkDependencies(services map[string]*models.ServiceSpec) error {
	for _, name := range sortedServiceNames(services) {
		svc := services[name]
		for dep, edge := range svc.DependsOn {
			target, ok := services[dep]
			if !ok {
				return fmt.Errorf("service %q depends_on %q, but %q does not exist", name, dep, dep)
			}
			if dep == name {
				return fmt.Errorf("service %q depends on itself", name)
			}
			if !edge.Condition.Valid() {
				return fmt.Errorf("service %q dependency on %q has unknown condition %q", name, dep, edge.Condition)
			}
			if edge.Condition == models.ConditionHealthy && target.Healthcheck.Disabled() {
				return fmt.Errorf("service %q requires %q to be healthy, but %q declares no healthcheck", name, dep, dep)
			}
		}
	}
	return nil
}

// checkCycles runs a coloring DFS over the dependency graph and reconstructs
// the offending path when it finds a back-edge.
func checkCycles(services map[string]*models.ServiceSpec) error {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]uint8, len(services))
	var path []string

	var dfs func(string) error
	dfs = func(node string) error {
		switch state[node] {
		case visiting:
			cycle := append(path[cycleStart(path, node):], node)
			return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " -> "))
		case visited:
			return nil
		}

		state[node] = visiting
		path = append(path, node)

		svc := services[node]
		deps := make([]string, 0, len(svc.DependsOn))
		for dep := range svc.DependsOn {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			if _, ok := services[dep]; !ok {
				// Existence is checked elsewhere.
				continue
			}
			if err := dfs(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[node] = visited
		return nil
	}

	for _, node := range sortedServiceNames(services) {
		if state[node] == unvisited {
			if err := dfs(node); err != nil {
				return err
			}
		}
	}
	return nil
}

func cycleStart(path []string, node string) int {
	for i, n := range path {
		if n == node {
			return i
		}
	}
	return 0
}

func checkPorts(services map[string]*models.ServiceSpec) error {
	published := map[string]string{} // "ip:port/proto" -> service
	for _, name := range sortedServiceNames(services) {
		svc := services[name]
		for _, spec := range svc.Ports {
			mappings, err := nat.ParsePortSpec(spec)
			if err != nil {
				return fmt.Errorf("service %q has invalid port %q: %w", name, spec, err)
			}
			for _, m := range mappings {
				if m.Binding.HostPort == "" {
					continue
				}
				// An unspecified host IP binds the wildcard address.
				hostIP := m.Binding.HostIP
				if hostIP == "" {
					hostIP = "0.0.0.0"
				}
				key := hostIP + ":" + m.Binding.HostPort + "/" + m.Port.Proto()
				if other, ok := published[key]; ok && other != name {
					return fmt.Errorf("services %q and %q both publish host port %s/%s",
						other, name, m.Binding.HostPort, m.Port.Proto())
				}
				published[key] = name
			}
		}
	}
	return nil
}

func checkVolumes(st *models.Stack) error {
	declared := map[string]struct{}{}
	for name := range st.Volumes {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("volumes section contains an empty name")
		}
		declared[name] = struct{}{}
	}

	for _, name := range sortedServiceNames(st.Services) {
		svc := st.Services[name]
		seenTarget := map[string]struct{}{}
		for _, m := range svc.Volumes {
			if _, ok := seenTarget[m.Target]; ok {
				return fmt.Errorf("service %q mounts %q twice", name, m.Target)
			}
			seenTarget[m.Target] = struct{}{}

			if m.Bind() {
				continue
			}
			if _, ok := declared[m.Source]; !ok {
				return fmt.Errorf("service %q mounts volume %q, which is not declared in the volumes section", name, m.Source)
			}
		}
	}
	return nil
}

func checkNetworks(st *models.Stack) error {
	for _, name := range sortedServiceNames(st.Services) {
		svc := st.Services[name]
		for _, net := range svc.Networks {
			if _, ok := st.Networks[net]; !ok {
				return fmt.Errorf("service %q joins network %q, which is not declared in the networks section", name, net)
			}
		}
	}
	return nil
}
