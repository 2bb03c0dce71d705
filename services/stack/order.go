package stack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stackrun-dev/stackrun/models"
)

// StartOrder returns the service names in an order that satisfies every
// depends_on edge, ties broken alphabetically so repeated runs behave the
// same. It fails on cycles, though Validate reports those with a nicer
// message first.
func StartOrder(services map[string]*models.ServiceSpec) ([]string, error) {
	indegree := make(map[string]int, len(services))
	dependents := make(map[string][]string, len(services))

	for name, svc := range services {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for dep := range svc.DependsOn {
			if _, ok := services[dep]; !ok {
				return nil, fmt.Errorf("service %q depends_on unknown service %q", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ready := make([]string, 0, len(services))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(services))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		woken := false
		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
				woken = true
			}
		}
		if woken {
			sort.Strings(ready)
		}
	}

	if len(order) != len(services) {
		stuck := make([]string, 0)
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("dependency cycle involving: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}
