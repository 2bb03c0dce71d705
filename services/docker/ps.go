package docker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/client"

	"github.com/stackrun-dev/stackrun/interfaces"
)

// Ps lists the project's containers with their state and health, sorted by
// service name.
func (p *DockerPlatform) Ps(ctx context.Context, project string) ([]interfaces.ServiceStatus, error) {
	containers, err := p.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: projectFilter(project),
	})
	if err != nil {
		return nil, fmt.Errorf("list project containers (project=%s): %w", project, err)
	}

	out := make([]interfaces.ServiceStatus, 0, len(containers.Items))
	for _, c := range containers.Items {
		status := interfaces.ServiceStatus{
			Service: c.Labels[LabelService],
			ID:      shortID(c.ID),
			State:   fmt.Sprintf("%v", c.State),
			Status:  c.Status,
		}
		if len(c.Names) > 0 {
			status.Name = strings.TrimPrefix(c.Names[0], "/")
		}

		// The list summary has no health detail; inspect each container.
		inspect, err := p.client.ContainerInspect(ctx, c.ID, client.ContainerInspectOptions{})
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("inspect container %q: %w", c.ID, err)
		}
		if st := inspect.Container.State; st != nil && st.Health != nil {
			status.Health = string(st.Health.Status)
		}

		out = append(out, status)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
