package docker

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/client"
)

// Down tears the project down: containers first, then networks, then
// (when asked) volumes. Every step is idempotent against objects that
// already vanished.
func (p *DockerPlatform) Down(ctx context.Context, project string, removeVolumes bool) error {
	p.log.Info("bringing stack down", "project", project)

	if err := p.removeContainers(ctx, project); err != nil {
		return err
	}
	if err := p.removeNetworks(ctx, project); err != nil {
		return err
	}
	if !removeVolumes {
		return nil
	}
	return p.removeVolumes(ctx, project)
}

func projectFilter(project string) client.Filters {
	return make(client.Filters).
		Add("label", LabelProject+"="+project)
}

func (p *DockerPlatform) removeContainers(ctx context.Context, project string) error {
	containers, err := p.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: projectFilter(project),
	})
	if err != nil {
		return fmt.Errorf("list project containers (project=%s): %w", project, err)
	}

	for _, c := range containers.Items {
		p.log.Debug("removing container", "id", c.ID, "service", c.Labels[LabelService])

		// Stop (best-effort) then remove.
		_, _ = p.client.ContainerStop(ctx, c.ID, client.ContainerStopOptions{})
		_, err := p.client.ContainerRemove(ctx, c.ID, client.ContainerRemoveOptions{
			Force:         true,
			RemoveVolumes: false,
		})
		if err != nil && !errdefs.IsNotFound(err) {
			return fmt.Errorf("remove container %q: %w", c.ID, err)
		}
	}
	return nil
}

func (p *DockerPlatform) removeNetworks(ctx context.Context, project string) error {
	nets, err := p.client.NetworkList(ctx, client.NetworkListOptions{
		Filters: projectFilter(project),
	})
	if err != nil {
		return fmt.Errorf("list project networks (project=%s): %w", project, err)
	}

	for _, n := range nets.Items {
		if n.ID == "" {
			continue
		}
		p.log.Debug("removing network", "name", n.Name)

		// Remove by ID to avoid name collisions.
		if _, err := p.client.NetworkRemove(ctx, n.ID, client.NetworkRemoveOptions{}); err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("remove network %q (%s): %w", n.Name, n.ID, err)
		}
	}
	return nil
}

func (p *DockerPlatform) removeVolumes(ctx context.Context, project string) error {
	vols, err := p.client.VolumeList(ctx, client.VolumeListOptions{
		Filters: projectFilter(project),
	})
	if err != nil {
		return fmt.Errorf("list project volumes (project=%s): %w", project, err)
	}

	for _, v := range vols.Items {
		if v.Name == "" {
			continue
		}
		p.log.Debug("removing volume", "name", v.Name)

		if _, err := p.client.VolumeRemove(ctx, v.Name, client.VolumeRemoveOptions{}); err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("remove volume %q: %w", v.Name, err)
		}
	}
	return nil
}
