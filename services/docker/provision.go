package docker

import (
	"context"
	"fmt"
	"sort"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"github.com/moby/moby/client"

	"github.com/stackrun-dev/stackrun/models"
)

// EnsureVolumes creates every declared, non-external volume that does not
// exist yet. External volumes are only verified. Creation is race-safe: if
// the engine reports a conflict, a re-inspect decides.
func (p *DockerPlatform) EnsureVolumes(ctx context.Context, st *models.Stack, run uuid.UUID) error {
	names := make([]string, 0, len(st.Volumes))
	for name := range st.Volumes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, logical := range names {
		spec := st.Volumes[logical]
		name := volumeEngineName(st.Project, logical, spec)

		_, err := p.client.VolumeInspect(ctx, name, client.VolumeInspectOptions{})
		if err == nil {
			continue
		}
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("inspect volume %q: %w", name, err)
		}
		if spec.External {
			return fmt.Errorf("external volume %q does not exist", name)
		}

		p.log.Debug("creating volume", "name", name)
		_, err = p.client.VolumeCreate(ctx, client.VolumeCreateOptions{
			Name:   name,
			Driver: spec.Driver,
			Labels: map[string]string{
				LabelProject: st.Project,
				LabelRun:     run.String(),
				LabelVolume:  logical,
			},
		})
		if err != nil {
			if _, ie := p.client.VolumeInspect(ctx, name, client.VolumeInspectOptions{}); ie == nil {
				continue
			}
			return fmt.Errorf("create volume %q: %w", name, err)
		}
	}

	return nil
}

// EnsureNetworks creates the project's default network plus every declared,
// non-external network, and returns the logical-to-engine name mapping
// services attach through. The "default" key is always present.
func (p *DockerPlatform) EnsureNetworks(ctx context.Context, st *models.Stack, run uuid.UUID) (map[string]string, error) {
	logical := make([]string, 0, len(st.Networks))
	for name := range st.Networks {
		logical = append(logical, name)
	}
	sort.Strings(logical)

	mapping := make(map[string]string, len(logical)+1)

	defaultName := DefaultNetworkName(st.Project)
	if err := p.ensureNetwork(ctx, st.Project, run, "default", defaultName, false); err != nil {
		return nil, err
	}
	mapping["default"] = defaultName

	for _, name := range logical {
		spec := st.Networks[name]
		engineName := networkEngineName(st.Project, name, spec)
		if err := p.ensureNetwork(ctx, st.Project, run, name, engineName, spec.External); err != nil {
			return nil, err
		}
		mapping[name] = engineName
	}

	return mapping, nil
}

func (p *DockerPlatform) ensureNetwork(ctx context.Context, project string, run uuid.UUID, logical, name string, external bool) error {
	_, err := p.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{})
	if err == nil {
		return nil
	}
	if external {
		return fmt.Errorf("external network %q not found: %w", name, err)
	}

	p.log.Debug("creating network", "name", name)
	_, err = p.client.NetworkCreate(ctx, name, client.NetworkCreateOptions{
		Labels: map[string]string{
			LabelProject: project,
			LabelRun:     run.String(),
			LabelNetwork: logical,
		},
	})
	if err != nil {
		// Created concurrently is fine; re-inspect decides.
		if _, ie := p.client.NetworkInspect(ctx, name, client.NetworkInspectOptions{}); ie != nil {
			return fmt.Errorf("create network %q: %w", name, err)
		}
	}
	return nil
}

func volumeEngineName(project, logical string, spec models.VolumeSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	if spec.External {
		return logical
	}
	return VolumeName(project, logical)
}

func networkEngineName(project, logical string, spec models.NetworkSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	if spec.External {
		return logical
	}
	return NetworkName(project, logical)
}
