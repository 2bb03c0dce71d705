package docker

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"path/filepath"
	"sort"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"

	"github.com/stackrun-dev/stackrun/models"
)

// startService creates and starts one service container: ports, mounts,
// env, restart policy and health probe come from the descriptor; project, service
// and run identity go into labels. An existing container with the same name
// is replaced. Returns the started container's ID.
func (p *DockerPlatform) startService(
	ctx context.Context,
	st *models.Stack,
	run uuid.UUID,
	networks map[string]string,
	name string,
	svc *models.ServiceSpec,
) (string, error) {
	containerName := svc.ContainerName
	if containerName == "" {
		containerName = ContainerName(st.Project, name)
	}

	exposed, portMap, err := buildPortConfig(name, svc)
	if err != nil {
		return "", err
	}

	mounts, err := buildMounts(st, svc)
	if err != nil {
		return "", fmt.Errorf("service %q: %w", name, err)
	}

	attach, err := attachedNetworks(networks, svc)
	if err != nil {
		return "", fmt.Errorf("service %q: %w", name, err)
	}

	// Replace an existing same-name container so Up converges on the descriptor.
	if _, err := p.client.ContainerInspect(ctx, containerName, client.ContainerInspectOptions{}); err == nil {
		p.log.Debug("replacing existing container", "name", containerName)
		_, _ = p.client.ContainerStop(ctx, containerName, client.ContainerStopOptions{})
		if _, err := p.client.ContainerRemove(ctx, containerName, client.ContainerRemoveOptions{
			Force:         true,
			RemoveVolumes: false,
		}); err != nil {
			return "", fmt.Errorf("remove existing container %q: %w", containerName, err)
		}
	}

	cCfg := &container.Config{
		Image:        svc.Image,
		Cmd:          []string(svc.Command),
		Entrypoint:   []string(svc.Entrypoint),
		Env:          svc.ResolvedEnv,
		ExposedPorts: exposed,
		Healthcheck:  buildHealthConfig(svc.Healthcheck),
		Labels: map[string]string{
			LabelProject: st.Project,
			LabelService: name,
			LabelRun:     run.String(),
		},
	}

	hCfg := &container.HostConfig{
		Mounts:        mounts,
		PortBindings:  portMap,
		RestartPolicy: restartPolicy(svc.Restart),
	}

	endpoints := make(map[string]*network.EndpointSettings, len(attach))
	for _, engineName := range attach {
		// The service name doubles as its DNS alias on every network.
		endpoints[engineName] = &network.EndpointSettings{
			Aliases: []string{name},
		}
	}
	nCfg := &network.NetworkingConfig{EndpointsConfig: endpoints}

	containerID, err := p.createContainer(ctx, containerName, svc.Image, cCfg, hCfg, nCfg)
	if err != nil {
		return "", err
	}

	if _, err := p.client.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("start container %q: %w", containerName, err)
	}
	p.log.Info("started", "service", name, "container", containerName)

	return containerID, nil
}

// createContainer creates the container, pulling the image on demand when
// the engine does not have it locally. Create races resolve by inspecting.
func (p *DockerPlatform) createContainer(
	ctx context.Context,
	containerName, image string,
	cCfg *container.Config,
	hCfg *container.HostConfig,
	nCfg *network.NetworkingConfig,
) (string, error) {
	opts := client.ContainerCreateOptions{
		Config:           cCfg,
		HostConfig:       hCfg,
		NetworkingConfig: nCfg,
		Name:             containerName,
		Image:            image,
	}

	created, err := p.client.ContainerCreate(ctx, opts)
	if err == nil {
		return created.ID, nil
	}

	if errdefs.IsNotFound(err) {
		if pullErr := p.pullImage(ctx, image); pullErr != nil {
			return "", pullErr
		}
		created, err = p.client.ContainerCreate(ctx, opts)
		if err == nil {
			return created.ID, nil
		}
	}

	inspected, ie := p.client.ContainerInspect(ctx, containerName, client.ContainerInspectOptions{})
	if ie != nil {
		return "", fmt.Errorf("create container %q: %w", containerName, err)
	}
	return inspected.Container.ID, nil
}

func (p *DockerPlatform) pullImage(ctx context.Context, image string) error {
	p.log.Info("pulling image", "image", image)
	rc, err := p.client.ImagePull(ctx, image, client.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %q: %w", image, err)
	}
	defer rc.Close()

	// Drain the progress stream; the pull completes when it ends.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull image %q: %w", image, err)
	}
	return nil
}

func buildPortConfig(service string, svc *models.ServiceSpec) (network.PortSet, network.PortMap, error) {
	exposed := network.PortSet{}
	portMap := network.PortMap{}

	for _, spec := range svc.Ports {
		mappings, err := nat.ParsePortSpec(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("service %q has invalid port %q: %w", service, spec, err)
		}
		for _, m := range mappings {
			port, ok := network.PortFrom(uint16(m.Port.Int()), network.IPProtocol(m.Port.Proto()))
			if !ok {
				return nil, nil, fmt.Errorf("service %q has invalid port %q", service, spec)
			}
			exposed[port] = struct{}{}

			if m.Binding.HostPort == "" {
				continue
			}
			hostIP := m.Binding.HostIP
			if hostIP == "" {
				hostIP = "0.0.0.0"
			}
			addr, err := netip.ParseAddr(hostIP)
			if err != nil {
				return nil, nil, fmt.Errorf("service %q has invalid host ip %q: %w", service, hostIP, err)
			}
			portMap[port] = append(portMap[port], network.PortBinding{
				HostIP:   addr,
				HostPort: m.Binding.HostPort,
			})
		}
	}

	return exposed, portMap, nil
}

func buildMounts(st *models.Stack, svc *models.ServiceSpec) ([]mount.Mount, error) {
	mounts := make([]mount.Mount, 0, len(svc.Volumes))
	for _, vm := range svc.Volumes {
		if vm.Bind() {
			source := vm.Source
			if !filepath.IsAbs(source) {
				source = filepath.Join(st.Dir, source)
			}
			mounts = append(mounts, mount.Mount{
				Type:     mount.TypeBind,
				Source:   source,
				Target:   vm.Target,
				ReadOnly: vm.ReadOnly,
			})
			continue
		}

		spec, ok := st.Volumes[vm.Source]
		if !ok {
			return nil, fmt.Errorf("volume %q is not declared", vm.Source)
		}
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeVolume,
			Source:   volumeEngineName(st.Project, vm.Source, spec),
			Target:   vm.Target,
			ReadOnly: vm.ReadOnly,
		})
	}
	return mounts, nil
}

// attachedNetworks resolves the service's logical network list against the
// provisioned mapping, defaulting to the project network.
func attachedNetworks(networks map[string]string, svc *models.ServiceSpec) ([]string, error) {
	if len(svc.Networks) == 0 {
		return []string{networks["default"]}, nil
	}
	out := make([]string, 0, len(svc.Networks))
	for _, logical := range svc.Networks {
		engineName, ok := networks[logical]
		if !ok {
			return nil, fmt.Errorf("network %q is not declared", logical)
		}
		out = append(out, engineName)
	}
	sort.Strings(out)
	return out, nil
}

func buildHealthConfig(hc *models.HealthcheckSpec) *container.HealthConfig {
	if hc == nil {
		return nil
	}
	if hc.Disabled() {
		return &container.HealthConfig{Test: []string{"NONE"}}
	}
	return &container.HealthConfig{
		Test:        []string(hc.Test),
		Interval:    hc.EffectiveInterval(),
		Timeout:     hc.EffectiveTimeout(),
		Retries:     hc.EffectiveRetries(),
		StartPeriod: time.Duration(hc.StartPeriod),
	}
}

func restartPolicy(policy models.RestartPolicy) container.RestartPolicy {
	switch policy {
	case models.RestartAlways:
		return container.RestartPolicy{Name: container.RestartPolicyAlways}
	case models.RestartOnFailure:
		return container.RestartPolicy{Name: container.RestartPolicyOnFailure}
	case models.RestartUnlessStopped:
		return container.RestartPolicy{Name: container.RestartPolicyUnlessStopped}
	default:
		// Failures surface to the operator instead of being retried.
		return container.RestartPolicy{Name: container.RestartPolicyDisabled}
	}
}
