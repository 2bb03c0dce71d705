package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/stackrun-dev/stackrun/models"
)

// healthPollInterval is how often the sequencer re-reads the engine's health
// status while a dependency gate is open.
const healthPollInterval = time.Second

// waitBudgetSlack pads the probe-derived deadline so the engine's own
// scheduling jitter does not produce spurious timeouts.
const waitBudgetSlack = 10 * time.Second

// waitHealthy blocks until the container's health probe reports healthy.
// The engine runs the probe; this only polls the resulting status. The wait
// is bounded by the probe's own retry/timeout budget so a wedged probe
// surfaces as an error instead of hanging the startup sequence.
func (p *DockerPlatform) waitHealthy(ctx context.Context, service, containerID string, hc *models.HealthcheckSpec) error {
	budget := hc.WaitBudget() + waitBudgetSlack
	waitCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	for {
		inspect, err := p.client.ContainerInspect(waitCtx, containerID, client.ContainerInspectOptions{})
		if err != nil {
			return fmt.Errorf("inspect service %q: %w", service, err)
		}

		state := inspect.Container.State
		if state == nil {
			return fmt.Errorf("service %q has no container state", service)
		}
		if state.Health == nil {
			return fmt.Errorf("service %q reports no health status; does its image override the healthcheck?", service)
		}

		switch state.Health.Status {
		case container.Healthy:
			return nil
		case container.Unhealthy:
			return fmt.Errorf("service %q became unhealthy after %d failing probes", service, state.Health.FailingStreak)
		}

		if !state.Running {
			return fmt.Errorf("service %q exited with status %d before becoming healthy", service, state.ExitCode)
		}

		select {
		case <-waitCtx.Done():
			return fmt.Errorf("timed out after %s waiting for service %q to become healthy", budget, service)
		case <-ticker.C:
		}
	}
}

// waitCompleted blocks until the container exits, and fails unless the exit
// status is zero. Used for one-shot dependencies such as migration steps.
func (p *DockerPlatform) waitCompleted(ctx context.Context, service, containerID string) error {
	waitC := p.client.ContainerWait(ctx, containerID, client.ContainerWaitOptions{})

	select {
	case err := <-waitC.Error:
		if err != nil {
			return fmt.Errorf("wait for service %q: %w", service, err)
		}
		return nil
	case res := <-waitC.Result:
		if res.StatusCode != 0 {
			return fmt.Errorf("service %q exited with status %d", service, res.StatusCode)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
