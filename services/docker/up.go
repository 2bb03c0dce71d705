package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/moby/moby/client"

	"github.com/stackrun-dev/stackrun/interfaces"
	"github.com/stackrun-dev/stackrun/models"
	"github.com/stackrun-dev/stackrun/services"
	"github.com/stackrun-dev/stackrun/services/stack"
)

// Up realizes the stack: volumes and networks first, then services in
// dependency order, each gated on its depends_on conditions. In attached
// mode it then follows every container's logs until the context is
// cancelled or all containers exit.
func (p *DockerPlatform) Up(ctx context.Context, st *models.Stack, opts interfaces.UpOptions) error {
	run := uuid.New()
	p.log.Info("bringing stack up", "project", st.Project, "run", run.String())

	if err := p.EnsureVolumes(ctx, st, run); err != nil {
		return err
	}
	networks, err := p.EnsureNetworks(ctx, st, run)
	if err != nil {
		return err
	}

	order, err := stack.StartOrder(st.Services)
	if err != nil {
		return err
	}

	started := make(map[string]string, len(st.Services))
	for _, name := range order {
		svc := st.Services[name]

		if err := p.awaitDependencies(ctx, st, started, name, svc); err != nil {
			return err
		}

		id, err := p.startService(ctx, st, run, networks, name, svc)
		if err != nil {
			return err
		}
		started[name] = id
	}

	if opts.Detach {
		return nil
	}
	return p.followLogs(ctx, started)
}

// awaitDependencies blocks until every depends_on edge of the service holds.
// Dependencies were started earlier by construction of the start order.
func (p *DockerPlatform) awaitDependencies(
	ctx context.Context,
	st *models.Stack,
	started map[string]string,
	name string,
	svc *models.ServiceSpec,
) error {
	deps := make([]string, 0, len(svc.DependsOn))
	for dep := range svc.DependsOn {
		deps = append(deps, dep)
	}
	sort.Strings(deps)

	for _, dep := range deps {
		edge := svc.DependsOn[dep]
		depID, ok := started[dep]
		if !ok {
			return fmt.Errorf("service %q dependency %q was never started", name, dep)
		}

		switch edge.Condition {
		case models.ConditionHealthy:
			p.log.Info("waiting for dependency", "service", name, "dependency", dep, "condition", edge.Condition)
			if err := p.waitHealthy(ctx, dep, depID, st.Services[dep].Healthcheck); err != nil {
				return err
			}
		case models.ConditionCompleted:
			p.log.Info("waiting for dependency", "service", name, "dependency", dep, "condition", edge.Condition)
			if err := p.waitCompleted(ctx, dep, depID); err != nil {
				return err
			}
		default:
			// service_started: the dependency is already running.
		}
	}
	return nil
}

// followLogs streams every started container's output with per-service
// prefixes until all streams end or the context is cancelled.
func (p *DockerPlatform) followLogs(ctx context.Context, started map[string]string) error {
	width := 0
	for name := range started {
		if len(name) > width {
			width = len(name)
		}
	}

	type logStream struct {
		name string
		rc   io.ReadCloser
	}
	streams := make([]logStream, 0, len(started))
	for name, id := range started {
		rc, err := p.client.ContainerLogs(ctx, id, client.ContainerLogsOptions{
			ShowStdout: true,
			ShowStderr: true,
			Follow:     true,
			Since:      "0",
		})
		if err != nil {
			for _, s := range streams {
				s.rc.Close()
			}
			return fmt.Errorf("follow logs for %q: %w", name, err)
		}
		streams = append(streams, logStream{name: name, rc: rc})
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, s := range streams {
		out := services.NewPrefixWriter(os.Stdout, s.name, width, &mu)
		errw := services.NewPrefixWriter(os.Stderr, s.name, width, &mu)

		wg.Add(1)
		go func(name string, rc io.ReadCloser) {
			defer wg.Done()
			defer rc.Close()
			if err := services.DemuxEngineLogs(out, errw, rc); err != nil && ctx.Err() == nil {
				p.log.Warn("log stream ended", "service", name, "error", err)
			}
		}(s.name, s.rc)
	}

	wg.Wait()
	if ctx.Err() != nil {
		// Interrupted by the operator; containers keep running.
		p.log.Info("log streaming stopped")
	}
	return nil
}
