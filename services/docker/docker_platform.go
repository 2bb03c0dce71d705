package docker

import (
	"github.com/moby/moby/client"

	"github.com/stackrun-dev/stackrun/interfaces"
	"github.com/stackrun-dev/stackrun/pkg/logger"
)

// Label keys scoping engine objects (containers, volumes, networks) to the
// stack that created them.
const (
	LabelProject = "stackrun.project"
	LabelService = "stackrun.service"
	LabelRun     = "stackrun.run"
	LabelVolume  = "stackrun.volume"
	LabelNetwork = "stackrun.network"
)

// DockerPlatform implements interfaces.Platform against the Docker Engine API.
type DockerPlatform struct {
	client *client.Client
	log    *logger.Logger
}

var _ interfaces.Platform = (*DockerPlatform)(nil)

// NewDockerPlatform initializes the engine client from environment variables
// (e.g. DOCKER_HOST) with API version negotiation.
func NewDockerPlatform() (*DockerPlatform, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, err
	}

	return &DockerPlatform{
		client: c,
		log:    logger.Get(),
	}, nil
}
