package interfaces

import (
	"context"

	"github.com/stackrun-dev/stackrun/models"
)

// Platform realizes a stack descriptor on a container runtime.
type Platform interface {
	Up(ctx context.Context, st *models.Stack, opts UpOptions) error
	Down(ctx context.Context, project string, removeVolumes bool) error
	Ps(ctx context.Context, project string) ([]ServiceStatus, error)
}

// UpOptions tunes a single Up invocation.
type UpOptions struct {
	// Detach returns once every service is up instead of following logs.
	Detach bool
}

// ServiceStatus is one row of a Ps listing.
type ServiceStatus struct {
	Service string
	Name    string
	ID      string
	State   string
	Status  string
	Health  string
}
