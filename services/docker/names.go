package docker

import (
	"fmt"
	"strings"
)

func safeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// ContainerName derives the project-scoped container name for a service.
func ContainerName(project, service string) string {
	return fmt.Sprintf("%s-%s", safeName(project), strings.TrimSpace(service))
}

// VolumeName derives the engine name for a declared volume. Keeps names
// engine-friendly and deterministic.
func VolumeName(project, volume string) string {
	return fmt.Sprintf("%s_%s", safeName(project), safeName(volume))
}

// NetworkName derives the engine name for a declared network.
func NetworkName(project, network string) string {
	return fmt.Sprintf("%s_%s", safeName(project), safeName(network))
}

// DefaultNetworkName is the network every service joins unless the
// descriptor says otherwise.
func DefaultNetworkName(project string) string {
	return NetworkName(project, "default")
}
