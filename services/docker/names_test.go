package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "weather-web", ContainerName("weather", "web"))
	assert.Equal(t, "weather-web", ContainerName(" Weather ", " web "))
	assert.Equal(t, "weather_mysql_data", VolumeName("weather", "mysql_data"))
	assert.Equal(t, "my-app_data", VolumeName("My App", "Data"))
	assert.Equal(t, "weather_backend", NetworkName("weather", "backend"))
	assert.Equal(t, "weather_default", DefaultNetworkName("weather"))
}
