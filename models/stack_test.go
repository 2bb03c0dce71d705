package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCommandUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Command
	}{
		{
			name: "string form runs through a shell",
			in:   `command: alembic upgrade head && uvicorn app.main:app`,
			want: Command{"/bin/sh", "-c", "alembic upgrade head && uvicorn app.main:app"},
		},
		{
			name: "list form is used verbatim",
			in:   `command: ["uvicorn", "app.main:app", "--port", "8000"]`,
			want: Command{"uvicorn", "app.main:app", "--port", "8000"},
		},
		{
			name: "empty string means no command",
			in:   `command: ""`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var svc ServiceSpec
			require.NoError(t, yaml.Unmarshal([]byte(tt.in), &svc))
			assert.Equal(t, tt.want, svc.Command)
		})
	}

	var svc ServiceSpec
	assert.Error(t, yaml.Unmarshal([]byte("command:\n  key: value"), &svc))
}

func TestEnvironmentUnmarshal(t *testing.T) {
	t.Run("mapping form with scalar values", func(t *testing.T) {
		var svc ServiceSpec
		in := "environment:\n  MYSQL_DATABASE: weather\n  MYSQL_PORT: 3306\n  EMPTY:\n"
		require.NoError(t, yaml.Unmarshal([]byte(in), &svc))
		assert.Equal(t, Environment{
			"MYSQL_DATABASE": "weather",
			"MYSQL_PORT":     "3306",
			"EMPTY":          "",
		}, svc.Environment)
	})

	t.Run("list form", func(t *testing.T) {
		var svc ServiceSpec
		in := "environment:\n  - A=1\n  - B=x=y\n  - C\n"
		require.NoError(t, yaml.Unmarshal([]byte(in), &svc))
		assert.Equal(t, Environment{"A": "1", "B": "x=y", "C": ""}, svc.Environment)
	})

	t.Run("sorted rendering is deterministic", func(t *testing.T) {
		env := Environment{"B": "2", "A": "1"}
		assert.Equal(t, []string{"A=1", "B=2"}, env.Sorted())
	})

	t.Run("scalar form is rejected", func(t *testing.T) {
		var svc ServiceSpec
		assert.Error(t, yaml.Unmarshal([]byte("environment: A=1"), &svc))
	})
}

func TestDependsOnUnmarshal(t *testing.T) {
	t.Run("shorthand list means service_started", func(t *testing.T) {
		var svc ServiceSpec
		require.NoError(t, yaml.Unmarshal([]byte("depends_on: [db, cache]"), &svc))
		assert.Equal(t, DependsOn{
			"db":    {Condition: ConditionStarted},
			"cache": {Condition: ConditionStarted},
		}, svc.DependsOn)
	})

	t.Run("mapping form keeps its conditions", func(t *testing.T) {
		var svc ServiceSpec
		in := "depends_on:\n  db:\n    condition: service_healthy\n  migrate:\n    condition: service_completed_successfully\n  cache: {}\n"
		require.NoError(t, yaml.Unmarshal([]byte(in), &svc))
		assert.Equal(t, DependsOn{
			"db":      {Condition: ConditionHealthy},
			"migrate": {Condition: ConditionCompleted},
			"cache":   {Condition: ConditionStarted},
		}, svc.DependsOn)
	})

	t.Run("misspelled edge field is rejected, not defaulted", func(t *testing.T) {
		var svc ServiceSpec
		in := "depends_on:\n  db:\n    conditon: service_healthy\n"
		err := yaml.Unmarshal([]byte(in), &svc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown field "conditon"`)
	})
}

func TestHealthcheckUnmarshal(t *testing.T) {
	t.Run("string test is CMD-SHELL shorthand", func(t *testing.T) {
		var svc ServiceSpec
		in := "healthcheck:\n  test: mysqladmin ping -h 127.0.0.1\n  interval: 5s\n  timeout: 3s\n  retries: 10\n  start_period: 30s\n"
		require.NoError(t, yaml.Unmarshal([]byte(in), &svc))
		hc := svc.Healthcheck
		require.NotNil(t, hc)
		assert.Equal(t, HealthcheckTest{"CMD-SHELL", "mysqladmin ping -h 127.0.0.1"}, hc.Test)
		assert.Equal(t, 5*time.Second, hc.EffectiveInterval())
		assert.Equal(t, 3*time.Second, hc.EffectiveTimeout())
		assert.Equal(t, 10, hc.EffectiveRetries())
		assert.False(t, hc.Disabled())
	})

	t.Run("NONE disables the probe", func(t *testing.T) {
		var svc ServiceSpec
		require.NoError(t, yaml.Unmarshal([]byte(`healthcheck: {test: ["NONE"]}`), &svc))
		assert.True(t, svc.Healthcheck.Disabled())
	})

	t.Run("nil probe counts as disabled", func(t *testing.T) {
		var hc *HealthcheckSpec
		assert.True(t, hc.Disabled())
	})

	t.Run("defaults apply when fields are unset", func(t *testing.T) {
		hc := &HealthcheckSpec{Test: HealthcheckTest{"CMD", "true"}}
		assert.Equal(t, DefaultProbeInterval, hc.EffectiveInterval())
		assert.Equal(t, DefaultProbeTimeout, hc.EffectiveTimeout())
		assert.Equal(t, DefaultProbeRetries, hc.EffectiveRetries())
	})

	t.Run("invalid duration is rejected", func(t *testing.T) {
		var svc ServiceSpec
		assert.Error(t, yaml.Unmarshal([]byte(`healthcheck: {interval: soon}`), &svc))
	})

	t.Run("negative duration is rejected", func(t *testing.T) {
		var svc ServiceSpec
		assert.Error(t, yaml.Unmarshal([]byte(`healthcheck: {interval: -5s}`), &svc))
	})
}

func TestWaitBudget(t *testing.T) {
	hc := &HealthcheckSpec{
		Interval:    Duration(5 * time.Second),
		Timeout:     Duration(3 * time.Second),
		Retries:     4,
		StartPeriod: Duration(30 * time.Second),
	}
	// start period plus (retries+1) windows of interval+timeout
	assert.Equal(t, 30*time.Second+5*8*time.Second, hc.WaitBudget())
}

func TestParseVolumeMount(t *testing.T) {
	tests := []struct {
		in      string
		want    VolumeMount
		wantErr bool
	}{
		{in: "mysql_data:/var/lib/mysql", want: VolumeMount{Source: "mysql_data", Target: "/var/lib/mysql"}},
		{in: "./conf:/etc/app:ro", want: VolumeMount{Source: "./conf", Target: "/etc/app", ReadOnly: true}},
		{in: "/abs/path:/data:rw", want: VolumeMount{Source: "/abs/path", Target: "/data"}},
		{in: "justapath", wantErr: true},
		{in: "name:relative/path", wantErr: true},
		{in: "name:/data:rx", wantErr: true},
		{in: ":/data", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVolumeMount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVolumeMountBind(t *testing.T) {
	assert.True(t, VolumeMount{Source: "/abs", Target: "/d"}.Bind())
	assert.True(t, VolumeMount{Source: "./rel", Target: "/d"}.Bind())
	assert.True(t, VolumeMount{Source: "../up", Target: "/d"}.Bind())
	assert.False(t, VolumeMount{Source: "named", Target: "/d"}.Bind())
}

func TestRestartPolicyValid(t *testing.T) {
	for _, p := range []RestartPolicy{"", RestartNo, RestartAlways, RestartOnFailure, RestartUnlessStopped} {
		assert.True(t, p.Valid(), string(p))
	}
	assert.False(t, RestartPolicy("sometimes").Valid())
}

func TestConditionValid(t *testing.T) {
	for _, c := range []Condition{ConditionStarted, ConditionHealthy, ConditionCompleted} {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, Condition("service_ready").Valid())
}

func TestBuildSpecUnmarshal(t *testing.T) {
	var svc ServiceSpec
	require.NoError(t, yaml.Unmarshal([]byte("build: ./web"), &svc))
	require.NotNil(t, svc.Build)
	assert.Equal(t, "./web", svc.Build.Context)

	var svc2 ServiceSpec
	require.NoError(t, yaml.Unmarshal([]byte("build:\n  context: ./web\n  dockerfile: Dockerfile.dev\n"), &svc2))
	require.NotNil(t, svc2.Build)
	assert.Equal(t, "./web", svc2.Build.Context)
	assert.Equal(t, "Dockerfile.dev", svc2.Build.Dockerfile)

	var svc3 ServiceSpec
	err := yaml.Unmarshal([]byte("build:\n  contxt: ./web\n"), &svc3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "contxt"`)
}
