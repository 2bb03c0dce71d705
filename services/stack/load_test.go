package stack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackrun-dev/stackrun/models"
)

func writeDescriptor(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "stack.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalDescriptor = `
services:
  web:
    image: weather-api:latest
    command: alembic upgrade head && uvicorn app.main:app
    ports:
      - "8000:8000"
    env_file:
      - web.env
    environment:
      DEBUG: "1"
    restart: "no"
    depends_on:
      db:
        condition: service_healthy
  db:
    image: mysql:8.0
    volumes:
      - mysql_data:/var/lib/mysql
    healthcheck:
      test: ["CMD", "mysqladmin", "ping"]
      interval: 5s
      retries: 10
volumes:
  mysql_data:
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web.env"),
		[]byte("SECRET_KEY=s3cret\nDEBUG=0\n"), 0o644))
	path := writeDescriptor(t, dir, minimalDescriptor)

	st, err := Load(path, "weather")
	require.NoError(t, err)

	assert.Equal(t, "weather", st.Project)
	assert.Equal(t, dir, st.Dir)
	require.Len(t, st.Services, 2)

	web := st.Services["web"]
	require.NotNil(t, web)
	assert.Equal(t, models.Command{"/bin/sh", "-c", "alembic upgrade head && uvicorn app.main:app"}, web.Command)
	assert.Equal(t, models.DependsOn{"db": {Condition: models.ConditionHealthy}}, web.DependsOn)

	// Inline environment wins over the env file.
	assert.Equal(t, []string{"DEBUG=1", "SECRET_KEY=s3cret"}, web.ResolvedEnv)

	db := st.Services["db"]
	require.NotNil(t, db)
	require.NotNil(t, db.Healthcheck)
	assert.Equal(t, 10, db.Healthcheck.EffectiveRetries())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, `
services:
  web:
    image: x
    replicas: 3
`)
	_, err := Load(path, "")
	assert.Error(t, err)
}

func TestLoadRejectsMisspelledDependsOnCondition(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, `
services:
  web:
    image: x
    depends_on:
      db:
        conditon: service_healthy
  db:
    image: mysql:8.0
    healthcheck:
      test: mysqladmin ping
`)
	_, err := Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "conditon"`)
}

func TestLoadRejectsEmptyDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, "volumes: {}\n")
	_, err := Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares no services")
}

func TestLoadMissingEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDescriptor(t, dir, `
services:
  web:
    image: x
    env_file: ghost.env
`)
	_, err := Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.env")
}

func TestLoadInterpolatesEnvironment(t *testing.T) {
	t.Setenv("STACK_TEST_IMAGE", "mysql:8.0")

	dir := t.TempDir()
	path := writeDescriptor(t, dir, `
services:
  db:
    image: ${STACK_TEST_IMAGE:-mariadb}
`)
	st, err := Load(path, "p")
	require.NoError(t, err)
	assert.Equal(t, "mysql:8.0", st.Services["db"].Image)
}

func TestLoadBlankInlineValueFallsBackToHost(t *testing.T) {
	t.Setenv("STACK_TEST_TOKEN", "from-host")

	dir := t.TempDir()
	path := writeDescriptor(t, dir, `
services:
  web:
    image: x
    environment:
      STACK_TEST_TOKEN:
`)
	st, err := Load(path, "p")
	require.NoError(t, err)
	assert.Contains(t, st.Services["web"].ResolvedEnv, "STACK_TEST_TOKEN=from-host")
}

func TestDefaultProject(t *testing.T) {
	assert.Equal(t, "weather-app", DefaultProject("/srv/weather-app/stack.yml"))
	assert.Equal(t, "my-proj", DefaultProject("/srv/My Proj/stack.yml"))
	assert.Equal(t, "stack", DefaultProject("/___/stack.yml"))
}
