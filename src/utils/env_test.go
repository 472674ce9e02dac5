package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitEnvironmentVariables(t *testing.T) {
	t.Run("loads development file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DEV_ENV_FILENAME), []byte("SHIOAJI_TEST_KEY=from-file\n"), 0o600))
		t.Setenv("ENV", "")
		t.Setenv("GO_ENV", "")
		t.Setenv("SHIOAJI_TEST_KEY", "")
		os.Unsetenv("SHIOAJI_TEST_KEY")

		require.NoError(t, InitEnvironmentVariables(dir))
		assert.Equal(t, "from-file", os.Getenv("SHIOAJI_TEST_KEY"))
	})

	t.Run("process env wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DEV_ENV_FILENAME), []byte("SHIOAJI_TEST_KEY=from-file\n"), 0o600))
		t.Setenv("ENV", "")
		t.Setenv("GO_ENV", "")
		t.Setenv("SHIOAJI_TEST_KEY", "from-process")

		require.NoError(t, InitEnvironmentVariables(dir))
		assert.Equal(t, "from-process", os.Getenv("SHIOAJI_TEST_KEY"))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("ENV", "")
		t.Setenv("GO_ENV", "production")
		assert.NoError(t, InitEnvironmentVariables(t.TempDir()))
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DEV_ENV_FILENAME), []byte("NOT VALID '\n"), 0o600))
		t.Setenv("ENV", "")
		t.Setenv("GO_ENV", "")

		assert.Error(t, InitEnvironmentVariables(dir))
	})
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SHIOAJI_TEST_SET", "value")
	t.Setenv("SHIOAJI_TEST_EMPTY", "")

	v, err := GetEnv("SHIOAJI_TEST_SET")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = GetEnv("SHIOAJI_TEST_EMPTY")
	assert.Error(t, err)

	assert.Equal(t, "fallback", GetEnvOrDefault("SHIOAJI_TEST_EMPTY", "fallback"))
	assert.Equal(t, "value", GetEnvOrDefault("SHIOAJI_TEST_SET", "fallback"))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("SHIOAJI_TEST_BOOL", "false")
	b, err := GetEnvBool("SHIOAJI_TEST_BOOL", true)
	require.NoError(t, err)
	assert.False(t, b)

	t.Setenv("SHIOAJI_TEST_BOOL", "")
	b, err = GetEnvBool("SHIOAJI_TEST_BOOL", true)
	require.NoError(t, err)
	assert.True(t, b)

	t.Setenv("SHIOAJI_TEST_BOOL", "maybe")
	_, err = GetEnvBool("SHIOAJI_TEST_BOOL", true)
	assert.Error(t, err)
}
