// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AWSAccessKeyID, "  AKIDEXAMPLE  \n")
				writeFile(t, dir, AWSSecretAccessKey, "wJalrXUtnFEMI\n")
				return dir
			},
			want: map[string]string{
				AWSAccessKeyID:     "AKIDEXAMPLE",
				AWSSecretAccessKey: "wJalrXUtnFEMI",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AWSAccessKeyID, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				AWSAccessKeyID: "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, AWSSecretAccessKey, "pk_real")
				return dir
			},
			want: map[string]string{
				AWSSecretAccessKey: "pk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AWSAccessKeyID, "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				AWSAccessKeyID: "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, nil)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	var warn bytes.Buffer
	got, err := Load(dir, &warn)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	assert.Contains(t, warn.String(), "could not read secret bad-key")
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	localFile := filepath.Join(dir, ".env.local")
	writeFile(t, dir, ".env", "GLEAM_VO_TEST_HOST=from-env\nGLEAM_VO_TEST_KEEP=from-env\nGLEAM_VO_TEST_BASE=from-env\n")
	writeFile(t, dir, ".env.local", "GLEAM_VO_TEST_HOST=from-local\n")

	t.Setenv("GLEAM_VO_TEST_KEEP", "from-process")
	t.Setenv("GLEAM_VO_TEST_HOST", "")
	t.Setenv("GLEAM_VO_TEST_BASE", "")
	os.Unsetenv("GLEAM_VO_TEST_HOST")
	os.Unsetenv("GLEAM_VO_TEST_BASE")

	loaded, err := LoadEnv(envFile, filepath.Join(dir, "missing.env"), localFile)
	require.NoError(t, err)
	assert.Equal(t, []string{envFile, localFile}, loaded)

	assert.Equal(t, "from-local", os.Getenv("GLEAM_VO_TEST_HOST"), "later files override")
	assert.Equal(t, "from-process", os.Getenv("GLEAM_VO_TEST_KEEP"), "first file keeps existing values")
	assert.Equal(t, "from-env", os.Getenv("GLEAM_VO_TEST_BASE"))
}

func TestLoadEnvMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "GLEAM_VO_TEST_BROKEN='unterminated\n")

	_, err := LoadEnv(filepath.Join(dir, ".env"))
	assert.Error(t, err)
}
