package target

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeTargets(t, `
targets:
  - path: /health
    weight: 1
  - path: /error
    method: GET
    weight: 2
    tags: [errors]
    injection:
      error_rate_percent: 25
  - path: /delay
    injection:
      delay_min_seconds: 0.1
      delay_max_seconds: 0.5
`)

	targets, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, targets, 3)

	require.Equal(t, "/health", targets[0].Path)
	require.Equal(t, "GET", targets[0].Method)
	require.Equal(t, 1.0, targets[0].Weight)

	require.Equal(t, 2.0, targets[1].Weight)
	require.NotNil(t, targets[1].Injection)
	require.Equal(t, 25, targets[1].Injection.ErrorRatePercent)

	// Missing method and weight default to GET / 1.
	require.Equal(t, "GET", targets[2].Method)
	require.Equal(t, 1.0, targets[2].Weight)
	require.Equal(t, 0.5, targets[2].Injection.DelayMaxSeconds)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadFileEmpty(t *testing.T) {
	path := writeTargets(t, "targets: []\n")
	_, err := LoadFile(path)
	require.ErrorIs(t, err, ErrNoTargets)
}

func TestLoadFileInvalidTarget(t *testing.T) {
	path := writeTargets(t, `
targets:
  - path: /x
    weight: -5
`)
	_, err := LoadFile(path)
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestDefaultSetsValidate(t *testing.T) {
	for _, set := range [][]Descriptor{Defaults(), ErrorMix()} {
		_, err := NewSelector(set)
		require.NoError(t, err)
	}
}
