package specs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/fieldroutes/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultFieldSpec(t *testing.T) {
	spec, err := LoadFieldSpec("default")
	require.NoError(t, err)

	assert.Equal(t, "default", spec.Name)
	assert.Equal(t, 21, spec.Width)
	assert.Equal(t, 15, spec.Height)
	assert.Equal(t, common.Point{X: 10, Y: 7}, spec.Centre)
	assert.Equal(t, []common.Point{{X: 0, Y: 7}, {X: 10, Y: 0}, {X: 20, Y: 7}}, spec.EntrancePoints())
	assert.Equal(t, cp.BB{L: 64, B: 32, R: 96, T: 96}, spec.ObstacleBoxes()[0])
	assert.Equal(t, 4, spec.Engine.MaxConcurrent)
	assert.Equal(t, "reroute", spec.RerouteScript)
}

func TestDiskSpecOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: small
width: 4
height: 3
centre: {x: 3, y: 2}
entrances:
  - {x: 0, y: 0}
`), 0o644))

	spec, err := LoadFieldSpec(path)
	require.NoError(t, err)
	assert.Equal(t, "small", spec.Name)
	assert.Equal(t, 1.0, spec.CellSize, "cell_size defaults to 1")

	mod, ok := ModTime(path)
	assert.True(t, ok)
	assert.False(t, mod.IsZero())

	_, ok = ModTime("default")
	assert.False(t, ok)
}

func TestParseFieldSpecValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero_size", `{width: 0, height: 3}`},
		{"centre_outside", `{width: 3, height: 3, centre: {x: 3, y: 0}}`},
		{"entrance_outside", `{width: 3, height: 3, entrances: [{x: -1, y: 0}]}`},
		{"duplicate_names", `{width: 3, height: 3, entrances: [{name: a, x: 0, y: 0}, {name: a, x: 1, y: 0}]}`},
		{"block_outside", `{width: 3, height: 3, blocks: [{x: 0, y: 9}]}`},
		{"negative_obstacle", `{width: 3, height: 3, obstacles: [{x: 0, y: 0, w: -1, h: 1}]}`},
		{"negative_engine", `{width: 3, height: 3, engine: {max_nodes: -5}}`},
		{"negative_cell", `{width: 3, height: 3, cell_size: -2}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFieldSpec([]byte(tc.yaml))
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}

	_, err := ParseFieldSpec([]byte("width: [unterminated"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSpec)
}

func TestLoadScriptNames(t *testing.T) {
	for _, name := range []string{"reroute", "reroute.tengo", "scripts/reroute.tengo", "specs/scripts/reroute.tengo"} {
		data, err := LoadScript(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "reroute := func(req)")
	}
}
