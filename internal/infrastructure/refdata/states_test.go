package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalNewsMapper/internal/domain"
)

const statesCSV = `name,postal,lat,lng
Florida,FL,27.6648274,-81.5157535
Georgia,GA,32.1656221,-82.9000751
Florida,XX,0,0
`

func TestLoadStates(t *testing.T) {
	t.Parallel()

	reg := domain.NewRegistry()
	n, err := LoadStates(strings.NewReader(statesCSV), reg)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, reg.States, 2)

	fl := reg.States["Florida"]
	require.NotNil(t, fl)
	assert.Equal(t, "FL", fl.PostalState, "first row wins for a repeated name")
	assert.InDelta(t, 27.6648274, fl.Lat, 1e-9)

	mlat, mlng := domain.Mercator(fl.Lat, fl.Lng)
	assert.Equal(t, mlat, fl.MLat)
	assert.Equal(t, mlng, fl.MLng)
}

func TestLoadStatesRejectsBadRows(t *testing.T) {
	t.Parallel()

	_, err := LoadStates(strings.NewReader("name,postal,lat,lng\nFlorida,FL,north,-81\n"), domain.NewRegistry())
	assert.ErrorContains(t, err, "lat")

	_, err = LoadStates(strings.NewReader("name,postal,lat,lng\nFlorida,FL\n"), domain.NewRegistry())
	assert.ErrorContains(t, err, "expected 4 columns")
}

func TestLoadStatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "states.csv")
	require.NoError(t, os.WriteFile(path, []byte(statesCSV), 0o644))

	reg := domain.NewRegistry()
	_, err := LoadStatesFile(path, reg)
	require.NoError(t, err)
	assert.Len(t, reg.States, 2)

	_, err = LoadStatesFile(filepath.Join(t.TempDir(), "missing.csv"), reg)
	assert.Error(t, err)
}
