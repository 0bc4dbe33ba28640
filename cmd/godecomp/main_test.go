// main_test.go --  This file is part of goHF project.
// Mirzaeva Irina, 2023
//
//	goHF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------

package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"example.com/godecomp/decomp"
	"example.com/godecomp/hf"
)

const h2Input = `Atoms
H  0.0  0.0  0.0
H  0.0  0.0  0.74
end
Basis
sto-3g
end
`

func TestSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "decomp.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("loc: pm\npop: iao\nverbose: 1\n"), 0644))

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--config", cfgPath, "--pop", "mulliken", "--part", "orbitals"}))
	v, err := loadSettings(fs)
	require.NoError(t, err)
	cfg, err := decomp.LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, decomp.PipekMezey, cfg.Loc)
	assert.Equal(t, decomp.Mulliken, cfg.Pop)
	assert.Equal(t, decomp.Orbitals, cfg.Part)
	assert.Equal(t, 1, cfg.Verbose)
	assert.Equal(t, decomp.DefaultConfig().ConvTol, cfg.ConvTol)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	inp := filepath.Join(dir, "h2.inp")
	require.NoError(t, os.WriteFile(inp, []byte(h2Input), 0644))
	yamlPath := filepath.Join(dir, "h2.yaml")

	require.NoError(t, run([]string{"--prop", "dipole", "--loc", "none", "-o", yamlPath, inp}))

	report, err := os.ReadFile(filepath.Join(dir, "h2.out"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "Final total energy")
	assert.Contains(t, string(report), "total dipole")

	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "dipole", doc["prop"])
	assert.Equal(t, []any{"H0", "H1"}, doc["labels"])
	total, ok := doc["total_dipole"].([]any)
	require.True(t, ok)
	for _, x := range total {
		assert.InDelta(t, 0.0, x.(float64), 1e-6)
	}
}

func TestRunErrors(t *testing.T) {
	assert.Error(t, run(nil))

	dir := t.TempDir()
	inp := filepath.Join(dir, "h2.inp")
	require.NoError(t, os.WriteFile(inp, []byte(h2Input), 0644))
	err := run([]string{"--loc", "xyz", inp})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "xyz"))

	err = run([]string{"--conv-tol=-1", inp})
	assert.ErrorIs(t, err, decomp.ErrConfiguration)
}

const hInput = `Atoms
H  0.0  0.0  0.0
end
Basis
sto-3g
end
spin 1
`

func TestRunOpenShell(t *testing.T) {
	dir := t.TempDir()
	inp := filepath.Join(dir, "h.inp")
	require.NoError(t, os.WriteFile(inp, []byte(hInput), 0644))

	err := run([]string{inp})
	require.ErrorIs(t, err, decomp.ErrConfiguration)
	var cerr *decomp.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "ref", cerr.Field)
	assert.Contains(t, err.Error(), "--ref unrestricted")

	require.NoError(t, run([]string{"--ref", "unrestricted", "--loc", "none", inp}))
}

func TestRunNProcs(t *testing.T) {
	prev := runtime.GOMAXPROCS(0)
	t.Cleanup(func() { runtime.GOMAXPROCS(prev) })

	dir := t.TempDir()
	inp := filepath.Join(dir, "h2.inp")
	require.NoError(t, os.WriteFile(inp, []byte(h2Input+"nprocs 2\n"), 0644))
	require.NoError(t, run([]string{"--loc", "none", inp}))
	assert.Equal(t, 2, runtime.GOMAXPROCS(0))
	report, err := os.ReadFile(filepath.Join(dir, "h2.out"))
	require.NoError(t, err)
	assert.Contains(t, string(report), `"workers": 2`)

	require.NoError(t, run([]string{"--loc", "none", "--workers", "1", inp}))
	report, err = os.ReadFile(filepath.Join(dir, "h2.out"))
	require.NoError(t, err)
	assert.Contains(t, string(report), `"workers": 1`)
}

func TestRunCompressedCubes(t *testing.T) {
	dir := t.TempDir()
	inp := filepath.Join(dir, "h2.inp")
	require.NoError(t, os.WriteFile(inp, []byte(h2Input), 0644))
	require.NoError(t, run([]string{"--loc", "none", "--cube", "--cube-compress", "gz", "--cube-dir", dir, inp}))
	for _, name := range []string{"rdm1_a_0.cube.gz", "rdm1_b_0.cube.gz"} {
		r, err := hf.OpenCube(filepath.Join(dir, name))
		require.NoError(t, err, name)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Contains(t, string(data), "spin")
	}
}

func TestAppInfo(t *testing.T) {
	var buf bytes.Buffer
	appInfo(&buf)
	assert.True(t, strings.HasSuffix(buf.String(), "populations\n\n"))
}
