// cube_test.go --  This file is part of goHF project.
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

package hf

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func countCubeValues(t *testing.T, r io.Reader) (header []string, values []float64) {
	t.Helper()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if len(header) < 6+2 { // 2 comments, origin, 3 axes, 2 atoms for H2
			header = append(header, sc.Text())
			continue
		}
		for _, w := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(w, 64)
			require.NoError(t, err)
			values = append(values, v)
		}
	}
	require.NoError(t, sc.Err())
	return header, values
}

func TestWriteCubeGrid(t *testing.T) {
	mol := h2(t)
	D := mat.NewSymDense(2, []float64{0.6, 0.6, 0.6, 0.6})
	var buf bytes.Buffer
	require.NoError(t, mol.writeCube(&buf, "sigma bond", D, 7))

	header, values := countCubeValues(t, &buf)
	assert.Equal(t, "sigma bond", header[0])
	assert.Equal(t, "2", strings.Fields(header[2])[0])
	assert.Equal(t, "7", strings.Fields(header[3])[0])
	assert.Len(t, values, 7*7*7)
	for _, v := range values {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestWriteCubeDimension(t *testing.T) {
	mol := h2(t)
	var buf bytes.Buffer
	err := mol.writeCube(&buf, "", mat.NewSymDense(3, nil), 5)
	assert.ErrorIs(t, err, ErrInput)
}

func TestWriteCubeCompressed(t *testing.T) {
	mf, err := RunSCF(h2(t), DefaultOptions())
	require.NoError(t, err)
	dir := t.TempDir()
	for _, name := range []string{"rho.cube", "rho.cube.gz", "rho.cube.zst"} {
		path := filepath.Join(dir, name)
		require.NoError(t, mf.WriteCube(path, "total density", mf.Density()))
		r, err := OpenCube(path)
		require.NoError(t, err)
		header, values := countCubeValues(t, r)
		require.NoError(t, r.Close())
		assert.Equal(t, "total density", header[0], name)
		assert.Len(t, values, CubePoints*CubePoints*CubePoints, name)
	}
}
