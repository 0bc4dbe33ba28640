// linalg_test.go --  This file is part of goHF project.
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

package linalg

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func overlap() *mat.SymDense {
	return mat.NewSymDense(3, []float64{
		1.0, 0.4, 0.1,
		0.4, 1.0, 0.3,
		0.1, 0.3, 1.0,
	})
}

func TestSymPowInverseSqrt(t *testing.T) {
	s := overlap()
	a, err := SymPow(s, -0.5)
	require.NoError(t, err)
	// A S A = 1
	var asa mat.Dense
	asa.Mul(a, s)
	asa.Mul(&asa, a)
	want := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	if diff := cmp.Diff(want, asa.RawMatrix().Data, approx); diff != "" {
		t.Errorf("A S A mismatch (-want +got):\n%s", diff)
	}
}

func TestSymPowSquare(t *testing.T) {
	s := overlap()
	sq, err := SymPow(s, 2)
	require.NoError(t, err)
	var want mat.Dense
	want.Mul(s, s)
	assert.True(t, mat.EqualApprox(&want, sq, 1e-12))
}

func TestSymPowNotPositive(t *testing.T) {
	s := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	_, err := SymPow(s, -0.5)
	assert.ErrorIs(t, err, ErrNotPositive)
	_, err = SymPow(s, 0.5)
	assert.ErrorIs(t, err, ErrNotPositive)
	_, err = SymPow(s, 3)
	assert.NoError(t, err)
}

func TestLowdin(t *testing.T) {
	s := overlap()
	c := mat.NewDense(3, 2, []float64{
		1, 0.2,
		0.5, 1,
		0, 0.3,
	})
	o, err := Lowdin(c, s)
	require.NoError(t, err)
	var ots, m mat.Dense
	ots.Mul(o.T(), s)
	m.Mul(&ots, o)
	if diff := cmp.Diff([]float64{1, 0, 0, 1}, m.RawMatrix().Data, approx); diff != "" {
		t.Errorf("Löwdin orbitals not orthonormal (-want +got):\n%s", diff)
	}
}

func TestDensityAndTrace(t *testing.T) {
	c := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
	})
	d := Density(c, []float64{2, 1})
	assert.Equal(t, 2.0, d.At(0, 0))
	assert.Equal(t, 1.0, d.At(1, 1))
	assert.Equal(t, 0.0, d.At(0, 1))
	assert.InDelta(t, 3.0, TraceMul(d, eye(3)), 1e-15)

	v := mat.NewVecDense(3, []float64{1, 2, 3})
	o := Outer(v, 0.5)
	assert.Equal(t, 3.0, o.At(1, 2))
	assert.InDelta(t, 7.0, TraceMul(o, eye(3)), 1e-15)
}

func TestColumns(t *testing.T) {
	c := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	got := Columns(c, []int{2, 0})
	assert.Equal(t, []float64{3, 1, 6, 4}, got.RawMatrix().Data)
	assert.Nil(t, Columns(c, nil))
}

func TestSymmetrize(t *testing.T) {
	d := mat.NewDense(2, 2, []float64{1, 2, 4, 3})
	s := Symmetrize(d)
	assert.Equal(t, 3.0, s.At(0, 1))
	assert.Equal(t, 3.0, s.At(1, 0))
}

func TestPrintDense(t *testing.T) {
	var buf bytes.Buffer
	PrintDense(&buf, eye(2))
	assert.Contains(t, buf.String(), "1.00000000")
}

func eye(n int) *mat.Dense {
	res := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		res.Set(i, i, 1)
	}
	return res
}
