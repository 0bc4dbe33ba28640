// linalg.go --  This file is part of goHF project.
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

// Package linalg holds the small gonum helpers shared by the mean-field
// backend and the decomposition core.
package linalg

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNotPositive is returned when a matrix that must be positive definite
// has a non-positive eigenvalue.
var ErrNotPositive = errors.New("linalg: matrix is not positive definite")

// PrintDense writes a formatted matrix to w.
func PrintDense(w io.Writer, D mat.Matrix) {
	fa := mat.Formatted(D, mat.Prefix("    "), mat.Squeeze())
	fmt.Fprintf(w, "    %.8f\n", fa)
}

// SymPow returns a^p for a symmetric matrix through its eigendecomposition.
// Negative powers require a positive definite a.
func SymPow(a mat.Symmetric, p float64) (*mat.SymDense, error) {
	n := a.SymmetricDim()
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(a, true); !ok {
		return nil, fmt.Errorf("linalg: eigendecomposition failed")
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	vals := eigsym.Values(nil)
	for i, v := range vals {
		if (v <= 0 && p < 0) || (v < 0 && p != math.Trunc(p)) {
			return nil, fmt.Errorf("eigenvalue %d = %g: %w", i, v, ErrNotPositive)
		}
		vals[i] = math.Pow(v, p)
	}
	// ev diag(vals) evᵀ
	var scaled mat.Dense
	scaled.Mul(&ev, mat.NewDiagDense(n, vals))
	var res mat.Dense
	res.Mul(&scaled, ev.T())
	return Symmetrize(&res), nil
}

// Symmetrize returns (d + dᵀ)/2 as a SymDense.
func Symmetrize(d mat.Matrix) *mat.SymDense {
	n, _ := d.Dims()
	res := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			res.SetSym(i, j, 0.5*(d.At(i, j)+d.At(j, i)))
		}
	}
	return res
}

// Lowdin orthonormalises the columns of c in the metric s:
// c (cᵀ s c)^-1/2.
func Lowdin(c mat.Matrix, s mat.Symmetric) (*mat.Dense, error) {
	var sc mat.Dense
	sc.Mul(s, c)
	var m mat.Dense
	m.Mul(c.T(), &sc)
	inv, err := SymPow(Symmetrize(&m), -0.5)
	if err != nil {
		return nil, fmt.Errorf("lowdin: %w", err)
	}
	var res mat.Dense
	res.Mul(c, inv)
	return &res, nil
}

// TraceMul returns Tr[a b] without forming the product.
func TraceMul(a, b mat.Matrix) float64 {
	r, c := a.Dims()
	res := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			res += a.At(i, j) * b.At(j, i)
		}
	}
	return res
}

// Outer returns scale·v vᵀ.
func Outer(v mat.Vector, scale float64) *mat.SymDense {
	n := v.Len()
	res := mat.NewSymDense(n, nil)
	res.SymRankOne(res, scale, v)
	return res
}

// Columns copies the listed columns of c into a new matrix.
func Columns(c mat.Matrix, idx []int) *mat.Dense {
	r, _ := c.Dims()
	if len(idx) == 0 {
		return nil
	}
	res := mat.NewDense(r, len(idx), nil)
	for k, j := range idx {
		for i := 0; i < r; i++ {
			res.Set(i, k, c.At(i, j))
		}
	}
	return res
}

// Density returns Σ_j occ_j c_j c_jᵀ over the columns of c.
func Density(c mat.Matrix, occ []float64) *mat.SymDense {
	r, cols := c.Dims()
	res := mat.NewSymDense(r, nil)
	for j := 0; j < cols && j < len(occ); j++ {
		if occ[j] == 0 {
			continue
		}
		res.SymRankOne(res, occ[j], mat.NewVecDense(r, mat.Col(nil, j, c)))
	}
	return res
}
