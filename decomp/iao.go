// iao.go --  This file is part of goHF project.
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

package decomp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"example.com/godecomp/internal/linalg"
)

// intrinsicAtomicOrbitals builds the orthonormal IAOs (nao x nmin) that
// span the occupied orbitals cOcc, following Knizia's construction
//
//	A = P12 + 2 CCᵀS1 C̃C̃ᵀS1 P12 - CCᵀS1 P12 - C̃C̃ᵀS1 P12
//
// with P12 = S1⁻¹S12 and C̃ the depolarised occupied orbitals, followed by
// Löwdin orthonormalisation in the S1 metric.
func intrinsicAtomicOrbitals(s1, s2 *mat.SymDense, s12, cOcc *mat.Dense) (*mat.Dense, error) {
	n1 := s1.SymmetricDim()
	if r, _ := s12.Dims(); r != n1 {
		return nil, dimErr("cross overlap has %d rows, basis has %d functions", r, n1)
	}
	if _, c := s12.Dims(); c != s2.SymmetricDim() {
		return nil, dimErr("cross overlap has %d columns, minimal basis has %d functions", c, s2.SymmetricDim())
	}
	var chol1, chol2 mat.Cholesky
	if !chol1.Factorize(s1) {
		return nil, fmt.Errorf("overlap matrix: %w", linalg.ErrNotPositive)
	}
	if !chol2.Factorize(s2) {
		return nil, fmt.Errorf("minimal basis overlap: %w", linalg.ErrNotPositive)
	}

	var p12 mat.Dense
	if err := chol1.SolveTo(&p12, s12); err != nil {
		return nil, fmt.Errorf("projector: %w", err)
	}

	// C̃ = S1⁻¹ S12 S2⁻¹ S21 C, orthonormalised.
	var s21c, cmin, s12c, ctild mat.Dense
	s21c.Mul(s12.T(), cOcc)
	if err := chol2.SolveTo(&cmin, &s21c); err != nil {
		return nil, fmt.Errorf("depolarised orbitals: %w", err)
	}
	s12c.Mul(s12, &cmin)
	if err := chol1.SolveTo(&ctild, &s12c); err != nil {
		return nil, fmt.Errorf("depolarised orbitals: %w", err)
	}
	ct, err := linalg.Lowdin(&ctild, s1)
	if err != nil {
		return nil, fmt.Errorf("depolarised orbitals: %w", err)
	}

	ccs1 := projectorS(cOcc, s1)
	ccs2 := projectorS(ct, s1)

	var a, t mat.Dense
	a.Mul(ccs2, &p12)
	a.Mul(ccs1, &a)
	a.Scale(2, &a)
	a.Add(&a, &p12)
	t.Mul(ccs1, &p12)
	a.Sub(&a, &t)
	t.Mul(ccs2, &p12)
	a.Sub(&a, &t)

	iao, err := linalg.Lowdin(&a, s1)
	if err != nil {
		return nil, fmt.Errorf("intrinsic atomic orbitals: %w", err)
	}
	return iao, nil
}

// projectorS returns C Cᵀ S.
func projectorS(c *mat.Dense, s mat.Symmetric) *mat.Dense {
	var cs, res mat.Dense
	cs.Mul(c.T(), s)
	res.Mul(c, &cs)
	return &res
}

// iaoCoefficients returns Aᵀ S C, the orbitals in the orthonormal IAO basis.
func iaoCoefficients(iao *mat.Dense, s mat.Symmetric, c *mat.Dense) *mat.Dense {
	var sc, res mat.Dense
	sc.Mul(s, c)
	res.Mul(iao.T(), &sc)
	return &res
}

// iaoBasis builds the IAOs of the given occupied orbitals from the minimal
// basis of the mean field.
func iaoBasis(ints Integrals, cOcc *mat.Dense) (*mat.Dense, []int, error) {
	s2, s12, minAtoms, err := ints.MinimalBasis()
	if err != nil {
		return nil, nil, fmt.Errorf("minimal basis: %w", err)
	}
	if len(minAtoms) != s2.SymmetricDim() {
		return nil, nil, dimErr("%d atom labels for %d minimal basis functions", len(minAtoms), s2.SymmetricDim())
	}
	iao, err := intrinsicAtomicOrbitals(ints.Ovlp(), s2, s12, cOcc)
	if err != nil {
		return nil, nil, err
	}
	return iao, minAtoms, nil
}
