// jacobi.go --  This file is part of goHF project.
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

// Localization by 2x2 Jacobi rotations maximising Σ_g Σ_i Q^g_ii^p.
// G. Knizia, J. Chem. Theory Comput. 9, 4834 (2013), appendix C.

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	gradTol   = 1e-10
	maxSweeps = 1000
	// minPairNorm skips pairs with nothing to rotate.
	minPairNorm = 1e-14
)

// locality supplies the per-group charges of an orbital pair and applies a
// rotation i' = c i + s j, j' = -s i + c j.
type locality interface {
	groups() int
	charges(i, j, g int) (qii, qjj, qij float64)
	rotate(i, j int, c, s float64)
}

// pairGradient returns A and B of the pair (i, j); the functional changes
// by A (1 - cos 4φ) + B sin 4φ, up to a positive factor.
func pairGradient(loc locality, i, j, exponent int) (a, b float64) {
	for g := 0; g < loc.groups(); g++ {
		qii, qjj, qij := loc.charges(i, j, g)
		if exponent == 2 {
			a += 4*qij*qij - (qii-qjj)*(qii-qjj)
			b += 4 * qij * (qii - qjj)
			continue
		}
		qii2, qjj2 := qii*qii, qjj*qjj
		b += 4 * qij * (qii2*qii - qjj2*qjj)
		a += -qii2*qii2 - qjj2*qjj2 + 6*(qii2+qjj2)*qij*qij + qii2*qii*qjj + qii*qjj2*qjj
	}
	return a, b
}

// jacobiSweeps optimises the n orbitals of loc within budget sweeps and
// returns the accumulated rotation U (n x n), the number of sweeps and the
// last gradient norm. The error is ErrConvergence when the budget runs out.
func jacobiSweeps(loc locality, n, exponent, budget int) (*mat.Dense, int, float64, error) {
	u := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		u.Set(i, i, 1)
	}
	if n < 2 {
		return u, 0, 0, nil
	}
	grad := 0.0
	for sweep := 1; sweep <= budget; sweep++ {
		grad2, maxGain := 0.0, 0.0
		for i := 0; i < n; i++ {
			for j := 0; j < i; j++ {
				a, b := pairGradient(loc, i, j, exponent)
				grad2 += b * b
				r := math.Hypot(a, b)
				if r < minPairNorm {
					continue
				}
				maxGain = math.Max(maxGain, a+r)
				phi := 0.25 * math.Atan2(b, -a)
				c, s := math.Cos(phi), math.Sin(phi)
				loc.rotate(i, j, c, s)
				rotateColumns(u, i, j, c, s)
			}
		}
		grad = math.Sqrt(grad2)
		if grad < gradTol && maxGain < gradTol {
			return u, sweep, grad, nil
		}
	}
	return u, budget, grad, ErrConvergence
}

// optimise runs the sweeps of one orbital group of a channel.
func optimise(loc locality, n int, variant Variant, spin, budget int) (*mat.Dense, error) {
	u, sweeps, grad, err := jacobiSweeps(loc, n, variant.exponent(), budget)
	if err != nil {
		return nil, &ConvergenceError{Variant: variant, Spin: spin, Sweeps: sweeps, Gradient: grad}
	}
	return u, nil
}

// rotateColumns applies i' = c i + s j, j' = -s i + c j to columns of m.
func rotateColumns(m *mat.Dense, i, j int, c, s float64) {
	r, _ := m.Dims()
	for k := 0; k < r; k++ {
		mi, mj := m.At(k, i), m.At(k, j)
		m.Set(k, i, c*mi+s*mj)
		m.Set(k, j, -s*mi+c*mj)
	}
}

// rotateSym applies the same rotation to rows and columns of a symmetric
// matrix: X' = Rᵀ X R.
func rotateSym(x *mat.SymDense, i, j int, c, s float64) {
	n := x.SymmetricDim()
	xii, xjj, xij := x.At(i, i), x.At(j, j), x.At(i, j)
	for k := 0; k < n; k++ {
		if k == i || k == j {
			continue
		}
		xki, xkj := x.At(k, i), x.At(k, j)
		x.SetSym(k, i, c*xki+s*xkj)
		x.SetSym(k, j, -s*xki+c*xkj)
	}
	x.SetSym(i, i, c*c*xii+2*c*s*xij+s*s*xjj)
	x.SetSym(j, j, s*s*xii-2*c*s*xij+c*c*xjj)
	x.SetSym(i, j, (c*c-s*s)*xij+c*s*(xjj-xii))
}

// boysLocality holds the position matrices <i|r_k|j> of the orbitals.
type boysLocality struct {
	x [3]*mat.SymDense
}

func (b *boysLocality) groups() int { return 3 }

func (b *boysLocality) charges(i, j, g int) (float64, float64, float64) {
	return b.x[g].At(i, i), b.x[g].At(j, j), b.x[g].At(i, j)
}

func (b *boysLocality) rotate(i, j int, c, s float64) {
	for _, x := range b.x {
		rotateSym(x, i, j, c, s)
	}
}

// chargeLocality gives the atomic partial charges
// Q^A_ij = ½ Σ_{μ∈A} (L_μi R_μj + L_μj R_μi). Pipek-Mezey uses L = C and
// R = S C; intrinsic bond orbitals use L = R = the IAO coefficients.
type chargeLocality struct {
	l, r    *mat.Dense
	same    bool
	atomAOs [][]int
}

func newChargeLocality(l, r *mat.Dense, aoAtoms []int, natm int) *chargeLocality {
	loc := &chargeLocality{l: l, r: r, same: l == r, atomAOs: make([][]int, natm)}
	for mu, a := range aoAtoms {
		loc.atomAOs[a] = append(loc.atomAOs[a], mu)
	}
	return loc
}

func (p *chargeLocality) groups() int { return len(p.atomAOs) }

func (p *chargeLocality) charges(i, j, g int) (qii, qjj, qij float64) {
	for _, mu := range p.atomAOs[g] {
		li, lj := p.l.At(mu, i), p.l.At(mu, j)
		ri, rj := p.r.At(mu, i), p.r.At(mu, j)
		qii += li * ri
		qjj += lj * rj
		qij += 0.5 * (li*rj + lj*ri)
	}
	return qii, qjj, qij
}

func (p *chargeLocality) rotate(i, j int, c, s float64) {
	rotateColumns(p.l, i, j, c, s)
	if !p.same {
		rotateColumns(p.r, i, j, c, s)
	}
}
