// integrals.go --  This file is part of goHF project.
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

// McMurchie-Davidson integrals over contracted Cartesian Gaussians.
// See https://joshuagoings.com/2017/04/28/integrals/ and Helgaker,
// Jorgensen, Olsen, "Molecular Electronic-Structure Theory", ch. 9.

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
)

// basisFunction is one Cartesian component of a contracted shell.
// coefs already include primitive and contraction normalisation.
type basisFunction struct {
	atom   int
	center [3]float64 // bohr
	lmn    [3]int
	exps   []float64
	coefs  []float64
}

// cartesians lists the (lx, ly, lz) components of angular momentum l.
func cartesians(l int) [][3]int {
	var res [][3]int
	for lx := l; lx >= 0; lx-- {
		for ly := l - lx; ly >= 0; ly-- {
			res = append(res, [3]int{lx, ly, l - lx - ly})
		}
	}
	return res
}

func doubleFactorial(n int) float64 {
	res := 1.0
	for k := n; k > 1; k -= 2 {
		res *= float64(k)
	}
	return res
}

func primNorm(a float64, lmn [3]int) float64 {
	L := lmn[0] + lmn[1] + lmn[2]
	return math.Pow(2*a/math.Pi, 0.75) * math.Pow(4*a, float64(L)/2) /
		math.Sqrt(doubleFactorial(2*lmn[0]-1)*doubleFactorial(2*lmn[1]-1)*doubleFactorial(2*lmn[2]-1))
}

func (m *Molecule) buildFunctions() {
	m.funcs = m.funcs[:0]
	coords := m.AtomCoords()
	for i, a := range m.Atoms {
		for _, sh := range a.Basis {
			for _, lmn := range cartesians(sh.l) {
				f := basisFunction{atom: i, center: coords[i], lmn: lmn}
				for _, pg := range sh.Funcs {
					f.exps = append(f.exps, pg.zeta)
					f.coefs = append(f.coefs, pg.preExp*primNorm(pg.zeta, lmn))
				}
				norm := 1 / math.Sqrt(contracted(f, f, primOverlap))
				for k := range f.coefs {
					f.coefs[k] *= norm
				}
				m.funcs = append(m.funcs, f)
			}
		}
	}
}

type primIntegral func(a float64, lmn1 [3]int, A [3]float64, b float64, lmn2 [3]int, B [3]float64) float64

func contracted(f, g basisFunction, integral primIntegral) float64 {
	res := 0.0
	for i, a := range f.exps {
		for j, b := range g.exps {
			res += f.coefs[i] * g.coefs[j] * integral(a, f.lmn, f.center, b, g.lmn, g.center)
		}
	}
	return res
}

// hermiteE returns the Hermite expansion coefficient E^{ij}_t for the
// product of two 1D Gaussians separated by qx = Ax - Bx.
func hermiteE(i, j, t int, qx, a, b float64) float64 {
	p := a + b
	q := a * b / p
	switch {
	case i < 0 || j < 0 || t < 0 || t > i+j:
		return 0
	case i == 0 && j == 0 && t == 0:
		return math.Exp(-q * qx * qx)
	case j == 0:
		return (1/(2*p))*hermiteE(i-1, j, t-1, qx, a, b) -
			(q*qx/a)*hermiteE(i-1, j, t, qx, a, b) +
			float64(t+1)*hermiteE(i-1, j, t+1, qx, a, b)
	default:
		return (1/(2*p))*hermiteE(i, j-1, t-1, qx, a, b) +
			(q*qx/b)*hermiteE(i, j-1, t, qx, a, b) +
			float64(t+1)*hermiteE(i, j-1, t+1, qx, a, b)
	}
}

func hermiteCoeffs(i, j int, qx, a, b float64) []float64 {
	res := make([]float64, i+j+1)
	for t := range res {
		res[t] = hermiteE(i, j, t, qx, a, b)
	}
	return res
}

func boys(x float64, n int) float64 {
	nf := float64(n)
	if x < 1e-10 {
		return 1.0/(2.0*nf+1) - x/(2.0*nf+3)
	}
	return mathext.GammaIncReg(nf+0.5, x) * math.Gamma(nf+0.5) * (1.0 / (2.0 * math.Pow(x, nf+0.5)))
}

// hermiteR evaluates the Coulomb Hermite integral R^n_{tuv}; fn holds
// (-2p)^n F_n(p R²) for all n needed.
func hermiteR(t, u, v, n int, fn []float64, pc [3]float64) float64 {
	switch {
	case t < 0 || u < 0 || v < 0:
		return 0
	case t == 0 && u == 0 && v == 0:
		return fn[n]
	case t == 0 && u == 0:
		return float64(v-1)*hermiteR(t, u, v-2, n+1, fn, pc) + pc[2]*hermiteR(t, u, v-1, n+1, fn, pc)
	case t == 0:
		return float64(u-1)*hermiteR(t, u-2, v, n+1, fn, pc) + pc[1]*hermiteR(t, u-1, v, n+1, fn, pc)
	default:
		return float64(t-1)*hermiteR(t-2, u, v, n+1, fn, pc) + pc[0]*hermiteR(t-1, u, v, n+1, fn, pc)
	}
}

func boysTable(L int, p, r2 float64) []float64 {
	fn := make([]float64, L+1)
	for n := range fn {
		fn[n] = math.Pow(-2*p, float64(n)) * boys(p*r2, n)
	}
	return fn
}

func gaussianCenter(a float64, A [3]float64, b float64, B [3]float64) [3]float64 {
	var P [3]float64
	for k := range P {
		P[k] = (a*A[k] + b*B[k]) / (a + b)
	}
	return P
}

func primOverlap(a float64, lmn1 [3]int, A [3]float64, b float64, lmn2 [3]int, B [3]float64) float64 {
	res := math.Pow(math.Pi/(a+b), 1.5)
	for k := 0; k < 3; k++ {
		res *= hermiteE(lmn1[k], lmn2[k], 0, A[k]-B[k], a, b)
	}
	return res
}

func shifted(lmn [3]int, k, d int) [3]int {
	lmn[k] += d
	return lmn
}

func primKinetic(a float64, lmn1 [3]int, A [3]float64, b float64, lmn2 [3]int, B [3]float64) float64 {
	L2 := lmn2[0] + lmn2[1] + lmn2[2]
	res := b * float64(2*L2+3) * primOverlap(a, lmn1, A, b, lmn2, B)
	for k := 0; k < 3; k++ {
		res -= 2 * b * b * primOverlap(a, lmn1, A, b, shifted(lmn2, k, 2), B)
		if lmn2[k] > 1 {
			res -= 0.5 * float64(lmn2[k]*(lmn2[k]-1)) * primOverlap(a, lmn1, A, b, shifted(lmn2, k, -2), B)
		}
	}
	return res
}

// primNuclear is <a|1/|r-C||b>, positive.
func primNuclear(a float64, lmn1 [3]int, A [3]float64, b float64, lmn2 [3]int, B [3]float64, C [3]float64) float64 {
	p := a + b
	P := gaussianCenter(a, A, b, B)
	pc := [3]float64{P[0] - C[0], P[1] - C[1], P[2] - C[2]}
	var ex [3][]float64
	for k := 0; k < 3; k++ {
		ex[k] = hermiteCoeffs(lmn1[k], lmn2[k], A[k]-B[k], a, b)
	}
	fn := boysTable(len(ex[0])+len(ex[1])+len(ex[2])-3, p, pc[0]*pc[0]+pc[1]*pc[1]+pc[2]*pc[2])
	res := 0.0
	for t, et := range ex[0] {
		for u, eu := range ex[1] {
			for v, ev := range ex[2] {
				res += et * eu * ev * hermiteR(t, u, v, 0, fn, pc)
			}
		}
	}
	return res * 2 * math.Pi / p
}

func primERI(a float64, lmn1 [3]int, A [3]float64, b float64, lmn2 [3]int, B [3]float64,
	c float64, lmn3 [3]int, C [3]float64, d float64, lmn4 [3]int, D [3]float64) float64 {
	p := a + b
	q := c + d
	alpha := p * q / (p + q)
	P := gaussianCenter(a, A, b, B)
	Q := gaussianCenter(c, C, d, D)
	pq := [3]float64{P[0] - Q[0], P[1] - Q[1], P[2] - Q[2]}
	var eab, ecd [3][]float64
	L := 0
	for k := 0; k < 3; k++ {
		eab[k] = hermiteCoeffs(lmn1[k], lmn2[k], A[k]-B[k], a, b)
		ecd[k] = hermiteCoeffs(lmn3[k], lmn4[k], C[k]-D[k], c, d)
		L += len(eab[k]) + len(ecd[k]) - 2
	}
	fn := boysTable(L, alpha, pq[0]*pq[0]+pq[1]*pq[1]+pq[2]*pq[2])
	res := 0.0
	for t, et := range eab[0] {
		for u, eu := range eab[1] {
			for v, ev := range eab[2] {
				bra := et * eu * ev
				if bra == 0 {
					continue
				}
				for tau, etau := range ecd[0] {
					for nu, enu := range ecd[1] {
						for phi, ephi := range ecd[2] {
							sign := 1.0
							if (tau+nu+phi)%2 == 1 {
								sign = -1
							}
							res += bra * etau * enu * ephi * sign * hermiteR(t+tau, u+nu, v+phi, 0, fn, pq)
						}
					}
				}
			}
		}
	}
	return res * 2 * math.Pow(math.Pi, 2.5) / (p * q * math.Sqrt(p+q))
}

// oneElectron fills a symmetric matrix from a contracted integral,
// distributing rows over goroutines.
func oneElectron(funcs []basisFunction, integral func(f, g basisFunction) float64) *mat.SymDense {
	n := len(funcs)
	res := mat.NewSymDense(n, nil)
	rows := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for w := 0; w < runtime.GOMAXPROCS(-1); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				row := make([]float64, i+1)
				for j := 0; j <= i; j++ {
					row[j] = integral(funcs[i], funcs[j])
				}
				mu.Lock()
				for j, v := range row {
					res.SetSym(i, j, v)
				}
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < n; i++ {
		rows <- i
	}
	close(rows)
	wg.Wait()
	return res
}

// Ovlp returns the AO overlap matrix.
func (m *Molecule) Ovlp() *mat.SymDense {
	return oneElectron(m.funcs, func(f, g basisFunction) float64 {
		return contracted(f, g, primOverlap)
	})
}

// Kinetic returns the kinetic energy integrals.
func (m *Molecule) Kinetic() *mat.SymDense {
	return oneElectron(m.funcs, func(f, g basisFunction) float64 {
		return contracted(f, g, primKinetic)
	})
}

// ElecNucAtom returns the attraction integrals of the electrons to nucleus k alone.
func (m *Molecule) ElecNucAtom(k int) *mat.SymDense {
	C := m.AtomCoords()[k]
	Z := float64(m.Atoms[k].Z)
	return oneElectron(m.funcs, func(f, g basisFunction) float64 {
		return -Z * contracted(f, g, func(a float64, lmn1 [3]int, A [3]float64, b float64, lmn2 [3]int, B [3]float64) float64 {
			return primNuclear(a, lmn1, A, b, lmn2, B, C)
		})
	})
}

// ElecNuc returns the per-atom nuclear attraction matrices and their sum.
func (m *Molecule) ElecNuc() (*mat.SymDense, []*mat.SymDense) {
	n := len(m.funcs)
	total := mat.NewSymDense(n, nil)
	parts := make([]*mat.SymDense, len(m.Atoms))
	for k := range m.Atoms {
		parts[k] = m.ElecNucAtom(k)
		total.AddSym(total, parts[k])
	}
	return total, parts
}

// Dipole returns the integrals <μ|r_k - O_k|ν> for k = x, y, z.
func (m *Molecule) Dipole(origin [3]float64) [3]*mat.SymDense {
	var res [3]*mat.SymDense
	for k := 0; k < 3; k++ {
		res[k] = oneElectron(m.funcs, func(f, g basisFunction) float64 {
			return contracted(f, g, func(a float64, lmn1 [3]int, A [3]float64, b float64, lmn2 [3]int, B [3]float64) float64 {
				// x - O = (x - A) + (A - O)
				return primOverlap(a, shifted(lmn1, k, 1), A, b, lmn2, B) + (A[k]-origin[k])*primOverlap(a, lmn1, A, b, lmn2, B)
			})
		})
	}
	return res
}

// CrossOvlp returns <μ|ν> with μ from m and ν from other.
func (m *Molecule) CrossOvlp(other *Molecule) *mat.Dense {
	res := mat.NewDense(len(m.funcs), len(other.funcs), nil)
	for i, f := range m.funcs {
		for j, g := range other.funcs {
			res.Set(i, j, contracted(f, g, primOverlap))
		}
	}
	return res
}

// value evaluates the basis function at point r (bohr).
func (f basisFunction) value(r [3]float64) float64 {
	dx, dy, dz := r[0]-f.center[0], r[1]-f.center[1], r[2]-f.center[2]
	r2 := dx*dx + dy*dy + dz*dz
	ang := math.Pow(dx, float64(f.lmn[0])) * math.Pow(dy, float64(f.lmn[1])) * math.Pow(dz, float64(f.lmn[2]))
	res := 0.0
	for i, a := range f.exps {
		res += f.coefs[i] * math.Exp(-a*r2)
	}
	return ang * res
}
