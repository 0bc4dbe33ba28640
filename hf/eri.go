// eri.go --  This file is part of goHF project.
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
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"example.com/godecomp/internal/linalg"
)

// eriCutoff drops negligible two-electron integrals from the table.
const eriCutoff = 1e-14

// ERITable is the sparse list of two-electron integrals (ij|kl) with
// i >= j and k >= l. Idx holds i*n³ + j*n² + k*n + l.
type ERITable struct {
	NAO int
	Idx []int
	Val []float64
}

type eriRow struct {
	idx []int
	val []float64
}

// ElecElec computes the two-electron integral table. Rows of i are
// computed concurrently and merged in order, so the table is identical
// for any number of workers.
func (m *Molecule) ElecElec() *ERITable {
	n := len(m.funcs)
	rows := make([]eriRow, n)
	maxGoroutines := runtime.GOMAXPROCS(-1)
	guard := make(chan struct{}, maxGoroutines)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		guard <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-guard }()
			var row eriRow
			for j := 0; j <= i; j++ {
				for k := 0; k < n; k++ {
					for l := 0; l <= k; l++ {
						v := m.eri(i, j, k, l)
						if math.Abs(v) < eriCutoff {
							continue
						}
						row.idx = append(row.idx, ((i*n+j)*n+k)*n+l)
						row.val = append(row.val, v)
					}
				}
			}
			rows[i] = row
		}(i)
	}
	wg.Wait()
	res := &ERITable{NAO: n}
	for _, row := range rows {
		res.Idx = append(res.Idx, row.idx...)
		res.Val = append(res.Val, row.val...)
	}
	return res
}

func (m *Molecule) eri(i, j, k, l int) float64 {
	f1, f2, f3, f4 := m.funcs[i], m.funcs[j], m.funcs[k], m.funcs[l]
	res := 0.0
	for p, a := range f1.exps {
		for q, b := range f2.exps {
			for r, c := range f3.exps {
				for s, d := range f4.exps {
					res += f1.coefs[p] * f2.coefs[q] * f3.coefs[r] * f4.coefs[s] *
						primERI(a, f1.lmn, f1.center, b, f2.lmn, f2.center, c, f3.lmn, f3.center, d, f4.lmn, f4.center)
				}
			}
		}
	}
	return res
}

// Indices unpacks a table index into (i, j, k, l).
func (t *ERITable) Indices(idxVal int) (int, int, int, int) {
	n := t.NAO
	i := idxVal / (n * n * n)
	idxVal %= n * n * n
	j := idxVal / (n * n)
	idxVal %= n * n
	return i, j, idxVal / n, idxVal % n
}

// At returns (ij|kl) for any index order.
func (t *ERITable) At(i, j, k, l int) float64 {
	if i < j {
		i, j = j, i
	}
	if k < l {
		k, l = l, k
	}
	n := t.NAO
	key := ((i*n+j)*n+k)*n + l
	// Idx is sorted since rows are appended in i, j, k, l order.
	lo, hi := 0, len(t.Idx)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.Idx[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(t.Idx) && t.Idx[lo] == key {
		return t.Val[lo]
	}
	return 0
}

// processVal adds the contributions of one stored integral to the
// Coulomb and exchange matrices of every density.
func (t *ERITable) processVal(idx int, dens []*mat.SymDense, js, ks []*mat.Dense) {
	i, j, k, l := t.Indices(t.Idx[idx])
	v := t.Val[idx]
	perms := [4][4]int{{i, j, k, l}, {j, i, k, l}, {i, j, l, k}, {j, i, l, k}}
	for n, p := range perms {
		if (n == 1 || n == 3) && i == j {
			continue
		}
		if n >= 2 && k == l {
			continue
		}
		for d, dm := range dens {
			js[d].Set(p[0], p[1], js[d].At(p[0], p[1])+dm.At(p[2], p[3])*v)
			ks[d].Set(p[0], p[2], ks[d].At(p[0], p[2])+dm.At(p[1], p[3])*v)
		}
	}
}

// BuildJK returns J[D] and K[D] for every density. The table is split into
// GOMAXPROCS chunks whose partial matrices are summed.
func (t *ERITable) BuildJK(dens ...*mat.SymDense) ([]*mat.SymDense, []*mat.SymDense) {
	n := t.NAO
	maxGoroutines := runtime.GOMAXPROCS(-1)
	nVee := len(t.Idx)
	if maxGoroutines > nVee {
		maxGoroutines = 1
	}
	listSize := nVee / maxGoroutines
	jParts := make([][]*mat.Dense, maxGoroutines)
	kParts := make([][]*mat.Dense, maxGoroutines)
	var wg sync.WaitGroup
	for w := 0; w < maxGoroutines; w++ {
		jParts[w] = make([]*mat.Dense, len(dens))
		kParts[w] = make([]*mat.Dense, len(dens))
		for d := range dens {
			jParts[w][d] = mat.NewDense(n, n, nil)
			kParts[w][d] = mat.NewDense(n, n, nil)
		}
		start, stop := w*listSize, (w+1)*listSize
		if w == maxGoroutines-1 {
			stop = nVee
		}
		wg.Add(1)
		go func(w, start, stop int) {
			defer wg.Done()
			for idx := start; idx < stop; idx++ {
				t.processVal(idx, dens, jParts[w], kParts[w])
			}
		}(w, start, stop)
	}
	wg.Wait()
	js := make([]*mat.SymDense, len(dens))
	ks := make([]*mat.SymDense, len(dens))
	for d := range dens {
		jSum := mat.NewDense(n, n, nil)
		kSum := mat.NewDense(n, n, nil)
		for w := range jParts {
			jSum.Add(jSum, jParts[w][d])
			kSum.Add(kSum, kParts[w][d])
		}
		js[d] = linalg.Symmetrize(jSum)
		ks[d] = linalg.Symmetrize(kSum)
	}
	return js, ks
}
