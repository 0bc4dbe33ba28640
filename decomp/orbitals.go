// orbitals.go --  This file is part of goHF project.
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
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"

	"example.com/godecomp/internal/linalg"
)

const occTol = 1e-10

// OrbitalSet holds the orbitals of both spin channels. Coefficients are
// nao x nmo; occupations lie in [0, 1].
type OrbitalSet struct {
	Coeff [2]*mat.Dense
	Occ   [2][]float64
}

// SpinResolve splits mean-field orbitals into two spin channels. Restricted
// occupations of up to 2 are shared between α and β; both channels then
// hold copies of the same coefficients.
func SpinResolve(c [2]*mat.Dense, occ [2][]float64, restricted bool) (OrbitalSet, error) {
	var res OrbitalSet
	if c[0] == nil {
		return res, dimErr("no MO coefficients")
	}
	if restricted {
		_, nmo := c[0].Dims()
		if len(occ[0]) != nmo {
			return res, dimErr("%d occupations for %d orbitals", len(occ[0]), nmo)
		}
		res.Occ = [2][]float64{make([]float64, nmo), make([]float64, nmo)}
		for i, o := range occ[0] {
			if o < 0 || o > 2 {
				return res, dimErr("occupation %g of orbital %d outside [0, 2]", o, i)
			}
			res.Occ[0][i] = math.Min(o, 1)
			res.Occ[1][i] = o - res.Occ[0][i]
		}
		res.Coeff = [2]*mat.Dense{mat.DenseCopyOf(c[0]), mat.DenseCopyOf(c[0])}
		return res, nil
	}
	for s := 0; s < 2; s++ {
		if c[s] == nil {
			return res, dimErr("no MO coefficients for spin %d", s)
		}
		_, nmo := c[s].Dims()
		if len(occ[s]) != nmo {
			return res, dimErr("%d occupations for %d orbitals of spin %d", len(occ[s]), nmo, s)
		}
		for i, o := range occ[s] {
			if o < 0 || o > 1 {
				return res, dimErr("occupation %g of spin %d orbital %d outside [0, 1]", o, s, i)
			}
		}
		res.Coeff[s] = mat.DenseCopyOf(c[s])
		res.Occ[s] = slices.Clone(occ[s])
	}
	return res, nil
}

// Clone returns a deep copy.
func (o OrbitalSet) Clone() OrbitalSet {
	var res OrbitalSet
	for s := 0; s < 2; s++ {
		if o.Coeff[s] != nil {
			res.Coeff[s] = mat.DenseCopyOf(o.Coeff[s])
		}
		res.Occ[s] = slices.Clone(o.Occ[s])
	}
	return res
}

// Occupied lists the orbitals of a channel with non-zero occupation.
func (o OrbitalSet) Occupied(spin int) []int {
	var res []int
	for i, occ := range o.Occ[spin] {
		if occ > 0 {
			res = append(res, i)
		}
	}
	return res
}

// NAO is the number of basis functions.
func (o OrbitalSet) NAO() int {
	r, _ := o.Coeff[0].Dims()
	return r
}

func (o OrbitalSet) check(nao int) error {
	for s := 0; s < 2; s++ {
		if o.Coeff[s] == nil {
			return dimErr("no orbitals for spin %d", s)
		}
		r, c := o.Coeff[s].Dims()
		if r != nao {
			return dimErr("spin %d orbitals have %d coefficients, basis has %d functions", s, r, nao)
		}
		if len(o.Occ[s]) != c {
			return dimErr("%d occupations for %d orbitals of spin %d", len(o.Occ[s]), c, s)
		}
	}
	return nil
}

// orbitalDensity returns occ c cᵀ for column j of the channel.
func (o OrbitalSet) orbitalDensity(spin, j int) *mat.SymDense {
	return linalg.Outer(mat.NewVecDense(o.NAO(), mat.Col(nil, j, o.Coeff[spin])), o.Occ[spin][j])
}

// densities returns the AO density matrix of each channel.
func (o OrbitalSet) densities() [2]*mat.SymDense {
	var res [2]*mat.SymDense
	for s := 0; s < 2; s++ {
		res[s] = linalg.Density(o.Coeff[s], o.Occ[s])
	}
	return res
}

// NaturalOrbitals diagonalises a one-particle density matrix given per spin
// in the MO basis of c. Orbitals are ordered by decreasing occupation.
func NaturalOrbitals(c [2]*mat.Dense, rdm1 [2]*mat.SymDense) (OrbitalSet, error) {
	var res OrbitalSet
	for s := 0; s < 2; s++ {
		if c[s] == nil || rdm1[s] == nil {
			return res, dimErr("missing orbitals or density for spin %d", s)
		}
		_, nmo := c[s].Dims()
		if rdm1[s].SymmetricDim() != nmo {
			return res, dimErr("density of spin %d is %dx%d, expected %dx%d",
				s, rdm1[s].SymmetricDim(), rdm1[s].SymmetricDim(), nmo, nmo)
		}
		var eig mat.EigenSym
		if !eig.Factorize(rdm1[s], true) {
			return res, dimErr("density of spin %d could not be diagonalised", s)
		}
		vals := eig.Values(nil)
		var vecs mat.Dense
		eig.VectorsTo(&vecs)
		order := make([]int, nmo)
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case vals[a] > vals[b]:
				return -1
			case vals[a] < vals[b]:
				return 1
			}
			return 0
		})
		u := mat.NewDense(nmo, nmo, nil)
		res.Occ[s] = make([]float64, nmo)
		for k, i := range order {
			u.SetCol(k, mat.Col(nil, i, &vecs))
			res.Occ[s][k] = roundOcc(vals[i])
		}
		var no mat.Dense
		no.Mul(c[s], u)
		res.Coeff[s] = &no
	}
	return res, nil
}

// roundOcc clamps a natural occupation to [0, 1] and snaps values within
// occTol of either bound.
func roundOcc(v float64) float64 {
	switch {
	case v < occTol:
		return 0
	case v > 1-occTol:
		return 1
	}
	return v
}

// CoreOrbitals counts the doubly occupied core orbitals of the molecule:
// one shell per row of the periodic table below the valence shell.
func CoreOrbitals(charges []float64) int {
	ncore := 0
	for _, z := range charges {
		if z > 2 {
			ncore++
		}
		if z > 12 {
			ncore += 4
		}
		if z > 20 {
			ncore += 4
		}
		if z > 30 {
			ncore += 6
		}
	}
	return ncore
}

// DefaultGroups returns the localization groups of every channel: all
// occupied orbitals together, or core and valence blocks when splitCore
// is set. Groups hold positions in Occupied(spin).
func DefaultGroups(orbs OrbitalSet, charges []float64, splitCore bool) [2][][]int {
	var res [2][][]int
	ncore := CoreOrbitals(charges)
	for s := 0; s < 2; s++ {
		nocc := len(orbs.Occupied(s))
		all := make([]int, nocc)
		for i := range all {
			all[i] = i
		}
		if !splitCore || ncore == 0 || ncore >= nocc {
			res[s] = [][]int{all}
			continue
		}
		res[s] = [][]int{all[:ncore], all[ncore:]}
	}
	return res
}

func checkGroups(groups [][]int, nocc, spin int) error {
	seen := make([]bool, nocc)
	for _, g := range groups {
		for _, p := range g {
			if p < 0 || p >= nocc {
				return dimErr("localization group entry %d of spin %d outside [0, %d)", p, spin, nocc)
			}
			if seen[p] {
				return dimErr("orbital %d of spin %d appears in two localization groups", p, spin)
			}
			seen[p] = true
		}
	}
	return nil
}
