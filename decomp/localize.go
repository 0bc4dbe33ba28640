// localize.go --  This file is part of goHF project.
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

// Localize rotates the occupied orbitals of every channel into localized
// orbitals of the given variant. parts[spin] lists groups of positions in
// orbs.Occupied(spin) that are localized independently; a nil entry means
// one group with every occupied orbital. Virtual orbitals are untouched
// and the input is not modified.
//
// For a restricted reference with zero spin only channel α is localized
// and channel β receives a copy.
func Localize(mf MeanField, orbs OrbitalSet, variant Variant, ref Reference, parts [2][][]int) (OrbitalSet, error) {
	if !variant.valid() {
		return OrbitalSet{}, fmt.Errorf("%v: %w", variant, ErrUnknownVariant)
	}
	if !ref.valid() {
		return OrbitalSet{}, fmt.Errorf("%v: %w", ref, ErrUnknownReference)
	}
	if err := orbs.check(len(mf.AOAtoms())); err != nil {
		return OrbitalSet{}, err
	}
	res := orbs.Clone()
	if variant == NoLocalization {
		return res, nil
	}
	if ref == Restricted && mf.Spin() == 0 {
		c, err := localizeChannel(mf, orbs, 0, variant, parts[0])
		if err != nil {
			return OrbitalSet{}, err
		}
		res.Coeff[0] = c
		res.Coeff[1] = mat.DenseCopyOf(c)
		res.Occ[1] = append(res.Occ[1][:0], res.Occ[0]...)
		return res, nil
	}
	for s := 0; s < 2; s++ {
		c, err := localizeChannel(mf, orbs, s, variant, parts[s])
		if err != nil {
			return OrbitalSet{}, err
		}
		res.Coeff[s] = c
	}
	return res, nil
}

// localizeChannel returns a copy of the coefficients of one channel with
// every group of occupied orbitals localized.
func localizeChannel(mf MeanField, orbs OrbitalSet, spin int, variant Variant, groups [][]int) (*mat.Dense, error) {
	occ := orbs.Occupied(spin)
	if groups == nil {
		all := make([]int, len(occ))
		for i := range all {
			all[i] = i
		}
		groups = [][]int{all}
	}
	if err := checkGroups(groups, len(occ), spin); err != nil {
		return nil, err
	}
	res := mat.DenseCopyOf(orbs.Coeff[spin])

	// the IAOs span the whole occupied space of the channel
	var iao *mat.Dense
	var minAtoms []int
	if variant == IBO2 || variant == IBO4 {
		if len(occ) == 0 {
			return res, nil
		}
		var err error
		iao, minAtoms, err = iaoBasis(mf, linalg.Columns(orbs.Coeff[spin], occ))
		if err != nil {
			return nil, err
		}
	}

	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		cols := make([]int, len(g))
		for k, p := range g {
			cols[k] = occ[p]
		}
		c := linalg.Columns(orbs.Coeff[spin], cols)
		loc, err := newLocality(mf, c, variant, iao, minAtoms)
		if err != nil {
			return nil, err
		}
		u, err := optimise(loc, len(cols), variant, spin, maxSweeps)
		if err != nil {
			return nil, err
		}
		var rot mat.Dense
		rot.Mul(c, u)
		for k, col := range cols {
			res.SetCol(col, mat.Col(nil, k, &rot))
		}
	}
	return res, nil
}

// newLocality builds the strategy of a variant for the orbitals c.
func newLocality(mf MeanField, c *mat.Dense, variant Variant, iao *mat.Dense, minAtoms []int) (locality, error) {
	switch variant {
	case FosterBoys:
		ints := mf.DipoleIntegrals([3]float64{})
		var loc boysLocality
		for k := 0; k < 3; k++ {
			var rc, x mat.Dense
			rc.Mul(ints[k], c)
			x.Mul(c.T(), &rc)
			loc.x[k] = linalg.Symmetrize(&x)
		}
		return &loc, nil
	case PipekMezey:
		var sc mat.Dense
		sc.Mul(mf.Ovlp(), c)
		return newChargeLocality(mat.DenseCopyOf(c), &sc, mf.AOAtoms(), mf.NAtoms()), nil
	case IBO2, IBO4:
		cib := iaoCoefficients(iao, mf.Ovlp(), c)
		return newChargeLocality(cib, cib, minAtoms, mf.NAtoms()), nil
	}
	return nil, fmt.Errorf("%v: %w", variant, ErrUnknownVariant)
}
