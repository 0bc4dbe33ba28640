// nuclear.go --  This file is part of goHF project.
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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"example.com/godecomp/internal/linalg"
)

// ChargeCentre is the centre of nuclear charge, the default gauge origin
// of the dipole.
func ChargeCentre(mol Molecule) [3]float64 {
	charges := mol.AtomCharges()
	coords := mol.AtomCoords()
	var res [3]float64
	total := floats.Sum(charges)
	if total == 0 {
		return res
	}
	for a, z := range charges {
		for k := 0; k < 3; k++ {
			res[k] += z * coords[a][k]
		}
	}
	for k := range res {
		res[k] /= total
	}
	return res
}

// structEnergy splits the nuclear repulsion evenly between the two atoms
// of every pair.
func structEnergy(mol Molecule) []float64 {
	charges := mol.AtomCharges()
	coords := mol.AtomCoords()
	res := make([]float64, len(charges))
	for k := range charges {
		for l := range charges {
			if l == k {
				continue
			}
			r := math.Sqrt(sqDist(coords[k], coords[l]))
			res[k] += 0.5 * charges[k] * charges[l] / r
		}
	}
	return res
}

func sqDist(a, b [3]float64) float64 {
	res := 0.0
	for k := 0; k < 3; k++ {
		res += (a[k] - b[k]) * (a[k] - b[k])
	}
	return res
}

// nucAttLocal gives every atom half the attraction of the whole electron
// density to its own nucleus.
func nucAttLocal(ints Integrals, natm int, dTot mat.Matrix) []float64 {
	res := make([]float64, natm)
	for k := range res {
		res[k] = 0.5 * linalg.TraceMul(ints.NucAttractionAtom(k), dTot)
	}
	return res
}

// nuclearDipoles returns Z_k (R_k - O) per atom.
func nuclearDipoles(mol Molecule, origin [3]float64) [][3]float64 {
	charges := mol.AtomCharges()
	coords := mol.AtomCoords()
	res := make([][3]float64, len(charges))
	for a, z := range charges {
		for k := 0; k < 3; k++ {
			res[a][k] = z * (coords[a][k] - origin[k])
		}
	}
	return res
}
