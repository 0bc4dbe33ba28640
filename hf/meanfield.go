// meanfield.go --  This file is part of goHF project.
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
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// MinimalBasisName is the basis the intrinsic atomic orbitals are built from.
const MinimalBasisName = "sto-3g"

// MeanField is a converged Hartree-Fock solution together with the
// integrals needed to analyse it. Returned matrices are shared and must
// not be modified.
type MeanField struct {
	mol        *Molecule
	restricted bool
	s, h1      *mat.SymDense
	eri        *ERITable
	coeff      [2]*mat.Dense
	occ        [2][]float64
	eps        [2][]float64
	eTot       float64
	iters      int

	oneOnce sync.Once
	t, v    *mat.SymDense
	vAtoms  []*mat.SymDense

	minOnce sync.Once
	minS2   *mat.SymDense
	minS12  *mat.Dense
	minAO   []int
	minErr  error
}

func (mf *MeanField) Molecule() *Molecule { return mf.mol }

func (mf *MeanField) NAtoms() int               { return mf.mol.NAtoms() }
func (mf *MeanField) AtomCharges() []float64    { return mf.mol.AtomCharges() }
func (mf *MeanField) AtomCoords() [][3]float64  { return mf.mol.AtomCoords() }
func (mf *MeanField) AtomSymbols() []string     { return mf.mol.AtomSymbols() }
func (mf *MeanField) AOAtoms() []int            { return mf.mol.AOAtoms() }
func (mf *MeanField) NElectrons() int           { return mf.mol.NElectrons() }
func (mf *MeanField) Spin() int                 { return mf.mol.Spin }
func (mf *MeanField) BasisName() string         { return mf.mol.BasisName }
func (mf *MeanField) Restricted() bool          { return mf.restricted }
func (mf *MeanField) TotalEnergy() float64      { return mf.eTot }
func (mf *MeanField) NuclearRepulsion() float64 { return mf.mol.NucNuc() }
func (mf *MeanField) Iterations() int           { return mf.iters }

// ExchangeScale is the fraction of exact exchange, 1 for Hartree-Fock.
func (mf *MeanField) ExchangeScale() float64 { return 1 }

func (mf *MeanField) Ovlp() *mat.SymDense { return mf.s }

// CoreHamiltonian is T + V.
func (mf *MeanField) CoreHamiltonian() *mat.SymDense { return mf.h1 }

func (mf *MeanField) oneElectron() {
	mf.oneOnce.Do(func() {
		mf.t = mf.mol.Kinetic()
		mf.v, mf.vAtoms = mf.mol.ElecNuc()
	})
}

func (mf *MeanField) Kinetic() *mat.SymDense {
	mf.oneElectron()
	return mf.t
}

// NucAttraction is the attraction to all nuclei.
func (mf *MeanField) NucAttraction() *mat.SymDense {
	mf.oneElectron()
	return mf.v
}

// NucAttractionAtom is the attraction to nucleus k; the matrices of all
// atoms sum to NucAttraction.
func (mf *MeanField) NucAttractionAtom(k int) *mat.SymDense {
	mf.oneElectron()
	return mf.vAtoms[k]
}

// DipoleIntegrals returns <μ|r - origin|ν> per Cartesian component.
func (mf *MeanField) DipoleIntegrals(origin [3]float64) [3]*mat.SymDense {
	return mf.mol.Dipole(origin)
}

// MOCoefficients returns copies of the MO coefficients per spin channel.
// For restricted references both entries hold the same orbitals.
func (mf *MeanField) MOCoefficients() [2]*mat.Dense {
	return [2]*mat.Dense{mat.DenseCopyOf(mf.coeff[0]), mat.DenseCopyOf(mf.coeff[1])}
}

// MOOccupations returns the occupations. Restricted references carry
// 0/1/2 occupations in the first entry and nil in the second.
func (mf *MeanField) MOOccupations() [2][]float64 {
	return [2][]float64{slices.Clone(mf.occ[0]), slices.Clone(mf.occ[1])}
}

func (mf *MeanField) MOEnergies() [2][]float64 {
	return [2][]float64{slices.Clone(mf.eps[0]), slices.Clone(mf.eps[1])}
}

// MinimalBasis returns the STO-3G overlap, the cross overlap <μ|ν_min>
// and the atom of every minimal basis function.
func (mf *MeanField) MinimalBasis() (*mat.SymDense, *mat.Dense, []int, error) {
	mf.minOnce.Do(func() {
		minMol, err := mf.mol.WithBasis(MinimalBasisName)
		if err != nil {
			mf.minErr = fmt.Errorf("minimal basis: %w", err)
			return
		}
		mf.minS2 = minMol.Ovlp()
		mf.minS12 = mf.mol.CrossOvlp(minMol)
		mf.minAO = minMol.AOAtoms()
	})
	return mf.minS2, mf.minS12, mf.minAO, mf.minErr
}

// EffectivePotential returns J[Dα+Dβ] and K[D_s] for AO density matrices.
func (mf *MeanField) EffectivePotential(rdm1 [2]*mat.SymDense) (*mat.SymDense, [2]*mat.SymDense, error) {
	n := mf.mol.NAO()
	for s, d := range rdm1 {
		if d == nil || d.SymmetricDim() != n {
			return nil, [2]*mat.SymDense{}, fmt.Errorf("density of spin %d is not %dx%d: %w", s, n, n, ErrInput)
		}
	}
	js, ks := mf.eri.BuildJK(rdm1[0], rdm1[1])
	j := mat.NewSymDense(n, nil)
	j.AddSym(js[0], js[1])
	return j, [2]*mat.SymDense{ks[0], ks[1]}, nil
}

// DipoleMoment is the total dipole about origin in atomic units.
func (mf *MeanField) DipoleMoment(origin [3]float64) [3]float64 {
	ints := mf.mol.Dipole(origin)
	dens := mf.Density()
	coords := mf.mol.AtomCoords()
	var res [3]float64
	for k := 0; k < 3; k++ {
		res[k] = -mat.Sum(elemMul(ints[k], dens))
		for a, atm := range mf.mol.Atoms {
			res[k] += float64(atm.Z) * (coords[a][k] - origin[k])
		}
	}
	return res
}

// Density is the total AO density matrix.
func (mf *MeanField) Density() *mat.SymDense {
	n := mf.mol.NAO()
	res := mat.NewSymDense(n, nil)
	_, nmo := mf.coeff[0].Dims()
	for s := 0; s < 2; s++ {
		if mf.occ[s] == nil {
			continue
		}
		for j := 0; j < nmo; j++ {
			if mf.occ[s][j] == 0 {
				continue
			}
			res.SymRankOne(res, mf.occ[s][j], mat.NewVecDense(n, mat.Col(nil, j, mf.coeff[s])))
		}
	}
	return res
}

func elemMul(a, b mat.Matrix) *mat.Dense {
	var res mat.Dense
	res.MulElem(a, b)
	return &res
}
