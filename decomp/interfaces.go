// interfaces.go --  This file is part of goHF project.
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

import "gonum.org/v1/gonum/mat"

// Molecule is the read-only description of the system. Coordinates are
// in bohr.
type Molecule interface {
	NAtoms() int
	AtomCharges() []float64
	AtomCoords() [][3]float64
	AtomSymbols() []string
	// AOAtoms maps every basis function to its atom.
	AOAtoms() []int
	NElectrons() int
	// Spin is 2S.
	Spin() int
	BasisName() string
}

// Integrals is the AO integral bundle. Implementations must be safe for
// concurrent readers; returned matrices are never modified.
type Integrals interface {
	Ovlp() *mat.SymDense
	Kinetic() *mat.SymDense
	NucAttraction() *mat.SymDense
	// NucAttractionAtom is the attraction to nucleus k alone; summed over
	// all atoms it equals NucAttraction.
	NucAttractionAtom(k int) *mat.SymDense
	DipoleIntegrals(origin [3]float64) [3]*mat.SymDense
	// MinimalBasis returns the minimal basis overlap S2, the cross overlap
	// S12 between the computational and the minimal basis, and the atom of
	// every minimal basis function.
	MinimalBasis() (s2 *mat.SymDense, s12 *mat.Dense, aoAtoms []int, err error)
}

// MeanField is a converged SCF solution.
type MeanField interface {
	Molecule
	Integrals
	// MOCoefficients holds nao x nmo matrices per spin channel.
	MOCoefficients() [2]*mat.Dense
	// MOOccupations holds 0/1 occupations per channel, or 0/1/2 in the
	// first entry for restricted references.
	MOOccupations() [2][]float64
	Restricted() bool
	// EffectivePotential returns J[Dα+Dβ] and K[D_s] for AO densities.
	EffectivePotential(rdm1 [2]*mat.SymDense) (j *mat.SymDense, k [2]*mat.SymDense, err error)
	TotalEnergy() float64
}

// ExchangeScaler is implemented by hybrid functionals; plain Hartree-Fock
// mean fields use a scale of 1.
type ExchangeScaler interface {
	ExchangeScale() float64
}

// XCPartitioner evaluates the exchange-correlation energy of one orbital
// density, for DFT mean fields.
type XCPartitioner interface {
	OrbitalXC(rdm1 *mat.SymDense) float64
}

// CubeWriter writes a density on a real-space grid.
type CubeWriter interface {
	WriteCube(path, comment string, rdm1 *mat.SymDense) error
}
