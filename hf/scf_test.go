// scf_test.go --  This file is part of goHF project.
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
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"example.com/godecomp/internal/linalg"
)

type SCFSuite struct {
	suite.Suite
}

func (s *SCFSuite) TestH2Energy() {
	opts := DefaultOptions()
	opts.Logger = zaptest.NewLogger(s.T())
	mf, err := RunSCF(h2(s.T()), opts)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), -1.1167, mf.TotalEnergy(), 1e-4)
	require.True(s.T(), mf.Restricted())
	occ := mf.MOOccupations()
	require.Equal(s.T(), []float64{2, 0}, occ[0])
	require.Nil(s.T(), occ[1])
}

func (s *SCFSuite) TestWaterRestricted() {
	mol := water(s.T(), "sto-3g")
	mf, err := RunSCF(mol, DefaultOptions())
	require.NoError(s.T(), err)
	e := mf.TotalEnergy()
	require.Greater(s.T(), e, -75.05)
	require.Less(s.T(), e, -74.90)

	// the energy is the one of the returned orbitals
	D := mf.Density()
	require.InDelta(s.T(), 10.0, linalg.TraceMul(D, mf.Ovlp()), 1e-8)
	J, K, err := mf.EffectivePotential([2]*mat.SymDense{scaled(D, 0.5), scaled(D, 0.5)})
	require.NoError(s.T(), err)
	eel := linalg.TraceMul(mf.CoreHamiltonian(), D) + 0.5*linalg.TraceMul(J, D) -
		0.25*linalg.TraceMul(K[0], D) - 0.25*linalg.TraceMul(K[1], D)
	require.InDelta(s.T(), e, eel+mf.NuclearRepulsion(), 1e-8)

	// orbitals are S-orthonormal
	C := mf.MOCoefficients()[0]
	var ctsc mat.Dense
	ctsc.Mul(C.T(), mf.Ovlp())
	ctsc.Mul(&ctsc, C)
	n, _ := ctsc.Dims()
	require.True(s.T(), mat.EqualApprox(&ctsc, eye(n), 1e-8))
}

func (s *SCFSuite) TestLithiumUnrestricted() {
	li, err := NewAtom("Li", 0, 0, 0)
	require.NoError(s.T(), err)
	mol, err := NewMolecule([]Atom{li}, "sto-3g", 0, 1)
	require.NoError(s.T(), err)
	opts := DefaultOptions()
	opts.Restricted = false
	mf, err := RunSCF(mol, opts)
	require.NoError(s.T(), err)
	require.False(s.T(), mf.Restricted())
	require.Greater(s.T(), mf.TotalEnergy(), -7.35)
	require.Less(s.T(), mf.TotalEnergy(), -7.28)
	occ := mf.MOOccupations()
	require.Equal(s.T(), 2.0, floats.Sum(occ[0]))
	require.Equal(s.T(), 1.0, floats.Sum(occ[1]))
	// a single atom carries no dipole about its own position
	mu := mf.DipoleMoment(mol.AtomCoords()[0])
	for _, v := range mu {
		require.InDelta(s.T(), 0.0, v, 1e-8)
	}
}

func (s *SCFSuite) TestRestrictedOpenShellRejected() {
	li, err := NewAtom("Li", 0, 0, 0)
	require.NoError(s.T(), err)
	mol, err := NewMolecule([]Atom{li}, "sto-3g", 0, 1)
	require.NoError(s.T(), err)
	_, err = RunSCF(mol, DefaultOptions())
	require.ErrorIs(s.T(), err, ErrUnsupported)
}

func (s *SCFSuite) TestUnsupportedOptions() {
	opts := DefaultOptions()
	opts.XC = "b3lyp"
	_, err := RunSCF(h2(s.T()), opts)
	require.ErrorIs(s.T(), err, ErrUnsupported)

	opts = DefaultOptions()
	opts.IrrepNelec = map[string]int{"A1": 2}
	_, err = RunSCF(h2(s.T()), opts)
	require.ErrorIs(s.T(), err, ErrUnsupported)
}

func (s *SCFSuite) TestMOMOccupations() {
	opts := DefaultOptions()
	opts.MOM = []map[int]float64{{0: 1}}
	_, err := RunSCF(h2(s.T()), opts)
	require.ErrorIs(s.T(), err, ErrUnsupported)

	opts = DefaultOptions()
	opts.Restricted = false
	opts.MOM = []map[int]float64{{0: 2}}
	_, err = RunSCF(h2(s.T()), opts)
	require.ErrorIs(s.T(), err, ErrInput)

	opts = DefaultOptions()
	opts.MOM = []map[int]float64{{1: 2}}
	_, err = RunSCF(h2(s.T()), opts)
	require.ErrorIs(s.T(), err, ErrInput, "electron count must be preserved")
}

func (s *SCFSuite) TestMOMGroundState() {
	ref, err := RunSCF(h2(s.T()), Options{})
	require.NoError(s.T(), err)
	opts := Options{MOM: []map[int]float64{{0: 1}, {0: 1}}}
	mf, err := RunSCF(h2(s.T()), opts)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), ref.TotalEnergy(), mf.TotalEnergy(), 1e-8)
}

func TestSCFSuite(t *testing.T) {
	suite.Run(t, new(SCFSuite))
}

func scaled(d *mat.SymDense, f float64) *mat.SymDense {
	var res mat.SymDense
	res.ScaleSym(f, d)
	return &res
}

func eye(n int) *mat.Dense {
	res := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		res.Set(i, i, 1)
	}
	return res
}
