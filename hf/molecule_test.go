// molecule_test.go --  This file is part of goHF project.
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
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementTable(t *testing.T) {
	z, err := ElemData.atomicNumber("o")
	require.NoError(t, err)
	assert.Equal(t, 8, z)
	assert.Equal(t, "Ne", ElemData.Symb[10])

	_, err = ElemData.atomicNumber("Xx")
	assert.ErrorIs(t, err, ErrUnknownElement)
	_, err = ElemData.atomicNumber("X")
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestParseInput(t *testing.T) {
	mol, err := ParseInput([]string{
		"Atoms",
		"O   0.0  0.0  0.1173",
		"",
		"H   0.0  0.7572 -0.4692",
		"H   0.0 -0.7572 -0.4692",
		"end",
		"Basis",
		"STO-3G",
		"end",
		"charge 1",
		"spin 1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, mol.NAtoms())
	assert.Equal(t, "sto-3g", mol.BasisName)
	assert.Equal(t, 9, mol.NElectrons())
	assert.Equal(t, 5, mol.NAlpha())
	assert.Equal(t, 4, mol.NBeta())
	assert.Equal(t, 7, mol.NAO())
	assert.Equal(t, []string{"O", "H", "H"}, mol.AtomSymbols())
	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 2}, mol.AOAtoms())
	assert.Equal(t, "H3", mol.Atoms[2].Name)
	assert.InDelta(t, 0.7572/ABohr, mol.AtomCoords()[1][1], 1e-12)
}

func TestParseInputErrors(t *testing.T) {
	cases := map[string][]string{
		"no atoms":        {"Basis", "sto-3g", "end"},
		"unterminated":    {"Atoms", "H 0 0 0"},
		"bad coordinates": {"Atoms", "H 0 0", "end"},
		"bad charge":      {"Atoms", "H 0 0 0", "H 0 0 0.74", "end", "charge x"},
		"odd electrons":   {"Atoms", "H 0 0 0", "H 0 0 0.74", "end", "spin 1"},
	}
	for name, input := range cases {
		_, err := ParseInput(input)
		assert.ErrorIs(t, err, ErrInput, name)
	}

	_, err := ParseInput([]string{"Atoms", "Q 0 0 0", "end"})
	assert.ErrorIs(t, err, ErrUnknownElement)

	_, err = ParseInput([]string{"Atoms", "H 0 0 0", "H 0 0 0.74", "end", "Basis", "cc-pvqz", "end"})
	assert.ErrorIs(t, err, ErrUnknownBasis)
}

func TestMissingElementInBasis(t *testing.T) {
	ne, err := NewAtom("Ne", 0, 0, 0)
	require.NoError(t, err)
	_, err = NewMolecule([]Atom{ne}, "6-31g", 0, 0)
	assert.ErrorIs(t, err, ErrUnknownBasis)
}

func TestNewMoleculeCopiesAtoms(t *testing.T) {
	h, err := NewAtom("H", 0, 0, 0)
	require.NoError(t, err)
	h2, err := NewAtom("H", 0, 0, 0.74)
	require.NoError(t, err)
	atoms := []Atom{h, h2}
	mol, err := NewMolecule(atoms, "6-31g", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, atoms[0].Name)
	assert.Nil(t, atoms[0].Basis)
	assert.Equal(t, 4, mol.NAO())

	minMol, err := mol.WithBasis("sto-3g")
	require.NoError(t, err)
	assert.Equal(t, 2, minMol.NAO())
	assert.Equal(t, 4, mol.NAO())
}

func TestCanonicalBasis(t *testing.T) {
	assert.Equal(t, "sto-3g", canonicalBasis("STO3G"))
	assert.Equal(t, "6-31g", canonicalBasis("631g"))
	assert.Equal(t, "def2-svp", canonicalBasis("def2-SVP"))
}

func TestParseInputNProcs(t *testing.T) {
	prev := runtime.GOMAXPROCS(0)
	want := prev + 3
	mol, err := ParseInput([]string{
		"Atoms",
		"H 0 0 0",
		"H 0 0 0.74",
		"end",
		"Basis",
		"sto-3g",
		"end",
		"nprocs " + strconv.Itoa(want),
	})
	require.NoError(t, err)
	assert.Equal(t, want, mol.NProcs)
	assert.Equal(t, prev, runtime.GOMAXPROCS(0))
}
