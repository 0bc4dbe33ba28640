// molecule.go --  This file is part of goHF project.
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
	"bufio"
	"embed"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

//go:embed data
var dataFS embed.FS

// ABohr is the Bohr radius in Angstrom.
const ABohr = 0.52917720859

// ElemData is the periodic table read from data/elements.csv.
var ElemData Mendeleev

func init() {
	if err := ElemData.build(); err != nil {
		panic(err)
	}
}

type Mendeleev struct {
	Z          []int
	Symb, Name []string
	Mass       []float64
}

func (m *Mendeleev) build() error {
	data, err := readEmbedded("data/elements.csv")
	if err != nil {
		return err
	}
	// index 0 is a ghost entry so that Symb[Z] works
	m.Z = []int{0}
	m.Symb = []string{"X"}
	m.Name = []string{"Ghost"}
	m.Mass = []float64{0}
	for i, str := range data {
		if i == 0 || strings.TrimSpace(str) == "" {
			continue
		}
		words := strings.Split(str, ",")
		if len(words) < 4 {
			return fmt.Errorf("elements.csv line %d: %w", i+1, ErrInput)
		}
		z, _ := strconv.Atoi(words[0])
		mass, _ := strconv.ParseFloat(words[3], 64)
		m.Z = append(m.Z, z)
		m.Mass = append(m.Mass, mass)
		m.Symb = append(m.Symb, words[1])
		m.Name = append(m.Name, words[2])
	}
	return nil
}

// Atomic number of a symbol, case insensitive.
func (m *Mendeleev) atomicNumber(symb string) (int, error) {
	idx := slices.IndexFunc(m.Symb, func(s string) bool { return strings.EqualFold(s, symb) })
	if idx <= 0 {
		return 0, fmt.Errorf("%q: %w", symb, ErrUnknownElement)
	}
	return m.Z[idx], nil
}

// Atom is a nucleus with its basis shells. Coords are in Angstrom.
type Atom struct {
	Z      int
	Name   string
	Coords [3]float64
	Basis  []Shell
}

// Shell is a contracted shell of angular momentum l.
type Shell struct {
	n, l, nPrim int
	Funcs       []PrimitiveGauss
}

type PrimitiveGauss struct {
	zeta, preExp float64
}

// Molecule holds the atoms, the electron bookkeeping and the expanded
// Cartesian basis functions.
type Molecule struct {
	Atoms  []Atom
	Charge int
	// Spin is 2S, the number of unpaired electrons.
	Spin      int
	BasisName string
	// NProcs is the requested parallelism; the caller decides how to apply
	// it.
	NProcs int

	funcs []basisFunction
}

// NewMolecule builds a molecule from atoms with Angstrom coordinates and
// loads the named basis set for every atom.
func NewMolecule(atoms []Atom, basis string, charge, spin int) (*Molecule, error) {
	mol := &Molecule{Atoms: append([]Atom(nil), atoms...), Charge: charge, Spin: spin}
	for i := range mol.Atoms {
		if mol.Atoms[i].Name == "" {
			mol.Atoms[i].Name = ElemData.Symb[mol.Atoms[i].Z] + strconv.Itoa(i+1)
		}
	}
	if err := mol.getBasis(basis); err != nil {
		return nil, err
	}
	if err := mol.checkElectrons(); err != nil {
		return nil, err
	}
	return mol, nil
}

// NewAtom returns an atom from its symbol and Angstrom coordinates.
func NewAtom(symb string, x, y, z float64) (Atom, error) {
	zz, err := ElemData.atomicNumber(symb)
	if err != nil {
		return Atom{}, err
	}
	return Atom{Z: zz, Coords: [3]float64{x, y, z}}, nil
}

// ParseInput reads the goHF input format:
//
//	Atoms
//	O  0.000  0.000  0.117
//	H  0.000  0.757 -0.470
//	end
//	Basis
//	sto-3g
//	end
//	charge 0
//	spin 0
//	nprocs 4
func ParseInput(data []string) (*Molecule, error) {
	var atomsFound bool
	var atomStart, atomEnd int
	basisName := "sto-3g"
	var mol Molecule
	for i := 0; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) == 0 {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "atoms":
			atomsFound = true
			atomStart = i
			end, err := findBlockEnd(i, data, "Atoms")
			if err != nil {
				return nil, err
			}
			atomEnd = end
		case "basis":
			if i+1 >= len(data) {
				return nil, fmt.Errorf("empty Basis block: %w", ErrInput)
			}
			basisName = strings.TrimSpace(data[i+1])
			if _, err := findBlockEnd(i, data, "Basis"); err != nil {
				return nil, err
			}
		case "charge", "spin", "nprocs":
			if len(words) < 2 {
				return nil, fmt.Errorf("line %d: %s needs a value: %w", i+1, words[0], ErrInput)
			}
			v, err := strconv.Atoi(words[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %v: %w", i+1, err, ErrInput)
			}
			switch strings.ToLower(words[0]) {
			case "charge":
				mol.Charge = v
			case "spin":
				mol.Spin = v
			default:
				mol.NProcs = v
			}
		}
	}
	if !atomsFound {
		return nil, fmt.Errorf("no Atoms block found: %w", ErrInput)
	}
	if err := mol.addAtoms(data, atomStart+1, atomEnd-1); err != nil {
		return nil, err
	}
	if err := mol.getBasis(basisName); err != nil {
		return nil, err
	}
	if err := mol.checkElectrons(); err != nil {
		return nil, err
	}
	return &mol, nil
}

func findBlockEnd(n int, data []string, bname string) (int, error) {
	for i := n; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) > 0 && strings.ToLower(words[0]) == "end" {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no end of block %s: %w", bname, ErrInput)
}

func (m *Molecule) addAtoms(data []string, start int, end int) error {
	for i := start; i < end+1; i++ {
		words := strings.Fields(data[i])
		if len(words) == 0 {
			continue
		}
		if len(words) < 4 {
			return fmt.Errorf("incorrect format of coordinates on line %d: %w", i+1, ErrInput)
		}
		atm, err := NewAtom(words[0], 0, 0, 0)
		if err != nil {
			return err
		}
		for k := 0; k < 3; k++ {
			atm.Coords[k], err = strconv.ParseFloat(words[k+1], 64)
			if err != nil {
				return fmt.Errorf("line %d: %v: %w", i+1, err, ErrInput)
			}
		}
		atm.Name = words[0] + strconv.Itoa(1+len(m.Atoms))
		m.Atoms = append(m.Atoms, atm)
	}
	return nil
}

// canonicalBasis maps user spellings (sto3g, STO-3G, 631g) to file names.
func canonicalBasis(name string) string {
	b := strings.ToLower(strings.Fields(name + " ")[0])
	switch strings.ReplaceAll(b, "-", "") {
	case "sto3g":
		return "sto-3g"
	case "631g":
		return "6-31g"
	}
	return b
}

func (m *Molecule) getBasis(bName string) error {
	if strings.TrimSpace(bName) == "" {
		return fmt.Errorf("empty basis name: %w", ErrUnknownBasis)
	}
	m.BasisName = canonicalBasis(bName)
	data, err := readEmbedded("data/basis/" + m.BasisName + ".txt")
	if err != nil {
		return fmt.Errorf("%s: %w", bName, ErrUnknownBasis)
	}
	for i := range m.Atoms {
		m.Atoms[i].Basis = nil
		symb := strings.ToUpper(ElemData.Symb[m.Atoms[i].Z])
		for j, str := range data {
			words := strings.Fields(str)
			if len(words) > 1 && len(words[0]) > 2 && words[1] == symb {
				if err := m.Atoms[i].getBasis(data, j+2); err != nil {
					return err
				}
				break
			}
		}
		if len(m.Atoms[i].Basis) == 0 {
			return fmt.Errorf("no %s basis for element %s: %w", m.BasisName, symb, ErrUnknownBasis)
		}
	}
	m.buildFunctions()
	return nil
}

func (atm *Atom) getBasis(data []string, pos int) error {
	field := func(line, k int) (string, error) {
		if line >= len(data) {
			return "", fmt.Errorf("truncated basis entry: %w", ErrInput)
		}
		words := strings.Fields(data[line])
		if k >= len(words) {
			return "", fmt.Errorf("malformed basis line %q: %w", data[line], ErrInput)
		}
		return words[k], nil
	}
	w, err := field(pos, 0)
	if err != nil {
		return err
	}
	nShells, _ := strconv.Atoi(w)
	pos++
	for k := 0; k < nShells; k++ {
		var sh Shell
		var vals [3]string
		for f := range vals {
			if vals[f], err = field(pos, f); err != nil {
				return err
			}
		}
		sh.n, _ = strconv.Atoi(vals[0])
		sh.l, _ = strconv.Atoi(vals[1])
		sh.nPrim, _ = strconv.Atoi(vals[2])
		pos++
		for l := 0; l < sh.nPrim; l++ {
			var pg PrimitiveGauss
			z, err := field(pos, 0)
			if err != nil {
				return err
			}
			c, err := field(pos, 1)
			if err != nil {
				return err
			}
			pg.zeta, _ = strconv.ParseFloat(z, 64)
			pg.preExp, _ = strconv.ParseFloat(c, 64)
			sh.Funcs = append(sh.Funcs, pg)
			pos++
		}
		atm.Basis = append(atm.Basis, sh)
	}
	return nil
}

func (m *Molecule) getNelec() int {
	result := 0
	for _, a := range m.Atoms {
		result += a.Z
	}
	return result - m.Charge
}

func (m *Molecule) checkElectrons() error {
	n := m.getNelec()
	if n < 0 || m.Spin < 0 || m.Spin > n || (n-m.Spin)%2 != 0 {
		return fmt.Errorf("%d electrons with spin %d: %w", n, m.Spin, ErrInput)
	}
	return nil
}

// NAlpha and NBeta are the electron counts of the two spin channels.
func (m *Molecule) NAlpha() int { return (m.getNelec() + m.Spin) / 2 }
func (m *Molecule) NBeta() int  { return (m.getNelec() - m.Spin) / 2 }

func (m *Molecule) NAtoms() int     { return len(m.Atoms) }
func (m *Molecule) NElectrons() int { return m.getNelec() }
func (m *Molecule) NAO() int        { return len(m.funcs) }

// AtomCoords returns the nuclear positions in bohr.
func (m *Molecule) AtomCoords() [][3]float64 {
	res := make([][3]float64, len(m.Atoms))
	for i, a := range m.Atoms {
		for k := 0; k < 3; k++ {
			res[i][k] = a.Coords[k] / ABohr
		}
	}
	return res
}

func (m *Molecule) AtomCharges() []float64 {
	res := make([]float64, len(m.Atoms))
	for i, a := range m.Atoms {
		res[i] = float64(a.Z)
	}
	return res
}

func (m *Molecule) AtomSymbols() []string {
	res := make([]string, len(m.Atoms))
	for i, a := range m.Atoms {
		res[i] = ElemData.Symb[a.Z]
	}
	return res
}

// AOAtoms maps every basis function to the index of its atom.
func (m *Molecule) AOAtoms() []int {
	res := make([]int, len(m.funcs))
	for i, f := range m.funcs {
		res[i] = f.atom
	}
	return res
}

// NucNuc is the nuclear repulsion energy in Hartree.
func (m *Molecule) NucNuc() float64 {
	coords := m.AtomCoords()
	res := 0.0
	for i := range m.Atoms {
		for j := 0; j < i; j++ {
			res += float64(m.Atoms[i].Z) * float64(m.Atoms[j].Z) / dist(coords[i], coords[j])
		}
	}
	return res
}

// WithBasis returns a copy of the molecule carrying another basis set.
func (m *Molecule) WithBasis(name string) (*Molecule, error) {
	return NewMolecule(m.Atoms, name, m.Charge, m.Spin)
}

func dist(a, b [3]float64) float64 {
	return math.Sqrt((a[0]-b[0])*(a[0]-b[0]) + (a[1]-b[1])*(a[1]-b[1]) + (a[2]-b[2])*(a[2]-b[2]))
}

func readEmbedded(name string) ([]string, error) {
	f, err := dataFS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var result []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result, scanner.Err()
}
