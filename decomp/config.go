// config.go --  This file is part of goHF project.
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
	"strings"
)

// Config is the immutable input of a decomposition.
type Config struct {
	Basis string     `mapstructure:"basis" yaml:"basis"`
	Loc   Variant    `mapstructure:"loc" yaml:"loc"`
	Pop   Population `mapstructure:"pop" yaml:"pop"`
	XC    string     `mapstructure:"xc" yaml:"xc,omitempty"`
	// IrrepNelec maps irrep labels to electron counts. Labels are case
	// insensitive; viper hands them over in lower case.
	IrrepNelec map[string]int `mapstructure:"irrep_nelec" yaml:"irrep_nelec,omitempty"`
	Ref        Reference      `mapstructure:"ref" yaml:"ref"`
	ConvTol    float64        `mapstructure:"conv_tol" yaml:"conv_tol"`
	// MOM holds at most one occupation override per spin channel.
	MOM     []map[int]float64 `mapstructure:"mom" yaml:"mom,omitempty"`
	Prop    Property          `mapstructure:"prop" yaml:"prop"`
	Part    Partition         `mapstructure:"part" yaml:"part"`
	Cube    bool              `mapstructure:"cube" yaml:"cube"`
	CubeDir string            `mapstructure:"cube_dir" yaml:"cube_dir,omitempty"`
	// CubeCompress is "gz", "zst" or empty for plain cube files.
	CubeCompress string `mapstructure:"cube_compress" yaml:"cube_compress,omitempty"`
	Verbose      int    `mapstructure:"verbose" yaml:"verbose"`
	// Workers bounds the per-orbital fan-out of the population analysis;
	// 0 or 1 runs sequentially.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// SplitCore localizes core and valence orbitals separately.
	SplitCore bool `mapstructure:"split_core" yaml:"split_core"`
	// Fragments lists the atoms of every EDA fragment. Empty means one
	// fragment per atom.
	Fragments [][]int `mapstructure:"fragments" yaml:"fragments,omitempty"`
	// CentreThreshold is the dominance ratio above which an orbital is
	// centred on a single atom.
	CentreThreshold float64 `mapstructure:"centre_threshold" yaml:"centre_threshold"`
	// GaugeOrigin of the dipole; nil selects the centre of nuclear charge.
	GaugeOrigin *[3]float64 `mapstructure:"gauge_origin" yaml:"gauge_origin,omitempty"`
}

// DefaultConfig returns the standard setup: STO-3G, IBO-2 orbitals
// assigned by IAO charges, restricted reference, energy per atom.
func DefaultConfig() Config {
	return Config{
		Basis:           "sto-3g",
		Loc:             IBO2,
		Pop:             IAO,
		Ref:             Restricted,
		ConvTol:         1e-10,
		Prop:            Energy,
		Part:            Atoms,
		CentreThreshold: 0.95,
	}
}

// sameBasis compares basis labels ignoring case and dashes, so sto3g
// matches STO-3G.
func sameBasis(a, b string) bool {
	norm := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "")
	}
	return norm(a) == norm(b)
}

// Validate checks the configuration against the molecule. It runs before
// any numerical work and never modifies its inputs.
func (c Config) Validate(mol Molecule) error {
	if mol == nil {
		return configErr("molecule", nil, "no molecule given")
	}
	if !sameBasis(c.Basis, mol.BasisName()) {
		return configErr("basis", nil, "%q does not match the molecule basis %q", c.Basis, mol.BasisName())
	}
	if !c.Loc.valid() {
		return configErr("loc", ErrUnknownVariant, "%v; valid choices: none, fb, pm, ibo-2, ibo-4", c.Loc)
	}
	if !c.Pop.valid() {
		return configErr("pop", ErrUnknownPopulation, "%v; valid choices: mulliken, iao", c.Pop)
	}
	irreps := make(map[string]string, len(c.IrrepNelec))
	for irrep, n := range c.IrrepNelec {
		if n < 0 {
			return configErr("irrep_nelec", nil, "negative electron count %d for irrep %s", n, irrep)
		}
		key := strings.ToLower(irrep)
		if prev, ok := irreps[key]; ok {
			return configErr("irrep_nelec", nil, "irreps %s and %s differ only in case", prev, irrep)
		}
		irreps[key] = irrep
	}
	if !c.Ref.valid() {
		return configErr("ref", ErrUnknownReference, "%v; valid choices: restricted, unrestricted", c.Ref)
	}
	if math.IsNaN(c.ConvTol) || math.IsInf(c.ConvTol, 0) || c.ConvTol <= 0 {
		return configErr("conv_tol", nil, "%g; must be a positive number", c.ConvTol)
	}
	if err := c.validateMOM(); err != nil {
		return err
	}
	if !c.Prop.valid() {
		return configErr("prop", ErrInvalidProperty, "%v; valid choices: energy, dipole", c.Prop)
	}
	if !c.Part.valid() {
		return configErr("part", ErrUnknownPartition, "%v; valid choices: atoms, orbitals, eda", c.Part)
	}
	switch c.CubeCompress {
	case "", "gz", "zst":
	default:
		return configErr("cube_compress", nil, "%q; valid choices: gz, zst", c.CubeCompress)
	}
	if c.Verbose < 0 {
		return configErr("verbose", nil, "%d; must be non-negative", c.Verbose)
	}
	if c.Workers < 0 {
		return configErr("workers", nil, "%d; must be non-negative", c.Workers)
	}
	if !(c.CentreThreshold > 0.5 && c.CentreThreshold <= 1) {
		return configErr("centre_threshold", nil, "%g; must lie in (0.5, 1]", c.CentreThreshold)
	}
	if c.GaugeOrigin != nil {
		for _, x := range c.GaugeOrigin {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return configErr("gauge_origin", nil, "%v is not finite", *c.GaugeOrigin)
			}
		}
	}
	return c.validateFragments(mol.NAtoms())
}

func (c Config) validateMOM() error {
	if len(c.MOM) > 2 {
		return configErr("mom", nil, "%d dictionaries; at most one per spin channel", len(c.MOM))
	}
	for s, d := range c.MOM {
		for k, v := range d {
			if k < 0 {
				return configErr("mom", nil, "negative orbital index %d in dictionary %d", k, s)
			}
			if v != 0 && v != 1 && v != 2 {
				return configErr("mom", nil, "occupation %g of orbital %d; valid values: 0, 1, 2", v, k)
			}
		}
	}
	return nil
}

func (c Config) validateFragments(natm int) error {
	if len(c.Fragments) == 0 {
		return nil
	}
	if c.Part != EDA {
		return configErr("fragments", nil, "fragments given for partition %v; only eda uses them", c.Part)
	}
	seen := make([]bool, natm)
	count := 0
	for f, frag := range c.Fragments {
		if len(frag) == 0 {
			return configErr("fragments", nil, "fragment %d is empty", f)
		}
		for _, a := range frag {
			if a < 0 || a >= natm {
				return configErr("fragments", nil, "atom %d of fragment %d out of range [0, %d)", a, f, natm)
			}
			if seen[a] {
				return configErr("fragments", nil, "atom %d belongs to more than one fragment", a)
			}
			seen[a] = true
			count++
		}
	}
	if count != natm {
		return configErr("fragments", nil, "%d of %d atoms assigned; every atom needs a fragment", count, natm)
	}
	return nil
}

// fragments returns the EDA fragments, one per atom when none are set.
func (c Config) fragments(natm int) [][]int {
	if len(c.Fragments) > 0 {
		return c.Fragments
	}
	res := make([][]int, natm)
	for a := range res {
		res[a] = []int{a}
	}
	return res
}
